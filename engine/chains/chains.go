// Package chains connects to the chain of the network a deployment targets.
package chains

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	fchain "github.com/raffle-labs/raffle-deployments/chain"
	"github.com/raffle-labs/raffle-deployments/chain/evm"
	evmprov "github.com/raffle-labs/raffle-deployments/chain/evm/provider"
	cfgenv "github.com/raffle-labs/raffle-deployments/config/env"
	cfgnet "github.com/raffle-labs/raffle-deployments/config/network"
	"github.com/raffle-labs/raffle-deployments/pkg/logger"
)

// confirmTimeout bounds the wait for a transaction and its confirmations on a live network.
const confirmTimeout = 10 * time.Minute

// NewProvider returns the chain provider of a network. In-process networks are served by a
// simulated chain; every other network is reached over RPC with the signers configured in the
// environment.
func NewProvider(lggr logger.Logger, envCfg *cfgenv.Config, net cfgnet.Network) (fchain.Provider, error) {
	if net.InProcess() {
		lggr.Infow("Using in-process chain", "network", net.Name, "chainId", net.ChainID)

		return evmprov.NewSimChainProvider(evmprov.SimChainProviderConfig{
			ChainID:  net.ChainID,
			Accounts: accountNames(net),
		}), nil
	}

	signers, err := signerGenerators(envCfg, net)
	if err != nil {
		return nil, err
	}

	return evmprov.NewRPCChainProvider(net.ChainID, evmprov.RPCChainProviderConfig{
		URL:            envCfg.Endpoint(net),
		Signers:        signers,
		ConfirmFunctor: evmprov.ConfirmFuncGeth(confirmTimeout),
		Logger:         lggr,
	}), nil
}

// LoadChain initializes the chain of a network. The returned provider must be closed by the
// caller once the chain is no longer used.
func LoadChain(
	ctx context.Context, lggr logger.Logger, envCfg *cfgenv.Config, net cfgnet.Network,
) (evm.Chain, fchain.Provider, error) {
	p, err := NewProvider(lggr, envCfg, net)
	if err != nil {
		return evm.Chain{}, nil, err
	}

	lggr.Infow("Loading chain", "network", net.Name, "provider", p.Name())

	c, err := p.Initialize(ctx)
	if err != nil {
		_ = p.Close()
		return evm.Chain{}, nil, fmt.Errorf("failed to initialize chain %d for network %s: %w",
			net.ChainID, net.Name, err,
		)
	}

	return c, p, nil
}

// signerGenerators maps each named account of the network to a signer. A private key signs for
// the deployer, a mnemonic derives every named account by index, and a development node
// without either falls back to the development mnemonic.
func signerGenerators(envCfg *cfgenv.Config, net cfgnet.Network) (map[string]evmprov.SignerGenerator, error) {
	mnemonic := envCfg.Mnemonic
	if mnemonic == "" && envCfg.PrivateKey == "" {
		if !net.IsDevelopment() {
			return nil, fmt.Errorf("no signer configured for network %s", net.Name)
		}

		mnemonic = evmprov.HardhatTestMnemonic
	}

	signers := make(map[string]evmprov.SignerGenerator)
	if mnemonic != "" {
		for name, index := range net.Accounts() {
			signers[name] = evmprov.TransactorFromMnemonic(mnemonic, index)
		}
	}
	if envCfg.PrivateKey != "" {
		signers[evm.AccountDeployer] = evmprov.TransactorFromRaw(envCfg.PrivateKey)
	}

	return signers, nil
}

// accountNames returns the named accounts of the network ordered by their index.
func accountNames(net cfgnet.Network) []string {
	accounts := net.Accounts()

	return slices.SortedFunc(maps.Keys(accounts), func(a, b string) int {
		return cmp.Compare(accounts[a], accounts[b])
	})
}
