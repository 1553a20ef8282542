// Package environment builds the deployment environment of a network: it loads and validates
// the configuration, connects to the chain and wires the deployer, the artifact store and the
// verifier.
package environment

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	fchain "github.com/raffle-labs/raffle-deployments/chain"
	"github.com/raffle-labs/raffle-deployments/chain/evm"
	cfgnet "github.com/raffle-labs/raffle-deployments/config/network"
	"github.com/raffle-labs/raffle-deployments/contracts"
	"github.com/raffle-labs/raffle-deployments/datastore"
	"github.com/raffle-labs/raffle-deployments/deploy"
	"github.com/raffle-labs/raffle-deployments/engine/chains"
	"github.com/raffle-labs/raffle-deployments/engine/config"
	"github.com/raffle-labs/raffle-deployments/pkg/logger"
	"github.com/raffle-labs/raffle-deployments/verify"
)

// Environment is a loaded deployment environment. It must be closed to release the chain.
type Environment struct {
	deploy.Environment

	// Chain is the chain the environment deploys to.
	Chain evm.Chain
	// Config is the configuration the environment was loaded from.
	Config *config.Config

	provider fchain.Provider
}

// Close releases the chain connection, or stops the in-process chain.
func (e *Environment) Close() error {
	if e.provider == nil {
		return nil
	}

	return e.provider.Close()
}

// Load loads the environment of the named network. The environment values and the chain
// parameters the network requires are checked before connecting to the chain, and every missing
// or malformed value is reported at once.
func Load(ctx context.Context, networkName string, opts ...LoadEnvironmentOption) (*Environment, error) {
	lc := newLoadConfig()
	lc.Configure(opts)

	lggr := lc.lggr
	if lggr == nil {
		var err error
		if lggr, err = logger.New(); err != nil {
			return nil, err
		}
	}

	cfg := lc.cfg
	if cfg == nil {
		var err error
		if cfg, err = config.Load(lc.files, lggr); err != nil {
			return nil, err
		}
	}

	net, err := cfg.Network(networkName)
	if err != nil {
		return nil, err
	}

	if err = cfg.Validate(net); err != nil {
		return nil, err
	}

	c, provider, err := chains.LoadChain(ctx, lggr, cfg.Env, net)
	if err != nil {
		return nil, err
	}

	env, err := newEnvironment(lc, lggr, cfg, net, c)
	if err != nil {
		return nil, errors.Join(err, provider.Close())
	}
	env.provider = provider

	lggr.Infow("Loaded environment",
		"network", net.Name,
		"chain", c.String(),
		"accounts", c.NamedAccounts(),
		"verification", env.Verifier != nil,
	)

	return env, nil
}

func newEnvironment(
	lc *LoadConfig, lggr logger.Logger, cfg *config.Config, net cfgnet.Network, c evm.Chain,
) (*Environment, error) {
	store, err := artifactStore(lc, net, c.ChainID)
	if err != nil {
		return nil, err
	}

	loader := lc.loader
	if loader == nil {
		loader = contracts.NewDirLoader(lc.artifactsDir)
	}

	deployer, err := deploy.NewEVMDeployer(deploy.EVMDeployerConfig{
		Chain:      c,
		Loader:     loader,
		Store:      store,
		Logger:     lggr,
		Persistent: !net.InProcess(),
		ReportGas:  cfg.Env.ReportGas,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create deployer: %w", err)
	}

	env := &Environment{
		Environment: deploy.Environment{
			Network:     net,
			ChainID:     c.ChainID,
			ChainConfig: cfg.Chains,
			Deployer:    deployer,
			Artifacts:   store,
			Logger:      lggr,
			FundAmount:  lc.fundAmount,
		},
		Chain:  c,
		Config: cfg,
	}

	if cfg.Env.EtherscanAPIKey == "" || net.IsDevelopment() {
		return env, nil
	}

	biLoader, ok := loader.(contracts.BuildInfoLoader)
	if !ok {
		lggr.Warnw("Artifact loader has no build info, contracts will not be verified", "network", net.Name)
		return env, nil
	}

	verifier, err := verify.NewEtherscanVerifier(verify.Config{
		APIKey:  cfg.Env.EtherscanAPIKey,
		ChainID: c.ChainID,
	}, biLoader, lggr)
	if err != nil {
		return nil, fmt.Errorf("failed to create verifier: %w", err)
	}
	env.Verifier = verifier

	return env, nil
}

// artifactStore returns the store deployments are recorded in. Networks that save their
// deployments, and networks whose state outlives the process, use a directory per network;
// the in-process network keeps them in memory.
func artifactStore(lc *LoadConfig, net cfgnet.Network, chainID uint64) (datastore.MutableArtifactStore, error) {
	if !net.SaveDeployments && net.InProcess() {
		return datastore.NewMemoryArtifactStore(), nil
	}

	store, err := datastore.NewFileArtifactStore(filepath.Join(lc.deploymentsDir, net.Name), chainID)
	if err != nil {
		return nil, fmt.Errorf("failed to open deployments of network %s: %w", net.Name, err)
	}

	return store, nil
}
