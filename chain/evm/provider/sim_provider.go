package provider

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/eth/ethconfig"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
	"github.com/ethereum/go-ethereum/node"
	"github.com/ethereum/go-ethereum/params"

	"github.com/raffle-labs/raffle-deployments/chain"
	"github.com/raffle-labs/raffle-deployments/chain/evm"
)

// DevChainID is the chain id of the ephemeral in-process development network.
const DevChainID uint64 = 31337

var (
	// prefundAmountWei is the balance every named account starts with, 10,000 Ether.
	prefundAmountWei = new(big.Int).Mul(big.NewInt(10_000), big.NewInt(params.Ether))
	// simConfirmTimeout bounds the wait for a committed transaction's receipt.
	simConfirmTimeout = 1 * time.Minute
)

// SimChainProviderConfig holds the configuration to initialize the SimChainProvider.
type SimChainProviderConfig struct {
	// Optional: ChainID of the simulated chain. Defaults to DevChainID.
	ChainID uint64
	// Optional: Mnemonic the named accounts are derived from. Defaults to HardhatTestMnemonic.
	Mnemonic string
	// Optional: Accounts are the account names, assigned to derivation indexes in order.
	// Defaults to the deployer and the player.
	Accounts []string
	// Optional: BlockTime configures the time between blocks being committed. By default, this is
	// set to 0s, meaning blocks are only produced when a transaction is confirmed.
	BlockTime time.Duration
}

func (c SimChainProviderConfig) withDefaults() SimChainProviderConfig {
	if c.ChainID == 0 {
		c.ChainID = DevChainID
	}
	if c.Mnemonic == "" {
		c.Mnemonic = HardhatTestMnemonic
	}
	if len(c.Accounts) == 0 {
		c.Accounts = []string{evm.AccountDeployer, evm.AccountPlayer}
	}

	return c
}

var _ chain.Provider = (*SimChainProvider)(nil)

// SimChainProvider manages a simulated EVM chain that is backed by go-ethereum's in memory
// simulated backend.
type SimChainProvider struct {
	config SimChainProviderConfig

	mu      sync.Mutex
	backend *simulated.Backend
	client  *SimClient
	stop    context.CancelFunc
	mined   <-chan struct{}
	chain   *evm.Chain
}

// NewSimChainProvider creates a new SimChainProvider with the given configuration.
func NewSimChainProvider(config SimChainProviderConfig) *SimChainProvider {
	return &SimChainProvider{
		config: config.withDefaults(),
	}
}

// Initialize starts the simulated chain with every configured account prefunded and returns an
// evm.Chain bound to it. Calling it again returns the same chain.
func (p *SimChainProvider) Initialize(_ context.Context) (evm.Chain, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.chain != nil {
		return *p.chain, nil
	}

	chainID := new(big.Int).SetUint64(p.config.ChainID)
	genesis := types.GenesisAlloc{}
	accounts := make(map[string]*bind.TransactOpts, len(p.config.Accounts))
	for i, name := range p.config.Accounts {
		opts, err := TransactorFromMnemonic(p.config.Mnemonic, uint32(i)).Generate(chainID) //nolint:gosec // account count is small
		if err != nil {
			return evm.Chain{}, fmt.Errorf("failed to generate %s account: %w", name, err)
		}

		accounts[name] = opts
		genesis[opts.From] = types.Account{Balance: prefundAmountWei}
	}

	p.backend = simulated.NewBackend(genesis,
		simulated.WithBlockGasLimit(50_000_000),
		withChainID(chainID),
	)
	p.backend.Commit()
	p.client = NewSimClient(p.backend)

	ctx, cancel := context.WithCancel(context.Background())
	p.stop = cancel
	if p.config.BlockTime > 0 {
		p.mined = startAutoMine(ctx, p.client, p.config.BlockTime)
	}

	p.chain = &evm.Chain{
		ChainID:  p.config.ChainID,
		Client:   p.client,
		Accounts: accounts,
		Confirm:  p.confirm,
	}

	return *p.chain, nil
}

// confirm commits the pending transactions and keeps committing empty blocks until the
// transaction has the requested number of confirmations.
func (p *SimChainProvider) confirm(
	ctx context.Context, tx *types.Transaction, confirmations uint64,
) (*types.Receipt, error) {
	if tx == nil {
		return nil, errors.New("tx was nil, nothing to confirm")
	}

	p.client.Commit()

	ctxTimeout, cancel := context.WithTimeout(ctx, simConfirmTimeout)
	defer cancel()

	receipt, err := bind.WaitMined(ctxTimeout, p.client, tx)
	if err != nil {
		return nil, fmt.Errorf("tx %s failed to confirm: %w", tx.Hash().Hex(), err)
	}

	if err = checkReceipt(ctxTimeout, p.client, tx, receipt); err != nil {
		return receipt, err
	}

	for {
		head, err := p.client.BlockNumber(ctxTimeout)
		if err != nil {
			return receipt, fmt.Errorf("failed to get block number: %w", err)
		}
		if confirmationsOf(receipt, head) >= confirmations {
			return receipt, nil
		}

		p.client.Commit()
	}
}

// Name returns the name of the SimChainProvider.
func (*SimChainProvider) Name() string {
	return "Simulated EVM Chain Provider"
}

// ChainID returns the chain id of the simulated chain managed by this provider.
func (p *SimChainProvider) ChainID() uint64 {
	return p.config.ChainID
}

// Close stops block production and shuts the simulated backend down.
func (p *SimChainProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.backend == nil {
		return nil
	}

	p.stop()
	if p.mined != nil {
		<-p.mined
	}

	err := p.backend.Close()
	p.backend = nil
	p.chain = nil
	p.mined = nil

	return err
}

// withChainID overrides the chain id of the simulated backend's genesis.
func withChainID(chainID *big.Int) func(*node.Config, *ethconfig.Config) {
	return func(_ *node.Config, ethConf *ethconfig.Config) {
		cfg := *params.AllDevChainProtocolChanges
		cfg.ChainID = chainID
		ethConf.Genesis.Config = &cfg
	}
}

// startAutoMine commits a new block every blockTime until the context is cancelled. The
// returned channel is closed once no more blocks will be committed.
func startAutoMine(ctx context.Context, client *SimClient, blockTime time.Duration) <-chan struct{} {
	done := make(chan struct{})
	ticker := time.NewTicker(blockTime)
	go func() {
		defer close(done)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if ctx.Err() != nil {
					return
				}
				client.Commit()
			case <-ctx.Done():
				return
			}
		}
	}()

	return done
}
