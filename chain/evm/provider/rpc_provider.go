package provider

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math/big"
	"slices"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/raffle-labs/raffle-deployments/chain"
	"github.com/raffle-labs/raffle-deployments/chain/evm"
	"github.com/raffle-labs/raffle-deployments/pkg/logger"
)

// RPCChainProviderConfig holds the configuration to initialize the RPCChainProvider.
type RPCChainProviderConfig struct {
	// Required: URL of the JSON-RPC endpoint of the EVM node.
	URL string
	// Required: Signers generate the named accounts. A deployer signer must be present. Use
	// TransactorFromRaw for a private key or TransactorFromMnemonic for a mnemonic account.
	Signers map[string]SignerGenerator
	// Required: ConfirmFunctor is a type that generates a confirmation function for transactions.
	// If in doubt, use ConfirmFuncGeth.
	ConfirmFunctor ConfirmFunctor
	// Optional: DialAttempts is the number of times the chain id is queried before giving up.
	// Defaults to 3.
	DialAttempts uint
	// Optional: DialRetryDelay is the base delay between chain id queries. Defaults to 1s.
	DialRetryDelay time.Duration
	// Optional: Logger is the logger to use for the RPCChainProvider. If not provided, a default
	// logger will be used.
	Logger logger.Logger
}

// validate checks if the RPCChainProviderConfig is valid.
func (c RPCChainProviderConfig) validate() error {
	if c.URL == "" {
		return errors.New("rpc url is required")
	}
	if c.Signers[evm.AccountDeployer] == nil {
		return errors.New("deployer signer is required")
	}
	if c.ConfirmFunctor == nil {
		return errors.New("confirm functor is required")
	}

	return nil
}

var _ chain.Provider = (*RPCChainProvider)(nil)

// RPCChainProvider is a chain provider that provides a chain that connects to an EVM node via RPC.
type RPCChainProvider struct {
	chainID uint64
	config  RPCChainProviderConfig

	client *ethclient.Client
	chain  *evm.Chain
}

// NewRPCChainProvider creates a new RPCChainProvider for the chain with the given id.
func NewRPCChainProvider(chainID uint64, config RPCChainProviderConfig) *RPCChainProvider {
	return &RPCChainProvider{
		chainID: chainID,
		config:  config,
	}
}

// Initialize dials the node, checks that it serves the expected chain id and generates the named
// accounts. It returns the initialized evm.Chain or an error if initialization fails.
func (p *RPCChainProvider) Initialize(ctx context.Context) (evm.Chain, error) {
	if p.chain != nil {
		return *p.chain, nil
	}

	if p.config.Logger == nil {
		lggr, err := logger.New()
		if err != nil {
			return evm.Chain{}, fmt.Errorf("failed to create default logger: %w", err)
		}
		p.config.Logger = lggr
	}

	if err := p.config.validate(); err != nil {
		return evm.Chain{}, fmt.Errorf("failed to validate provider config: %w", err)
	}

	client, err := ethclient.DialContext(ctx, p.config.URL)
	if err != nil {
		return evm.Chain{}, fmt.Errorf("failed to dial rpc: %w", err)
	}

	if err = p.checkChainID(ctx, client); err != nil {
		client.Close()
		return evm.Chain{}, err
	}

	chainID := new(big.Int).SetUint64(p.chainID)
	accounts := make(map[string]*bind.TransactOpts, len(p.config.Signers))
	for _, name := range slices.Sorted(maps.Keys(p.config.Signers)) {
		opts, gerr := p.config.Signers[name].Generate(chainID)
		if gerr != nil {
			client.Close()
			return evm.Chain{}, fmt.Errorf("failed to generate %s account: %w", name, gerr)
		}

		accounts[name] = opts
	}

	confirmFunc, err := p.config.ConfirmFunctor.Generate(client)
	if err != nil {
		client.Close()
		return evm.Chain{}, fmt.Errorf("failed to generate confirm function: %w", err)
	}

	p.client = client
	p.chain = &evm.Chain{
		ChainID:  p.chainID,
		Client:   client,
		Accounts: accounts,
		Confirm:  confirmFunc,
	}

	p.config.Logger.Infow("Connected to chain", "chain", p.chain.String(), "accounts", len(accounts))

	return *p.chain, nil
}

// checkChainID queries the node's chain id, retrying transient failures, and compares it to the
// expected one.
func (p *RPCChainProvider) checkChainID(ctx context.Context, client *ethclient.Client) error {
	attempts := p.config.DialAttempts
	if attempts == 0 {
		attempts = 3
	}
	delay := p.config.DialRetryDelay
	if delay == 0 {
		delay = 1 * time.Second
	}

	got, err := retry.DoWithData(
		func() (*big.Int, error) {
			return client.ChainID(ctx)
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			p.config.Logger.Debugw("Retrying chain id query", "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to get chain id: %w", err)
	}

	if !got.IsUint64() || got.Uint64() != p.chainID {
		return fmt.Errorf("rpc serves chain id %s, expected %d", got, p.chainID)
	}

	return nil
}

// Name returns the name of the RPCChainProvider.
func (*RPCChainProvider) Name() string {
	return "EVM RPC Chain Provider"
}

// ChainID returns the chain id of the chain managed by this provider.
func (p *RPCChainProvider) ChainID() uint64 {
	return p.chainID
}

// Close closes the underlying rpc connection.
func (p *RPCChainProvider) Close() error {
	if p.client != nil {
		p.client.Close()
		p.client = nil
		p.chain = nil
	}

	return nil
}
