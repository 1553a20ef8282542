package deploy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/raffle-labs/raffle-deployments/chain/evm"
	"github.com/raffle-labs/raffle-deployments/contracts"
	"github.com/raffle-labs/raffle-deployments/datastore"
	"github.com/raffle-labs/raffle-deployments/pkg/logger"
)

// EVMDeployerConfig configures an EVMDeployer.
type EVMDeployerConfig struct {
	Chain  evm.Chain
	Loader contracts.Loader
	Store  datastore.MutableArtifactStore
	Logger logger.Logger
	// Persistent marks a network whose state outlives the process. Unchanged contracts recorded
	// in the store are reused instead of redeployed, and every deployment must wait for at
	// least one confirmation.
	Persistent bool
	// ReportGas logs the gas used by every deployment.
	ReportGas bool
}

// EVMDeployer deploys compiled contracts to an EVM chain.
type EVMDeployer struct {
	chain      evm.Chain
	loader     contracts.Loader
	store      datastore.MutableArtifactStore
	lggr       logger.Logger
	persistent bool
	reportGas  bool
	now        func() time.Time
}

var _ Deployer = (*EVMDeployer)(nil)

// NewEVMDeployer creates an EVMDeployer.
func NewEVMDeployer(cfg EVMDeployerConfig) (*EVMDeployer, error) {
	if cfg.Chain.Client == nil || cfg.Chain.Confirm == nil {
		return nil, errors.New("chain client and confirm function are required")
	}
	if cfg.Loader == nil {
		return nil, errors.New("artifact loader is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("artifact store is required")
	}

	return &EVMDeployer{
		chain:      cfg.Chain,
		loader:     cfg.Loader,
		store:      cfg.Store,
		lggr:       cfg.Logger.Named("deployer"),
		persistent: cfg.Persistent,
		reportGas:  cfg.ReportGas,
		now:        time.Now,
	}, nil
}

// Deploy deploys the named contract with the given options. The constructor arguments are
// converted to the types of the compiled constructor before sending.
func (d *EVMDeployer) Deploy(ctx context.Context, name string, opts DeployOptions) (datastore.DeployedArtifact, error) {
	if d.persistent && opts.WaitConfirmations < 1 {
		return datastore.DeployedArtifact{}, fmt.Errorf(
			"deploying %s: wait confirmations must be at least 1 on a persistent network", name)
	}

	art, err := d.loader.Load(name)
	if err != nil {
		return datastore.DeployedArtifact{}, err
	}
	if len(art.Bytecode) == 0 {
		return datastore.DeployedArtifact{}, fmt.Errorf("%s has no bytecode, is it abstract?", name)
	}

	params, err := contracts.ConvertArgs(art.ABI.Constructor.Inputs, opts.Args)
	if err != nil {
		return datastore.DeployedArtifact{}, fmt.Errorf("invalid constructor arguments for %s: %w", name, err)
	}

	if existing, ok := d.reusable(name, art, opts.Args); ok {
		if opts.Log {
			d.lggr.Infof("reusing %q at %s", name, existing.Address)
		}

		return existing, nil
	}

	from := opts.From
	if from == "" {
		from = evm.AccountDeployer
	}
	account, err := d.chain.Account(from)
	if err != nil {
		return datastore.DeployedArtifact{}, err
	}

	auth := *account
	auth.Context = ctx
	address, tx, _, err := bind.DeployContract(&auth, art.ABI, art.Bytecode, d.chain.Client, params...)
	if err != nil {
		return datastore.DeployedArtifact{}, fmt.Errorf("failed to send %s deployment: %w", name, err)
	}
	if opts.Log {
		d.lggr.Infof("deploying %q (tx: %s)...", name, tx.Hash().Hex())
	}

	confirmations := max(opts.WaitConfirmations, 1)
	receipt, err := d.chain.Confirm(ctx, tx, confirmations)
	if err != nil {
		return datastore.DeployedArtifact{}, fmt.Errorf("failed to confirm %s deployment: %w", name, err)
	}

	artifact := datastore.DeployedArtifact{
		Name:            name,
		Address:         address.Hex(),
		ABI:             art.RawABI,
		TransactionHash: tx.Hash().Hex(),
		Receipt:         datastore.NewReceipt(receipt),
		Confirmations:   confirmations,
		Args:            slices.Clone(opts.Args),
		ChainID:         d.chain.ChainID,
		BytecodeHash:    art.BytecodeHash(),
		DeployedAt:      d.now().UTC(),
	}
	if err = d.store.Upsert(artifact); err != nil {
		return datastore.DeployedArtifact{}, fmt.Errorf("failed to record %s: %w", name, err)
	}

	if opts.Log {
		d.lggr.Infof("deployed %q at %s with %d gas", name, address.Hex(), receipt.GasUsed)
	}
	if d.reportGas {
		d.lggr.Infow("Gas report", "contract", name, "gasUsed", receipt.GasUsed,
			"effectiveGasPrice", receipt.EffectiveGasPrice)
	}

	return d.store.Get(name)
}

// reusable returns the recorded artifact of a contract on a persistent network when it was
// deployed from the same bytecode with the same arguments.
func (d *EVMDeployer) reusable(name string, art *contracts.Artifact, args []string) (datastore.DeployedArtifact, bool) {
	if !d.persistent {
		return datastore.DeployedArtifact{}, false
	}

	existing, err := d.store.Get(name)
	if err != nil {
		return datastore.DeployedArtifact{}, false
	}
	if existing.ChainID != d.chain.ChainID ||
		existing.BytecodeHash != art.BytecodeHash() ||
		!slices.Equal(existing.Args, args) {
		return datastore.DeployedArtifact{}, false
	}

	return existing, true
}

// Get returns the recorded artifact of a contract.
func (d *EVMDeployer) Get(name string) (datastore.DeployedArtifact, error) {
	a, err := d.store.Get(name)
	if err != nil {
		return datastore.DeployedArtifact{}, fmt.Errorf("%s: %w", name, err)
	}

	return a, nil
}

// ABI returns the compiled ABI of a contract.
func (d *EVMDeployer) ABI(name string) (abi.ABI, error) {
	art, err := d.loader.Load(name)
	if err != nil {
		return abi.ABI{}, err
	}

	return art.ABI, nil
}

// ContractAt returns a handle to the contract at address. Transactions are signed by the
// deployer.
func (d *EVMDeployer) ContractAt(contractABI json.RawMessage, address string) (Contract, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("%w: %q", datastore.ErrInvalidAddress, address)
	}

	parsed, err := abi.JSON(bytes.NewReader(contractABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse abi: %w", err)
	}

	account, err := d.chain.Account(evm.AccountDeployer)
	if err != nil {
		return nil, err
	}

	addr := common.HexToAddress(address)

	return &evmContract{
		address: addr,
		abi:     parsed,
		bound:   bind.NewBoundContract(addr, parsed, d.chain.Client, d.chain.Client, d.chain.Client),
		from:    account,
		confirm: d.chain.Confirm,
	}, nil
}

// WaitConfirmations waits until the deployment transaction of artifact has the given number of
// confirmations.
func (d *EVMDeployer) WaitConfirmations(
	ctx context.Context, artifact datastore.DeployedArtifact, confirmations uint64,
) error {
	tx, _, err := d.chain.Client.TransactionByHash(ctx, common.HexToHash(artifact.TransactionHash))
	if err != nil {
		return fmt.Errorf("failed to get deployment tx of %s: %w", artifact.Name, err)
	}

	d.lggr.Infow("Waiting for confirmations", "contract", artifact.Name, "confirmations", confirmations)
	if _, err = d.chain.Confirm(ctx, tx, confirmations); err != nil {
		return err
	}

	return nil
}

// evmContract is a Contract bound to an EVM chain.
type evmContract struct {
	address common.Address
	abi     abi.ABI
	bound   *bind.BoundContract
	from    *bind.TransactOpts
	confirm evm.ConfirmFunc
}

func (c *evmContract) Address() common.Address {
	return c.address
}

func (c *evmContract) Transact(ctx context.Context, method string, args ...any) (*types.Transaction, error) {
	opts := *c.from
	opts.Context = ctx

	tx, err := c.bound.Transact(&opts, method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s on %s: %w", method, c.address.Hex(), err)
	}

	return tx, nil
}

func (c *evmContract) Confirm(ctx context.Context, tx *types.Transaction, confirmations uint64) (*types.Receipt, error) {
	return c.confirm(ctx, tx, confirmations)
}

// EventArg decodes the first log the contract emitted in receipt that matches an event of its
// ABI, and returns its argument at index. Indexed and data arguments share one index space, in
// declaration order.
func (c *evmContract) EventArg(receipt *types.Receipt, index int) (any, error) {
	if receipt == nil {
		return nil, errors.New("receipt is nil")
	}

	for _, l := range receipt.Logs {
		if l.Address != c.address || len(l.Topics) == 0 {
			continue
		}
		event, err := c.abi.EventByID(l.Topics[0])
		if err != nil {
			continue
		}

		if index < 0 || index >= len(event.Inputs) {
			return nil, fmt.Errorf("event %s has no argument %d", event.Name, index)
		}

		var indexed abi.Arguments
		for _, in := range event.Inputs {
			if in.Indexed {
				indexed = append(indexed, in)
			}
		}

		values := map[string]any{}
		if err = abi.ParseTopicsIntoMap(values, indexed, l.Topics[1:]); err != nil {
			return nil, fmt.Errorf("failed to decode %s topics: %w", event.Name, err)
		}
		if err = event.Inputs.UnpackIntoMap(values, l.Data); err != nil {
			return nil, fmt.Errorf("failed to decode %s data: %w", event.Name, err)
		}

		return values[event.Inputs[index].Name], nil
	}

	return nil, fmt.Errorf("no event emitted by %s", c.address.Hex())
}
