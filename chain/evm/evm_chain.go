// Package evm describes an EVM chain the deployment steps run against: a client, the named
// signing accounts and a function that waits for transaction confirmations.
package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"strconv"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	chainsel "github.com/smartcontractkit/chain-selectors"
)

const (
	// AccountDeployer is the named account that signs every deployment transaction.
	AccountDeployer = "deployer"
	// AccountPlayer is the named account used to interact with the raffle as a participant.
	AccountPlayer = "player"
)

var ErrAccountNotFound = errors.New("named account not found")

// ConfirmFunc waits until tx is mined and has at least the given number of confirmations, and
// returns its receipt. A reverted transaction is an error.
type ConfirmFunc func(ctx context.Context, tx *types.Transaction, confirmations uint64) (*types.Receipt, error)

// OnchainClient is an EVM chain client. Both the go-ethereum ethclient and the simulated
// backend client satisfy it.
type OnchainClient interface {
	bind.ContractBackend
	bind.DeployBackend

	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error)
	BlockNumber(ctx context.Context) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
	TransactionByHash(ctx context.Context, hash common.Hash) (tx *types.Transaction, isPending bool, err error)
}

// Chain represents an EVM chain.
type Chain struct {
	// ChainID is the EVM chain id, e.g. 31337 for a local development chain.
	ChainID uint64

	Client OnchainClient
	// Accounts are the signing keys available to the deployment steps, by name. Account names
	// come from the network configuration (deployer, player).
	Accounts map[string]*bind.TransactOpts
	Confirm  ConfirmFunc
}

// Account returns the transactor of the named account.
func (c Chain) Account(name string) (*bind.TransactOpts, error) {
	opts, ok := c.Accounts[name]
	if !ok || opts == nil {
		return nil, fmt.Errorf("%s on chain %d: %w", name, c.ChainID, ErrAccountNotFound)
	}

	return opts, nil
}

// NamedAccounts returns the address of every named account.
func (c Chain) NamedAccounts() map[string]common.Address {
	out := make(map[string]common.Address, len(c.Accounts))
	for name, opts := range c.Accounts {
		if opts != nil {
			out[name] = opts.From
		}
	}

	return out
}

// AccountByAddress returns the transactor whose address is addr.
func (c Chain) AccountByAddress(addr common.Address) (*bind.TransactOpts, error) {
	names := make([]string, 0, len(c.Accounts))
	for name := range c.Accounts {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		if opts := c.Accounts[name]; opts != nil && opts.From == addr {
			return opts, nil
		}
	}

	return nil, fmt.Errorf("%s on chain %d: %w", addr.Hex(), c.ChainID, ErrAccountNotFound)
}

// Selector returns the chain selector registered for the chain id, if any.
func (c Chain) Selector() (uint64, error) {
	return chainsel.SelectorFromChainId(c.ChainID)
}

// Name returns the registered chain name, falling back to the chain id.
func (c Chain) Name() string {
	name, err := chainsel.NameFromChainId(c.ChainID)
	if err != nil || name == "" {
		return strconv.FormatUint(c.ChainID, 10)
	}

	return name
}

// String returns chain name and id "<name> (<chain id>)"
func (c Chain) String() string {
	return fmt.Sprintf("%s (%d)", c.Name(), c.ChainID)
}
