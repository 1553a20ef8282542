package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/core/types"

	"github.com/raffle-labs/raffle-deployments/chain/evm"
)

// ConfirmFunctor is an interface for creating a confirmation function for transactions on the
// EVM chain.
type ConfirmFunctor interface {
	// Generate returns a function that confirms transactions on the EVM chain.
	Generate(client evm.OnchainClient) (evm.ConfirmFunc, error)
}

// ConfirmFuncGeth returns a ConfirmFunctor that uses the Geth client to confirm transactions.
// waitMinedTimeout bounds the whole confirmation, including the wait for extra confirmations.
func ConfirmFuncGeth(waitMinedTimeout time.Duration, opts ...func(*confirmFuncGeth)) ConfirmFunctor {
	cf := &confirmFuncGeth{
		tickInterval:     1 * time.Second, // same value bind.WaitMined uses
		waitMinedTimeout: waitMinedTimeout,
	}
	for _, o := range opts {
		o(cf)
	}

	return cf
}

func WithTickInterval(interval time.Duration) func(*confirmFuncGeth) {
	return func(o *confirmFuncGeth) {
		o.tickInterval = interval
	}
}

// confirmFuncGeth implements the ConfirmFunctor interface which generates a confirmation function
// for transactions using the Geth client.
type confirmFuncGeth struct {
	tickInterval     time.Duration
	waitMinedTimeout time.Duration
}

// Generate returns a function that confirms transactions using the Geth client.
func (g *confirmFuncGeth) Generate(client evm.OnchainClient) (evm.ConfirmFunc, error) {
	if client == nil {
		return nil, errors.New("client is required to generate a confirm function")
	}

	return func(ctx context.Context, tx *types.Transaction, confirmations uint64) (*types.Receipt, error) {
		if tx == nil {
			return nil, errors.New("tx was nil, nothing to confirm")
		}

		ctxTimeout, cancel := context.WithTimeout(ctx, g.waitMinedTimeout)
		defer cancel()

		receipt, err := WaitMinedWithInterval(ctxTimeout, g.tickInterval, client, tx.Hash())
		if err != nil {
			return nil, fmt.Errorf("tx %s failed to confirm: %w", tx.Hash().Hex(), err)
		}

		if err = checkReceipt(ctxTimeout, client, tx, receipt); err != nil {
			return receipt, err
		}

		if err = WaitConfirmations(ctxTimeout, g.tickInterval, client, receipt, confirmations); err != nil {
			return receipt, fmt.Errorf("tx %s did not reach %d confirmations: %w",
				tx.Hash().Hex(), confirmations, err,
			)
		}

		return receipt, nil
	}, nil
}
