package chain

import (
	"context"

	"github.com/raffle-labs/raffle-deployments/chain/evm"
)

// Provider is an interface for chain providers that can initialize an EVM chain instance.
type Provider interface {
	Initialize(ctx context.Context) (evm.Chain, error)
	Name() string
	ChainID() uint64
	Close() error
}
