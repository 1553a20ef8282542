package deploy

import (
	"context"
	"math/big"

	"github.com/raffle-labs/raffle-deployments/config"
	"github.com/raffle-labs/raffle-deployments/config/chain"
	"github.com/raffle-labs/raffle-deployments/config/network"
	"github.com/raffle-labs/raffle-deployments/datastore"
	"github.com/raffle-labs/raffle-deployments/operations"
	"github.com/raffle-labs/raffle-deployments/pkg/logger"
	"github.com/raffle-labs/raffle-deployments/verify"
)

// Verifier submits the source of a deployed contract for verification.
type Verifier interface {
	Verify(ctx context.Context, req verify.Request) error
}

// Environment is everything a deployment step needs. It is built once, validated, and passed
// to every step of a run.
type Environment struct {
	// Network is the network deployed to.
	Network network.Network
	// ChainID is the chain id resolved from the connected chain.
	ChainID uint64
	// ChainConfig holds the raffle parameters of every known chain.
	ChainConfig chain.Table

	Deployer Deployer
	// Artifacts is the store the deployer records artifacts in.
	Artifacts datastore.MutableArtifactStore
	// Verifier is nil when no verification API key is configured.
	Verifier Verifier

	Logger logger.Logger
	// FundAmount is the amount a new subscription on the local chain is funded with. Defaults
	// to DefaultFundAmount.
	FundAmount *big.Int

	// GetContext returns the context of the current run.
	GetContext func() context.Context
	// OperationsBundle records the operations executed during the run.
	OperationsBundle operations.Bundle
	// Fixture runs the steps selected by tags that have not run yet in the current run.
	Fixture func(tags ...string) error
}

// resolveChainID returns the chain id of the network deployed to.
func (e Environment) resolveChainID() (uint64, error) {
	if e.ChainID == 0 {
		return 0, config.NewConfigurationError("chain id", "no chain id resolved for network %q", e.Network.Name)
	}

	return e.ChainID, nil
}

// ctx returns the context of the current run.
func (e Environment) ctx() context.Context {
	if e.GetContext == nil {
		return context.Background()
	}

	return e.GetContext()
}

// fundAmount returns the subscription funding amount.
func (e Environment) fundAmount() *big.Int {
	if e.FundAmount != nil {
		return e.FundAmount
	}

	return DefaultFundAmount()
}
