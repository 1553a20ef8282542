package deploy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/Masterminds/semver/v3"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/raffle-labs/raffle-deployments/datastore"
	"github.com/raffle-labs/raffle-deployments/operations"
)

// DeployOptions configure a single contract deployment.
type DeployOptions struct {
	// From is the named account signing the deployment. Defaults to the deployer.
	From string `json:"from"`
	// Args are the constructor arguments in textual form.
	Args []string `json:"args"`
	// Log logs the deployment transaction and the resulting address.
	Log bool `json:"log"`
	// WaitConfirmations is the number of confirmations to wait for. It must be at least 1 on a
	// persistent network.
	WaitConfirmations uint64 `json:"waitConfirmations"`
}

// Deployer deploys contracts and keeps the record of what was deployed.
type Deployer interface {
	// Deploy deploys the named compiled contract and records the artifact.
	Deploy(ctx context.Context, name string, opts DeployOptions) (datastore.DeployedArtifact, error)
	// Get returns the recorded artifact of a contract, or datastore.ErrArtifactNotFound.
	Get(name string) (datastore.DeployedArtifact, error)
	// ABI returns the compiled ABI of a contract.
	ABI(name string) (abi.ABI, error)
	// ContractAt returns a handle to the contract deployed at address.
	ContractAt(contractABI json.RawMessage, address string) (Contract, error)
	// WaitConfirmations waits until the deployment transaction of an artifact has the given
	// number of confirmations.
	WaitConfirmations(ctx context.Context, artifact datastore.DeployedArtifact, confirmations uint64) error
}

// Contract is a handle to a deployed contract.
type Contract interface {
	Address() common.Address
	// Transact sends a transaction calling method with args.
	Transact(ctx context.Context, method string, args ...any) (*types.Transaction, error)
	// Confirm waits for tx to be mined with the given number of confirmations.
	Confirm(ctx context.Context, tx *types.Transaction, confirmations uint64) (*types.Receipt, error)
	// EventArg returns argument index of the first event the contract emitted in receipt.
	EventArg(receipt *types.Receipt, index int) (any, error)
}

// DeployContractInput is the input of DeployContractOp.
type DeployContractInput struct {
	Name    string        `json:"name"`
	Options DeployOptions `json:"options"`
}

// DeployContractOp deploys a compiled contract.
var DeployContractOp = operations.NewOperation(
	"deploy-contract",
	semver.MustParse("1.0.0"),
	"Deploys a compiled contract and records its artifact",
	func(b operations.Bundle, deployer Deployer, in DeployContractInput) (datastore.DeployedArtifact, error) {
		return deployer.Deploy(b.GetContext(), in.Name, in.Options)
	},
)

// CreateSubscriptionOp creates a subscription on a VRF coordinator and returns its id, the first
// argument of the SubscriptionCreated event.
var CreateSubscriptionOp = operations.NewOperation(
	"create-subscription",
	semver.MustParse("1.0.0"),
	"Creates a VRF subscription on the coordinator",
	func(b operations.Bundle, coordinator Contract, _ operations.EmptyInput) (uint64, error) {
		ctx := b.GetContext()

		tx, err := coordinator.Transact(ctx, "createSubscription")
		if err != nil {
			return 0, err
		}
		receipt, err := coordinator.Confirm(ctx, tx, 1)
		if err != nil {
			return 0, err
		}

		v, err := coordinator.EventArg(receipt, 0)
		if err != nil {
			return 0, fmt.Errorf("failed to read subscription id: %w", err)
		}
		subID, ok := v.(uint64)
		if !ok {
			return 0, fmt.Errorf("unexpected subscription id type %T", v)
		}

		b.Logger.Infow("Subscription created", "subscriptionId", subID, "tx", tx.Hash().Hex())

		return subID, nil
	},
)

// FundSubscriptionInput is the input of FundSubscriptionOp.
type FundSubscriptionInput struct {
	SubscriptionID uint64   `json:"subscriptionId"`
	Amount         *big.Int `json:"amount"`
}

// FundSubscriptionOp funds a subscription on a VRF coordinator and returns the funding
// transaction hash.
var FundSubscriptionOp = operations.NewOperation(
	"fund-subscription",
	semver.MustParse("1.0.0"),
	"Funds a VRF subscription on the coordinator",
	func(b operations.Bundle, coordinator Contract, in FundSubscriptionInput) (string, error) {
		if in.Amount == nil || in.Amount.Sign() <= 0 {
			return "", errors.New("fund amount must be positive")
		}

		ctx := b.GetContext()
		tx, err := coordinator.Transact(ctx, "fundSubscription", in.SubscriptionID, in.Amount)
		if err != nil {
			return "", err
		}
		if _, err = coordinator.Confirm(ctx, tx, 1); err != nil {
			return "", err
		}

		b.Logger.Infow("Subscription funded", "subscriptionId", in.SubscriptionID, "amount", in.Amount.String())

		return tx.Hash().Hex(), nil
	},
)

// SetupSubscriptionInput is the input of SetupSubscriptionSeq.
type SetupSubscriptionInput struct {
	FundAmount *big.Int `json:"fundAmount"`
}

// SetupSubscriptionSeq creates a subscription on a VRF coordinator and funds it. It returns the
// subscription id.
var SetupSubscriptionSeq = operations.NewSequence(
	"setup-subscription",
	semver.MustParse("1.0.0"),
	"Creates and funds a VRF subscription",
	func(b operations.Bundle, coordinator Contract, in SetupSubscriptionInput) (uint64, error) {
		created, err := operations.ExecuteOperation(b, CreateSubscriptionOp, coordinator, operations.EmptyInput{})
		if err != nil {
			return 0, collaboratorError("create subscription", err)
		}
		subID := created.Output

		_, err = operations.ExecuteOperation(b, FundSubscriptionOp, coordinator,
			FundSubscriptionInput{SubscriptionID: subID, Amount: in.FundAmount})
		if err != nil {
			return 0, collaboratorError(fmt.Sprintf("fund subscription %d", subID), err)
		}

		return subID, nil
	},
)
