package deploy

import (
	"errors"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/params"

	"github.com/raffle-labs/raffle-deployments/chain/evm"
	"github.com/raffle-labs/raffle-deployments/config"
	"github.com/raffle-labs/raffle-deployments/config/chain"
	"github.com/raffle-labs/raffle-deployments/config/network"
	"github.com/raffle-labs/raffle-deployments/contracts"
	"github.com/raffle-labs/raffle-deployments/datastore"
	"github.com/raffle-labs/raffle-deployments/operations"
	"github.com/raffle-labs/raffle-deployments/verify"
)

// RaffleContract is the lottery contract.
const RaffleContract = "Raffle"

// VerificationBlockConfirmations is the number of confirmations a deployment waits for before
// its source is submitted for verification.
const VerificationBlockConfirmations = 6

// DefaultFundAmount returns the amount a local subscription is funded with, 2 LINK.
func DefaultFundAmount() *big.Int {
	return new(big.Int).Mul(big.NewInt(2), big.NewInt(params.Ether))
}

// RaffleStep deploys the raffle.
var RaffleStep = Step{
	Name: "deploy-raffle",
	Tags: []string{TagAll, TagRaffle},
	Func: func(env Environment) error {
		_, err := DeployRaffle(env)
		return err
	},
}

// staticFields are the fields every chain configures. The coordinator and the subscription are
// produced by the mock on the local chain.
var staticFields = []chain.Field{
	chain.FieldEntranceFee,
	chain.FieldGasLane,
	chain.FieldCallbackGasLimit,
	chain.FieldUpdateInterval,
}

// DeployRaffle deploys the raffle. On the local chain the coordinator is the mock, and a new
// subscription is created and funded on every call. On other chains the coordinator and the
// subscription come from the chain configuration.
//
// Configuration errors are reported before any transaction is sent. A failed verification is
// logged and does not fail the deployment.
func DeployRaffle(env Environment) (*datastore.DeployedArtifact, error) {
	chainID, err := env.resolveChainID()
	if err != nil {
		return nil, err
	}

	row, err := env.ChainConfig.Lookup(chainID)
	if err != nil {
		return nil, err
	}
	for _, f := range staticFields {
		if _, err = row.Check(f); err != nil {
			return nil, err
		}
	}

	lggr := env.Logger.Named("raffle")

	if chainID == network.EphemeralChainID {
		coordinator, subID, serr := setupMockSubscription(env)
		if serr != nil {
			return nil, serr
		}
		row.VRFCoordinatorV2 = coordinator
		row.SubscriptionID = strconv.FormatUint(subID, 10)
	} else {
		for _, f := range []chain.Field{chain.FieldCoordinator, chain.FieldSubscriptionID} {
			if _, err = row.Check(f); err != nil {
				return nil, err
			}
		}
	}

	args, err := newConstructorArgs(row)
	if err != nil {
		return nil, err
	}
	if err = checkRaffleABI(env.Deployer, args); err != nil {
		return nil, err
	}

	lggr.Debugw("Deploying raffle", "args", args.List())
	report, err := operations.ExecuteOperation(env.OperationsBundle, DeployContractOp, env.Deployer,
		DeployContractInput{
			Name: RaffleContract,
			Options: DeployOptions{
				From:              evm.AccountDeployer,
				Args:              args.List(),
				Log:               true,
				WaitConfirmations: 1,
			},
		},
	)
	if err != nil {
		return nil, collaboratorError("deploy "+RaffleContract, err)
	}
	artifact := report.Output

	if !env.Network.IsDevelopment() && env.Verifier != nil {
		if verr := verifyRaffle(env, artifact, args); verr != nil {
			lggr.Warnw("Verification failed, the deployment is kept", "address", artifact.Address, "err", verr)
		}
	}

	lggr.Infow("Raffle deployed", "chain", env.Network.DisplayName(), "address", artifact.Address)

	return &artifact, nil
}

// setupMockSubscription makes sure the mock coordinator is deployed, then creates and funds a
// subscription on it. It returns the coordinator address and the subscription id.
func setupMockSubscription(env Environment) (string, uint64, error) {
	mock, err := env.Deployer.Get(MockCoordinatorContract)
	if errors.Is(err, datastore.ErrArtifactNotFound) && env.Fixture != nil {
		if err = env.Fixture(TagMocks); err != nil {
			return "", 0, err
		}
		mock, err = env.Deployer.Get(MockCoordinatorContract)
	}
	if err != nil {
		return "", 0, collaboratorError("get "+MockCoordinatorContract, err)
	}

	coordinator, err := env.Deployer.ContractAt(mock.ABI, mock.Address)
	if err != nil {
		return "", 0, collaboratorError("get "+MockCoordinatorContract+" handle", err)
	}

	report, err := operations.ExecuteSequence(env.OperationsBundle, SetupSubscriptionSeq, coordinator,
		SetupSubscriptionInput{FundAmount: env.fundAmount()})
	if err != nil {
		return "", 0, collaboratorError("setup subscription", err)
	}
	subID := report.Output

	return mock.Address, subID, nil
}

// checkRaffleABI checks the arguments against the compiled Raffle constructor when its ABI is
// available.
func checkRaffleABI(deployer Deployer, args ConstructorArgs) error {
	raffleABI, err := deployer.ABI(RaffleContract)
	if errors.Is(err, contracts.ErrArtifactNotFound) {
		return nil
	}
	if err != nil {
		return collaboratorError("load "+RaffleContract+" abi", err)
	}

	if err = args.CheckABI(raffleABI); err != nil {
		return config.NewConfigurationError("constructor arguments", "%v", err)
	}

	return nil
}

// verifyRaffle waits for the deployment to be buried deep enough and submits the raffle source.
func verifyRaffle(env Environment, artifact datastore.DeployedArtifact, args ConstructorArgs) error {
	ctx := env.ctx()

	if err := env.Deployer.WaitConfirmations(ctx, artifact, VerificationBlockConfirmations); err != nil {
		return &VerificationError{Address: artifact.Address, Err: err}
	}

	err := env.Verifier.Verify(ctx, verify.Request{
		Address:         artifact.Address,
		ContractName:    RaffleContract,
		ConstructorArgs: args.List(),
	})
	if err != nil {
		return &VerificationError{Address: artifact.Address, Err: err}
	}

	return nil
}
