package deploy

import (
	"github.com/raffle-labs/raffle-deployments/chain/evm"
	"github.com/raffle-labs/raffle-deployments/config/network"
	"github.com/raffle-labs/raffle-deployments/datastore"
	"github.com/raffle-labs/raffle-deployments/operations"
)

// MockCoordinatorContract is the local stand-in for the VRF coordinator.
const MockCoordinatorContract = "VRFCoordinatorV2Mock"

const (
	// MockBaseFee is the flat LINK premium of a randomness request, 0.25 LINK.
	MockBaseFee = "250000000000000000"
	// MockGasPriceLink is the LINK price of a unit of gas, 1e9.
	MockGasPriceLink = "1000000000"
)

// MocksStep deploys the mock coordinator on the local chain.
var MocksStep = Step{
	Name: "deploy-mocks",
	Tags: []string{TagAll, TagMocks},
	Func: func(env Environment) error {
		_, err := DeployMocks(env)
		return err
	},
}

// MockArgs returns the constructor arguments of the mock coordinator.
func MockArgs() []string {
	return []string{MockBaseFee, MockGasPriceLink}
}

// DeployMocks deploys the mock coordinator when the chain is the local development chain and
// does nothing on any other chain. It returns nil without an error when nothing was deployed.
func DeployMocks(env Environment) (*datastore.DeployedArtifact, error) {
	chainID, err := env.resolveChainID()
	if err != nil {
		return nil, err
	}
	if chainID != network.EphemeralChainID {
		return nil, nil //nolint:nilnil // nothing to deploy on a live chain
	}

	lggr := env.Logger.Named("mocks")
	lggr.Info("Local network detected! Deploying mocks...")

	report, err := operations.ExecuteOperation(env.OperationsBundle, DeployContractOp, env.Deployer,
		DeployContractInput{
			Name: MockCoordinatorContract,
			Options: DeployOptions{
				From:              evm.AccountDeployer,
				Args:              MockArgs(),
				Log:               true,
				WaitConfirmations: 1,
			},
		},
	)
	if err != nil {
		return nil, collaboratorError("deploy "+MockCoordinatorContract, err)
	}

	lggr.Info("Mocks Deployed!")
	lggr.Info("----------------------------------")
	lggr.Info("You are deploying to a local network, you'll need a local network running to interact")
	lggr.Info("Please run `raffle-deploy deploy --network localhost` against a running node to interact with the deployed contracts!")
	lggr.Info("----------------------------------")

	return &report.Output, nil
}
