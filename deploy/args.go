package deploy

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"github.com/raffle-labs/raffle-deployments/config/chain"
	"github.com/raffle-labs/raffle-deployments/contracts"
)

// ConstructorArgs are the Raffle constructor arguments, kept in the textual form they are
// configured in.
type ConstructorArgs struct {
	Coordinator      string
	EntranceFee      string
	GasLane          string
	SubscriptionID   string
	CallbackGasLimit string
	UpdateInterval   string
}

// raffleConstructorTypes are the Raffle constructor input types, in order.
var raffleConstructorTypes = []string{"address", "uint256", "bytes32", "uint64", "uint32", "uint256"}

// List returns the six arguments in constructor order:
// coordinator, entrance fee, gas lane, subscription id, callback gas limit, update interval.
func (a ConstructorArgs) List() []string {
	return []string{
		a.Coordinator,
		a.EntranceFee,
		a.GasLane,
		a.SubscriptionID,
		a.CallbackGasLimit,
		a.UpdateInterval,
	}
}

// CheckABI verifies that the contract constructor takes the arguments List returns, by count
// and type.
func (a ConstructorArgs) CheckABI(contractABI abi.ABI) error {
	inputs := contractABI.Constructor.Inputs
	if len(inputs) != len(raffleConstructorTypes) {
		return fmt.Errorf("constructor takes %d arguments, expected %d", len(inputs), len(raffleConstructorTypes))
	}

	var errs []error
	for i, in := range inputs {
		if got := in.Type.String(); got != raffleConstructorTypes[i] {
			errs = append(errs, fmt.Errorf("constructor argument %d (%s) is %s, expected %s",
				i, in.Name, got, raffleConstructorTypes[i]))
		}
	}

	return errors.Join(errs...)
}

// Pack checks the arguments against the constructor and converts them to their ABI types.
func (a ConstructorArgs) Pack(contractABI abi.ABI) ([]any, error) {
	if err := a.CheckABI(contractABI); err != nil {
		return nil, err
	}

	return contracts.ConvertArgs(contractABI.Constructor.Inputs, a.List())
}

// newConstructorArgs assembles the arguments from a chain row. Every value is required.
func newConstructorArgs(row chain.Row) (ConstructorArgs, error) {
	values := make(map[chain.Field]string, len(chain.RequiredFields))
	for _, f := range chain.RequiredFields {
		v, err := row.Require(f)
		if err != nil {
			return ConstructorArgs{}, err
		}
		values[f] = v
	}

	return ConstructorArgs{
		Coordinator:      values[chain.FieldCoordinator],
		EntranceFee:      values[chain.FieldEntranceFee],
		GasLane:          values[chain.FieldGasLane],
		SubscriptionID:   values[chain.FieldSubscriptionID],
		CallbackGasLimit: values[chain.FieldCallbackGasLimit],
		UpdateInterval:   values[chain.FieldUpdateInterval],
	}, nil
}
