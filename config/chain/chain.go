// Package chain holds the per-chain raffle parameters: the randomness coordinator, the
// subscription, the gas lane and the raffle's own settings, keyed by EVM chain id.
package chain

import (
	"errors"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/raffle-labs/raffle-deployments/config"
)

// Field names a ChainConfig value in words.
type Field string

const (
	FieldEntranceFee      Field = "raffle entrance fee"
	FieldGasLane          Field = "gas lane"
	FieldCallbackGasLimit Field = "callback gas limit"
	FieldUpdateInterval   Field = "keepers update interval"
	FieldCoordinator      Field = "vrf coordinator address"
	FieldSubscriptionID   Field = "subscription id"
)

// RequiredFields lists the fields the raffle deployment checks, in the order it checks them.
var RequiredFields = []Field{
	FieldEntranceFee,
	FieldGasLane,
	FieldCallbackGasLimit,
	FieldUpdateInterval,
	FieldCoordinator,
	FieldSubscriptionID,
}

// Row is the configuration of a single chain. Every value is optional at the type level and
// kept in its textual form until it is parsed for deployment.
type Row struct {
	Name                  string `yaml:"name" json:"name"`
	SubscriptionID        string `yaml:"subscriptionId,omitempty" json:"subscriptionId,omitempty"`
	GasLane               string `yaml:"gasLane,omitempty" json:"gasLane,omitempty"`
	KeepersUpdateInterval string `yaml:"keepersUpdateInterval,omitempty" json:"keepersUpdateInterval,omitempty"`
	RaffleEntranceFee     string `yaml:"raffleEntranceFee,omitempty" json:"raffleEntranceFee,omitempty"`
	CallbackGasLimit      string `yaml:"callbackGasLimit,omitempty" json:"callbackGasLimit,omitempty"`
	VRFCoordinatorV2      string `yaml:"vrfCoordinatorV2,omitempty" json:"vrfCoordinatorV2,omitempty"`
}

// Value returns the raw value of a field.
func (r Row) Value(f Field) string {
	switch f {
	case FieldEntranceFee:
		return r.RaffleEntranceFee
	case FieldGasLane:
		return r.GasLane
	case FieldCallbackGasLimit:
		return r.CallbackGasLimit
	case FieldUpdateInterval:
		return r.KeepersUpdateInterval
	case FieldCoordinator:
		return r.VRFCoordinatorV2
	case FieldSubscriptionID:
		return r.SubscriptionID
	default:
		return ""
	}
}

// Require returns the value of a field, or a ConfigurationError naming it when it is empty.
func (r Row) Require(f Field) (string, error) {
	v := strings.TrimSpace(r.Value(f))
	if v == "" {
		return "", config.MissingError(string(f))
	}

	return v, nil
}

// Check returns the value of a field, or a ConfigurationError naming it when it is empty or
// malformed.
func (r Row) Check(f Field) (string, error) {
	v, err := r.Require(f)
	if err != nil {
		return "", err
	}
	if err = parseCheck(f, v); err != nil {
		return "", err
	}

	return v, nil
}

// Validate reports every missing or malformed field at once. On the ephemeral chain the
// coordinator and the subscription come from the mock, so they are not required.
func (r Row) Validate(ephemeral bool) error {
	var errs []error
	for _, f := range RequiredFields {
		if ephemeral && (f == FieldCoordinator || f == FieldSubscriptionID) {
			continue
		}

		if _, err := r.Check(f); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func parseCheck(f Field, v string) error {
	var err error
	switch f {
	case FieldEntranceFee:
		_, err = ParseEntranceFee(v)
	case FieldGasLane:
		_, err = ParseGasLane(v)
	case FieldCallbackGasLimit:
		_, err = ParseCallbackGasLimit(v)
	case FieldUpdateInterval:
		_, err = ParseUpdateInterval(v)
	case FieldCoordinator:
		_, err = ParseAddress(v)
	case FieldSubscriptionID:
		_, err = ParseSubscriptionID(v)
	}

	return err
}

// merge returns r with every non-empty field of other applied over it.
func (r Row) merge(other Row) Row {
	set := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}

	set(&r.Name, other.Name)
	set(&r.SubscriptionID, other.SubscriptionID)
	set(&r.GasLane, other.GasLane)
	set(&r.KeepersUpdateInterval, other.KeepersUpdateInterval)
	set(&r.RaffleEntranceFee, other.RaffleEntranceFee)
	set(&r.CallbackGasLimit, other.CallbackGasLimit)
	set(&r.VRFCoordinatorV2, other.VRFCoordinatorV2)

	return r
}

// ParseEntranceFee parses an amount of wei given in 0x hex or decimal.
func ParseEntranceFee(s string) (*big.Int, error) {
	return parseUint256(FieldEntranceFee, s)
}

// ParseUpdateInterval parses the upkeep interval in seconds, given in 0x hex or decimal.
func ParseUpdateInterval(s string) (*big.Int, error) {
	return parseUint256(FieldUpdateInterval, s)
}

// ParseGasLane parses the 32 byte key hash of the gas lane.
func ParseGasLane(s string) ([32]byte, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return [32]byte{}, config.NewConfigurationError(string(FieldGasLane), "invalid hex %q: %v", s, err)
	}
	if len(b) != common.HashLength {
		return [32]byte{}, config.NewConfigurationError(string(FieldGasLane),
			"expected %d bytes, got %d", common.HashLength, len(b),
		)
	}

	return common.BytesToHash(b), nil
}

// ParseSubscriptionID parses a coordinator subscription id.
func ParseSubscriptionID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, config.NewConfigurationError(string(FieldSubscriptionID), "invalid uint64 %q", s)
	}

	return id, nil
}

// ParseCallbackGasLimit parses the gas limit of the randomness callback.
func ParseCallbackGasLimit(s string) (uint32, error) {
	limit, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, config.NewConfigurationError(string(FieldCallbackGasLimit), "invalid uint32 %q", s)
	}

	return uint32(limit), nil
}

// ParseAddress parses a hex encoded address.
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, config.NewConfigurationError(string(FieldCoordinator), "invalid address %q", s)
	}

	return common.HexToAddress(s), nil
}

var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

func parseUint256(f Field, s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 0)
	if !ok || n.Sign() < 0 || n.Cmp(maxUint256) > 0 {
		return nil, config.NewConfigurationError(string(f), "invalid uint256 %q", s)
	}

	return n, nil
}
