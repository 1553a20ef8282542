package chain

import (
	"fmt"
	"maps"
	"os"
	"slices"

	chainsel "github.com/smartcontractkit/chain-selectors"
	"gopkg.in/yaml.v3"

	"github.com/raffle-labs/raffle-deployments/config"
)

const (
	defaultGasLane          = "0x474e34a077df58807dbe9c96d3c009b23b3c6d0cce433e59bbf5b34f823bc56c" // 30 gwei
	defaultUpdateInterval   = "30"
	defaultEntranceFee      = "0x2386f26fc10000" // 0.01 ETH
	defaultCallbackGasLimit = "500000"
	defaultSubscriptionID   = "8368"
)

// Table is the chain configuration keyed by EVM chain id.
type Table map[uint64]Row

// Manifest is the YAML representation of a Table.
type Manifest struct {
	Chains Table `yaml:"chains"`
}

// Defaults returns the built-in chain configuration.
func Defaults() Table {
	return Table{
		31337: {
			Name:                  "localhost",
			SubscriptionID:        defaultSubscriptionID,
			GasLane:               defaultGasLane,
			KeepersUpdateInterval: defaultUpdateInterval,
			RaffleEntranceFee:     defaultEntranceFee,
			CallbackGasLimit:      defaultCallbackGasLimit,
		},
		chainsel.ETHEREUM_TESTNET_SEPOLIA.EvmChainID: {
			Name:                  "sepolia",
			SubscriptionID:        defaultSubscriptionID,
			GasLane:               defaultGasLane,
			KeepersUpdateInterval: defaultUpdateInterval,
			RaffleEntranceFee:     defaultEntranceFee,
			CallbackGasLimit:      defaultCallbackGasLimit,
			VRFCoordinatorV2:      "0x8103B0A8A00be2DDC778e6e7eaa21791Cd364625",
		},
		chainsel.AVALANCHE_TESTNET_FUJI.EvmChainID: {
			Name:                  "fuji",
			SubscriptionID:        defaultSubscriptionID,
			GasLane:               defaultGasLane,
			KeepersUpdateInterval: defaultUpdateInterval,
			RaffleEntranceFee:     defaultEntranceFee,
			CallbackGasLimit:      defaultCallbackGasLimit,
			VRFCoordinatorV2:      "0x2eD832Ba664535e5886b75D64C46EB9a228C2610",
		},
		chainsel.ETHEREUM_MAINNET.EvmChainID: {
			Name:                  "mainnet",
			KeepersUpdateInterval: defaultUpdateInterval,
		},
	}
}

// Lookup returns the row of a chain, or a ConfigurationError when the chain has none.
func (t Table) Lookup(chainID uint64) (Row, error) {
	row, ok := t[chainID]
	if !ok {
		return Row{}, config.NewConfigurationError("chain config",
			"no configuration for chain id %d", chainID,
		)
	}

	return row, nil
}

// ChainIDs returns the sorted chain ids of the table.
func (t Table) ChainIDs() []uint64 {
	return slices.Sorted(maps.Keys(t))
}

// Merge applies other over t. Rows of new chains are added; for known chains only the
// non-empty fields of other override.
func (t Table) Merge(other Table) {
	for id, row := range other {
		t[id] = t[id].merge(row)
	}
}

// Load starts from the default table and merges the chains of every YAML file over it.
func Load(filePaths ...string) (Table, error) {
	table := Defaults()

	for _, fp := range filePaths {
		data, err := os.ReadFile(fp)
		if err != nil {
			return nil, fmt.Errorf("failed to read chain config file: %w", err)
		}

		var m Manifest
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to unmarshal chain config YAML: %w", err)
		}

		table.Merge(m.Chains)
	}

	return table, nil
}
