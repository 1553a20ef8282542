package network

import (
	"cmp"
	"fmt"
	"maps"
	"os"
	"slices"

	chainsel "github.com/smartcontractkit/chain-selectors"
	"gopkg.in/yaml.v3"
)

// Manifest is the YAML representation of network configuration.
type Manifest struct {
	Networks []Network `yaml:"networks"`
}

// Config represents the configuration of a collection of networks, keyed by name.
type Config struct {
	networks map[string]Network
}

// NewConfig creates a new config from a slice of networks. Any duplicate names will be
// overwritten.
func NewConfig(networks []Network) *Config {
	nmap := make(map[string]Network, len(networks))
	for _, network := range networks {
		nmap[network.Name] = network
	}

	return &Config{networks: nmap}
}

// Defaults returns the built-in networks: the in-process hardhat network, a local node and the
// live networks whose RPC endpoints come from the environment.
func Defaults() *Config {
	return NewConfig([]Network{
		{Name: Hardhat, ChainID: EphemeralChainID},
		{Name: Localhost, ChainID: EphemeralChainID, URL: "http://127.0.0.1:8545"},
		{
			Name:            Sepolia,
			ChainID:         chainsel.ETHEREUM_TESTNET_SEPOLIA.EvmChainID,
			URLEnv:          "SEPOLIA_RPC_URL",
			SaveDeployments: true,
		},
		{
			Name:            Mainnet,
			ChainID:         chainsel.ETHEREUM_MAINNET.EvmChainID,
			URLEnv:          "MAINNET_RPC_URL",
			SaveDeployments: true,
		},
		{
			Name:            Fuji,
			ChainID:         chainsel.AVALANCHE_TESTNET_FUJI.EvmChainID,
			URLEnv:          "AVALANCHE_FUJI_RPC_URL",
			SaveDeployments: true,
		},
	})
}

// Validate ensures that all networks are valid.
func (c *Config) Validate() error {
	for _, network := range c.Networks() {
		if err := network.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// Networks returns all networks in the config, sorted by name.
func (c *Config) Networks() []Network {
	return slices.SortedFunc(maps.Values(c.networks), func(a, b Network) int {
		return cmp.Compare(a.Name, b.Name)
	})
}

// Names returns the sorted names of all networks.
func (c *Config) Names() []string {
	return slices.Sorted(maps.Keys(c.networks))
}

// NetworkByName retrieves a network by its name. If the network is not found, an error is
// returned.
func (c *Config) NetworkByName(name string) (Network, error) {
	network, ok := c.networks[name]
	if !ok {
		return Network{}, fmt.Errorf("network %q not found in configuration, known networks: %v",
			name, c.Names(),
		)
	}

	return network, nil
}

// Merge merges another config into the current config.
// It overwrites any networks with the same name.
func (c *Config) Merge(other *Config) {
	maps.Copy(c.networks, other.networks)
}

// MarshalYAML implements the yaml.Marshaler interface for the Config struct.
func (c *Config) MarshalYAML() (any, error) {
	return Manifest{Networks: c.Networks()}, nil
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for the Config struct.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	node := Manifest{}
	if err := value.Decode(&node); err != nil {
		return err
	}

	*c = *NewConfig(node.Networks)

	return nil
}

// NetworkFilter defines a function type that filters networks based on certain criteria.
type NetworkFilter func(Network) bool

// FilterWith returns a new Config containing only Networks that pass all provided filter
// functions.
func (c *Config) FilterWith(filters ...NetworkFilter) *Config {
	networks := c.Networks()
	for _, filter := range filters {
		networks = slices.DeleteFunc(networks, func(network Network) bool {
			return !filter(network)
		})
	}

	return NewConfig(networks)
}

// LiveFilter matches networks that are not development networks.
func LiveFilter() NetworkFilter {
	return func(network Network) bool {
		return !network.IsDevelopment()
	}
}

// ChainIDFilter matches networks with the specified chain id.
func ChainIDFilter(chainID uint64) NetworkFilter {
	return func(network Network) bool {
		return network.ChainID == chainID
	}
}

// Load starts from the default networks and merges the networks of every manifest file over
// them.
func Load(filePaths ...string) (*Config, error) {
	cfg := Defaults()

	for _, fp := range filePaths {
		data, err := os.ReadFile(fp)
		if err != nil {
			return nil, fmt.Errorf("failed to read networks file: %w", err)
		}

		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal networks YAML: %w", err)
		}

		cfg.Merge(&fileCfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate networks configuration: %w", err)
	}

	return cfg, nil
}
