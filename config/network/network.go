// Package network describes the named networks a deployment can target, mirroring the networks
// section of a Hardhat configuration.
package network

import (
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"
	chainsel "github.com/smartcontractkit/chain-selectors"
)

const (
	Hardhat   = "hardhat"
	Localhost = "localhost"
	Sepolia   = "sepolia"
	Mainnet   = "mainnet"
	Fuji      = "fuji"
)

// EphemeralChainID is the chain id of the local development chain, both in-process and on a
// local node.
const EphemeralChainID uint64 = 31337

// DevelopmentChains are the networks on which contract verification is never attempted.
var DevelopmentChains = []string{Hardhat, Localhost}

// defaultNamedAccounts maps account names to their derivation index, or their position in the
// configured key list.
var defaultNamedAccounts = map[string]uint32{
	"deployer": 0,
	"player":   1,
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Network represents a network configuration.
type Network struct {
	Name    string `yaml:"name" validate:"required"`
	ChainID uint64 `yaml:"chain_id" validate:"required"`
	// URL is a literal RPC endpoint. It takes precedence over URLEnv.
	URL string `yaml:"url,omitempty" validate:"omitempty,url"`
	// URLEnv names the environment variable holding the RPC endpoint.
	URLEnv string `yaml:"url_env,omitempty"`
	// SaveDeployments persists deployed artifacts across runs.
	SaveDeployments bool `yaml:"save_deployments"`
	// NamedAccounts overrides the default account indexes (deployer 0, player 1).
	NamedAccounts map[string]uint32 `yaml:"named_accounts,omitempty"`
}

// Validate validates the network configuration to ensure that all required fields are set.
func (n Network) Validate() error {
	if err := validate.Struct(n); err != nil {
		return fmt.Errorf("network %q: %w", n.Name, err)
	}

	return nil
}

// InProcess reports whether the network is served by an in-process simulated chain rather than
// an RPC endpoint.
func (n Network) InProcess() bool {
	return n.URL == "" && n.URLEnv == ""
}

// IsDevelopment reports whether the network is a local development network.
func (n Network) IsDevelopment() bool {
	return slices.Contains(DevelopmentChains, n.Name)
}

// IsEphemeral reports whether the network is the local development chain, on which mocks are
// deployed instead of using live coordinators.
func (n Network) IsEphemeral() bool {
	return n.ChainID == EphemeralChainID
}

// Accounts returns the named accounts with their indexes.
func (n Network) Accounts() map[string]uint32 {
	if len(n.NamedAccounts) > 0 {
		return n.NamedAccounts
	}

	return defaultNamedAccounts
}

// DisplayName returns the chain-selectors name of the network's chain, falling back to the
// network name.
func (n Network) DisplayName() string {
	name, err := chainsel.NameFromChainId(n.ChainID)
	if err != nil || name == "" {
		return n.Name
	}

	return name
}
