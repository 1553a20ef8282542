// Package config aggregates the configuration a deployment run needs: the networks, the
// per-chain raffle parameters and the process environment.
package config

import (
	"errors"
	"fmt"

	"github.com/raffle-labs/raffle-deployments/config/chain"
	"github.com/raffle-labs/raffle-deployments/config/env"
	"github.com/raffle-labs/raffle-deployments/config/network"
	"github.com/raffle-labs/raffle-deployments/pkg/logger"
)

// Files names the optional configuration files. Empty paths are skipped and the built-in
// defaults are used.
type Files struct {
	// Networks is a YAML manifest merged over the default networks.
	Networks string
	// Chains is a YAML chain configuration merged over the default chain table.
	Chains string
	// Dotenv is a .env file providing environment variables the process does not set.
	Dotenv string
}

// Config aggregates all configuration required to deploy the raffle.
type Config struct {
	// Networks contains the named networks a deployment can target.
	Networks *network.Config

	// Chains holds the raffle parameters of every known chain, keyed by chain id.
	Chains chain.Table

	// Env contains RPC endpoints, signer secrets and API keys.
	//
	// WARNING: it contains sensitive data and must not be logged.
	Env *env.Config
}

// Load loads and consolidates the network, chain and environment configuration.
func Load(files Files, lggr logger.Logger) (*Config, error) {
	networks, err := network.Load(nonEmpty(files.Networks)...)
	if err != nil {
		return nil, fmt.Errorf("failed to load networks: %w", err)
	}

	chains, err := chain.Load(nonEmpty(files.Chains)...)
	if err != nil {
		return nil, fmt.Errorf("failed to load chain config: %w", err)
	}

	envCfg, err := env.Load(files.Dotenv)
	if err != nil {
		return nil, fmt.Errorf("failed to load env config: %w", err)
	}

	lggr.Debugw("Loaded config",
		"networks", networks.Names(),
		"chains", chains.ChainIDs(),
	)

	return &Config{
		Networks: networks,
		Chains:   chains,
		Env:      envCfg,
	}, nil
}

// Network returns the named network.
func (c *Config) Network(name string) (network.Network, error) {
	return c.Networks.NetworkByName(name)
}

// Validate reports every configuration problem that would stop a deployment to net: missing
// environment values and missing or malformed chain parameters. All problems are reported at
// once.
func (c *Config) Validate(net network.Network) error {
	errs := []error{c.Env.Require(net)}

	row, err := c.Chains.Lookup(net.ChainID)
	if err != nil {
		errs = append(errs, err)
	} else {
		errs = append(errs, row.Validate(net.IsEphemeral()))
	}

	return errors.Join(errs...)
}

func nonEmpty(paths ...string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}
