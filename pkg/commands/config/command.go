// Package config provides CLI commands that inspect the deployment configuration.
package config

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	cfgerrors "github.com/raffle-labs/raffle-deployments/config"
	"github.com/raffle-labs/raffle-deployments/config/network"
	engcfg "github.com/raffle-labs/raffle-deployments/engine/config"
	"github.com/raffle-labs/raffle-deployments/pkg/commands/flags"
	"github.com/raffle-labs/raffle-deployments/pkg/commands/text"
	"github.com/raffle-labs/raffle-deployments/pkg/logger"
)

// ConfigLoaderFunc loads the configuration from the given files.
type ConfigLoaderFunc func(files engcfg.Files, lggr logger.Logger) (*engcfg.Config, error)

// Config holds the configuration for the config commands.
type Config struct {
	// Logger is the logger to use for command output. Required.
	Logger logger.Logger

	// ConfigLoader loads the configuration.
	// Default: config.Load
	ConfigLoader ConfigLoaderFunc
}

// Validate checks that all required configuration fields are set.
func (c Config) Validate() error {
	if c.Logger == nil {
		return errors.New("config.Config: missing required fields: Logger")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.ConfigLoader == nil {
		c.ConfigLoader = engcfg.Load
	}
}

var (
	validateShort = "Validate the configuration of a network"

	validateLong = text.LongDesc(`
		Loads the environment variables and the chain configuration and reports every value
		that is missing or malformed for a deployment to the network. Nothing is sent to the
		network.
	`)

	validateExample = text.Examples(`
		# Check that sepolia can be deployed to
		raffle-deploy config validate --network sepolia
	`)
)

// NewCommand creates the config command with all subcommands.
func NewCommand(cfg Config) (*cobra.Command, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration commands",
	}

	cmd.AddCommand(newValidateCmd(cfg))

	return cmd, nil
}

func newValidateCmd(cfg Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "validate",
		Short:   validateShort,
		Long:    validateLong,
		Example: validateExample,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd, cfg, flags.MustString(cmd.Flags().GetString("network")))
		},
	}

	flags.Network(cmd)
	flags.ConfigFiles(cmd)

	return cmd
}

func runValidate(cmd *cobra.Command, cfg Config, networkName string) error {
	c, err := cfg.ConfigLoader(flags.ReadConfigFiles(cmd), cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	net, err := c.Network(networkName)
	if err != nil {
		return err
	}

	if err = c.Validate(net); err != nil {
		for _, cerr := range configurationErrors(err) {
			cmd.Printf("%s%s\n", text.Indentation, cerr.Error())
		}

		return fmt.Errorf("configuration of network %s is invalid", net.Name)
	}

	cmd.Printf("Configuration of network %s is valid\n", net.Name)

	return nil
}

// configurationErrors flattens a joined error into its configuration errors.
func configurationErrors(err error) []*cfgerrors.ConfigurationError {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []*cfgerrors.ConfigurationError
		for _, e := range joined.Unwrap() {
			out = append(out, configurationErrors(e)...)
		}

		return out
	}

	var cerr *cfgerrors.ConfigurationError
	if errors.As(err, &cerr) {
		return []*cfgerrors.ConfigurationError{cerr}
	}

	return []*cfgerrors.ConfigurationError{cfgerrors.NewConfigurationError("", "%s", err.Error())}
}

var (
	networksShort = "List the configured networks"

	networksExample = text.Examples(`
		# List the built-in networks and the ones of a manifest
		raffle-deploy networks --networks-config networks.yaml
	`)
)

// NewNetworksCommand creates the networks command.
func NewNetworksCommand(cfg Config) (*cobra.Command, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	cmd := &cobra.Command{
		Use:     "networks",
		Short:   networksShort,
		Example: networksExample,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := cfg.ConfigLoader(flags.ReadConfigFiles(cmd), cfg.Logger)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			printNetworks(cmd, c.Networks.Networks())

			return nil
		},
	}

	flags.ConfigFiles(cmd)

	return cmd, nil
}

func printNetworks(cmd *cobra.Command, networks []network.Network) {
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Name", "Chain ID", "Chain", "Endpoint", "Save Deployments"})
	for _, n := range networks {
		endpoint := n.URL
		switch {
		case n.InProcess():
			endpoint = "in-process"
		case endpoint == "":
			endpoint = "$" + n.URLEnv
		}

		table.Append([]string{
			n.Name,
			strconv.FormatUint(n.ChainID, 10),
			n.DisplayName(),
			endpoint,
			strconv.FormatBool(n.SaveDeployments),
		})
	}
	table.Render()
}
