// Package deployments provides CLI commands for the deployments saved per network.
package deployments

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/raffle-labs/raffle-deployments/datastore"
	engcfg "github.com/raffle-labs/raffle-deployments/engine/config"
	"github.com/raffle-labs/raffle-deployments/engine/environment"
	"github.com/raffle-labs/raffle-deployments/pkg/commands/flags"
	"github.com/raffle-labs/raffle-deployments/pkg/commands/text"
	"github.com/raffle-labs/raffle-deployments/pkg/logger"
)

var (
	listShort = "List the saved deployments of a network"

	listLong = text.LongDesc(`
		Prints the contracts recorded in the deployments directory of a network, with their
		address, deploy transaction and constructor arguments. Networks that do not save their
		deployments have nothing to list.
	`)

	listExample = text.Examples(`
		# List the contracts deployed to sepolia
		raffle-deploy deployments list --network sepolia
	`)
)

// ConfigLoaderFunc loads the configuration from the given files.
type ConfigLoaderFunc func(files engcfg.Files, lggr logger.Logger) (*engcfg.Config, error)

// Config holds the configuration for the deployments commands.
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
		return errors.New("deployments.Config: missing required fields: Logger")
	}

	return nil
}

// NewCommand creates the deployments command with all subcommands.
func NewCommand(cfg Config) (*cobra.Command, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.ConfigLoader == nil {
		cfg.ConfigLoader = engcfg.Load
	}

	cmd := &cobra.Command{
		Use:   "deployments",
		Short: "Saved deployments commands",
	}

	cmd.AddCommand(newListCmd(cfg))

	return cmd, nil
}

func newListCmd(cfg Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Short:   listShort,
		Long:    listLong,
		Example: listExample,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(cmd, cfg,
				flags.MustString(cmd.Flags().GetString("network")),
				flags.MustString(cmd.Flags().GetString("deployments")),
			)
		},
	}

	flags.Network(cmd)
	flags.ConfigFiles(cmd)
	flags.Deployments(cmd, environment.DefaultDeploymentsDir)

	return cmd
}

func runList(cmd *cobra.Command, cfg Config, networkName, dir string) error {
	c, err := cfg.ConfigLoader(flags.ReadConfigFiles(cmd), cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	net, err := c.Network(networkName)
	if err != nil {
		return err
	}

	store, err := datastore.NewFileArtifactStore(filepath.Join(dir, net.Name), net.ChainID)
	if err != nil {
		return err
	}

	artifacts, err := store.Fetch()
	if err != nil {
		return fmt.Errorf("failed to read deployments of network %s: %w", net.Name, err)
	}

	if len(artifacts) == 0 {
		cmd.Printf("No deployments saved for network %s\n", net.Name)
		return nil
	}

	data := make([][]string, 0, len(artifacts))
	for _, a := range artifacts {
		data = append(data, []string{
			a.Name,
			a.Address,
			a.TransactionHash,
			strconv.FormatUint(a.Receipt.BlockNumber, 10),
			strings.Join(a.Args, ", "),
		})
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Name", "Address", "Transaction", "Block", "Args"})
	table.AppendBulk(data)
	table.Render()

	return nil
}
