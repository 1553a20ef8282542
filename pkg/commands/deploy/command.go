package deploy

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	fdeploy "github.com/raffle-labs/raffle-deployments/deploy"
	"github.com/raffle-labs/raffle-deployments/engine/environment"
	"github.com/raffle-labs/raffle-deployments/operations"
	"github.com/raffle-labs/raffle-deployments/pkg/commands/flags"
	"github.com/raffle-labs/raffle-deployments/pkg/commands/text"
	"github.com/raffle-labs/raffle-deployments/pkg/logger"
)

var (
	deployShort = "Deploy the raffle contracts"

	deployLong = text.LongDesc(`
		Runs the deployment steps against a network.

		On the local development chain the VRF coordinator mock is deployed first, and a new
		subscription is created and funded for the raffle. On live networks the coordinator and
		the subscription come from the chain configuration. When an Etherscan API key is set,
		the raffle is verified on every network that is not a development network.

		Without --tags every step runs. Otherwise only the steps carrying one of the tags run,
		together with the steps they depend on.
	`)

	deployExample = text.Examples(`
		# Deploy everything to the in-process development chain
		raffle-deploy deploy --network hardhat

		# Deploy only the mocks to a local node
		raffle-deploy deploy --network localhost --tags mocks

		# Deploy the raffle to sepolia with a custom chain configuration
		raffle-deploy deploy --network sepolia --tags Raffle --config chains.yaml
	`)
)

// Config holds the configuration for the deploy command.
type Config struct {
	// Logger is the logger to use for command output. Required.
	Logger logger.Logger

	// Registry holds the deployment steps.
	// Default: deploy.DefaultRegistry()
	Registry *fdeploy.Registry

	// Deps holds optional dependencies that can be overridden.
	// If fields are nil, production defaults are used.
	Deps Deps
}

// Validate checks that all required configuration fields are set.
func (c Config) Validate() error {
	if c.Logger == nil {
		return errors.New("deploy.Config: missing required fields: Logger")
	}

	return nil
}

type deployFlags struct {
	network     string
	tags        []string
	artifacts   string
	deployments string
	fundAmount  string
	report      string
}

// NewCommand creates the deploy command.
func NewCommand(cfg Config) (*cobra.Command, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Deps.applyDefaults()
	if cfg.Registry == nil {
		cfg.Registry = fdeploy.DefaultRegistry()
	}

	cmd := &cobra.Command{
		Use:     "deploy",
		Short:   deployShort,
		Long:    deployLong,
		Example: deployExample,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := deployFlags{
				network:     flags.MustString(cmd.Flags().GetString("network")),
				tags:        flags.MustStringSlice(cmd.Flags().GetStringSlice("tags")),
				artifacts:   flags.MustString(cmd.Flags().GetString("artifacts")),
				deployments: flags.MustString(cmd.Flags().GetString("deployments")),
				fundAmount:  flags.MustString(cmd.Flags().GetString("fund-amount")),
				report:      flags.MustString(cmd.Flags().GetString("report")),
			}

			return runDeploy(cmd, cfg, f)
		},
	}

	// Shared flags
	flags.Network(cmd)
	flags.ConfigFiles(cmd)
	flags.Deployments(cmd, environment.DefaultDeploymentsDir)

	// Local flags specific to this command
	cmd.Flags().StringSliceP("tags", "t", nil, "Only run the steps carrying one of these tags, e.g. mocks,Raffle")
	cmd.Flags().String("artifacts", environment.DefaultArtifactsDir, "Directory of the compiled contract artifacts")
	cmd.Flags().String("fund-amount", "", "Amount in wei a new local subscription is funded with (default 2 LINK)")
	cmd.Flags().String("report", "", "Write the operations report as JSON to this file")

	return cmd, nil
}

// runDeploy executes the deploy command logic.
func runDeploy(cmd *cobra.Command, cfg Config, f deployFlags) error {
	ctx := cmd.Context()

	// --- Load

	opts := []environment.LoadEnvironmentOption{
		environment.WithLogger(cfg.Logger),
		environment.WithConfigFiles(flags.ReadConfigFiles(cmd)),
		environment.WithArtifactsDir(f.artifacts),
		environment.WithDeploymentsDir(f.deployments),
	}
	if f.fundAmount != "" {
		amount, err := parseFundAmount(f.fundAmount)
		if err != nil {
			return err
		}
		opts = append(opts, environment.WithFundAmount(amount))
	}

	env, err := cfg.Deps.EnvironmentLoader(ctx, f.network, opts...)
	if err != nil {
		return fmt.Errorf("failed to load environment for network %s: %w", f.network, err)
	}
	defer func() {
		if cerr := env.Close(); cerr != nil {
			cfg.Logger.Warnw("Failed to close the chain", "error", cerr)
		}
	}()

	// --- Execute

	reporter := operations.NewMemoryReporter()
	runner := fdeploy.NewRunner(cfg.Registry, env.Environment, fdeploy.WithReporter(reporter))
	runErr := runner.Run(ctx, f.tags...)

	if f.report != "" {
		if err = writeReport(cfg, reporter, f.report); err != nil {
			return errors.Join(runErr, err)
		}
	}
	if runErr != nil {
		return fmt.Errorf("deployment to %s failed: %w", f.network, runErr)
	}

	// --- Output

	artifacts, err := env.Artifacts.Fetch()
	if err != nil {
		return fmt.Errorf("failed to list deployments: %w", err)
	}

	cmd.Printf("Deployed to %s (chain %d):\n", f.network, env.ChainID)

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Contract", "Address"})
	for _, a := range artifacts {
		table.Append([]string{a.Name, a.Address})
	}
	table.Render()

	return nil
}

// writeReport writes the operations recorded by the run as JSON.
func writeReport(cfg Config, reporter *operations.MemoryReporter, path string) error {
	w, err := cfg.Deps.ReportWriter(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}

	if err = reporter.WriteJSON(w); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}

	return w.Close()
}

// parseFundAmount parses a positive wei amount, in decimal or 0x-prefixed hex.
func parseFundAmount(s string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(s), 0)
	if !ok || amount.Sign() <= 0 {
		return nil, fmt.Errorf("invalid fund amount %q: must be a positive integer in wei", s)
	}

	return amount, nil
}
