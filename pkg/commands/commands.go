// Package commands provides the CLI commands of the raffle deployer.
//
// There are two ways to use commands from this package:
//
// 1. Via the Commands factory (recommended for most use cases):
//
//	cmds := commands.New(lggr)
//	root, err := cmds.Root("raffle-deploy")
//	if err != nil {
//	    return err
//	}
//	return root.ExecuteContext(ctx)
//
// 2. Via direct package imports (for advanced DI/testing):
//
//	import "github.com/raffle-labs/raffle-deployments/pkg/commands/deploy"
//
//	cmd, err := deploy.NewCommand(deploy.Config{
//	    Logger:   lggr,
//	    Registry: myRegistry,
//	    Deps:     deploy.Deps{...},  // inject fakes for testing
//	})
package commands

import (
	"github.com/spf13/cobra"

	fdeploy "github.com/raffle-labs/raffle-deployments/deploy"
	"github.com/raffle-labs/raffle-deployments/pkg/commands/config"
	"github.com/raffle-labs/raffle-deployments/pkg/commands/deploy"
	"github.com/raffle-labs/raffle-deployments/pkg/commands/deployments"
	"github.com/raffle-labs/raffle-deployments/pkg/logger"
)

// Commands provides a factory for creating CLI commands with shared configuration.
// This allows setting the logger once and reusing it across all commands.
type Commands struct {
	lggr logger.Logger
}

// New creates a new Commands factory with the given logger.
// The logger will be shared across all commands created by this factory.
func New(lggr logger.Logger) *Commands {
	return &Commands{lggr: lggr}
}

// Deploy creates the deploy command running the steps of registry. A nil registry uses the
// mock and raffle steps.
func (c *Commands) Deploy(registry *fdeploy.Registry) (*cobra.Command, error) {
	return deploy.NewCommand(deploy.Config{
		Logger:   c.lggr,
		Registry: registry,
	})
}

// Config creates the config command group.
func (c *Commands) Config() (*cobra.Command, error) {
	return config.NewCommand(config.Config{Logger: c.lggr})
}

// Networks creates the networks command.
func (c *Commands) Networks() (*cobra.Command, error) {
	return config.NewNetworksCommand(config.Config{Logger: c.lggr})
}

// Deployments creates the deployments command group.
func (c *Commands) Deployments() (*cobra.Command, error) {
	return deployments.NewCommand(deployments.Config{Logger: c.lggr})
}

// Root creates the root command with every command attached.
func (c *Commands) Root(use string) (*cobra.Command, error) {
	root := &cobra.Command{
		Use:           use,
		Short:         "Deploys the raffle and its VRF coordinator mock",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	builders := []func() (*cobra.Command, error){
		func() (*cobra.Command, error) { return c.Deploy(nil) },
		c.Config,
		c.Networks,
		c.Deployments,
	}
	for _, build := range builders {
		cmd, err := build()
		if err != nil {
			return nil, err
		}
		root.AddCommand(cmd)
	}

	return root, nil
}
