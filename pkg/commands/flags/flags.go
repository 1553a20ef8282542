// Package flags provides reusable flag helpers for CLI commands.
//
// This package should only contain common flags that can be used by multiple commands
// to ensure unified naming and consistent behavior across the CLI.
// Command-specific flags should be defined locally in the command file.
package flags

import (
	"github.com/spf13/cobra"

	"github.com/raffle-labs/raffle-deployments/engine/config"
)

// DefaultDotenvFile is the .env file read when --env-file is not given.
const DefaultDotenvFile = ".env"

// MustString returns the string value, ignoring the error.
// Safe to use with registered flags where GetString cannot fail.
func MustString(s string, _ error) string { return s }

// MustStringSlice returns the string slice value, ignoring the error.
// Safe to use with registered flags where GetStringSlice cannot fail.
func MustStringSlice(s []string, _ error) []string { return s }

// Network adds the required --network/-n flag to a command.
// Retrieve the value with cmd.Flags().GetString("network").
//
// Usage:
//
//	flags.Network(cmd)
//	// later in RunE:
//	net, _ := cmd.Flags().GetString("network")
func Network(cmd *cobra.Command) {
	cmd.Flags().StringP("network", "n", "", "Network to deploy to, e.g. hardhat or sepolia (required)")
	_ = cmd.MarkFlagRequired("network")
}

// ConfigFiles adds the --config, --networks-config and --env-file flags naming the optional
// configuration files. Retrieve the values with ReadConfigFiles.
func ConfigFiles(cmd *cobra.Command) {
	cmd.Flags().StringP("config", "c", "", "Chain configuration YAML merged over the built-in chains")
	cmd.Flags().String("networks-config", "", "Networks YAML merged over the built-in networks")
	cmd.Flags().String("env-file", DefaultDotenvFile, "File providing environment variables that are not set")
}

// ReadConfigFiles returns the configuration files named by the flags added with ConfigFiles.
func ReadConfigFiles(cmd *cobra.Command) config.Files {
	return config.Files{
		Chains:   MustString(cmd.Flags().GetString("config")),
		Networks: MustString(cmd.Flags().GetString("networks-config")),
		Dotenv:   MustString(cmd.Flags().GetString("env-file")),
	}
}

// Deployments adds the --deployments flag for the root directory of persisted deployments.
// Retrieve the value with cmd.Flags().GetString("deployments").
func Deployments(cmd *cobra.Command, defaultValue string) {
	cmd.Flags().String("deployments", defaultValue, "Directory deployments are saved in, one subdirectory per network")
}
