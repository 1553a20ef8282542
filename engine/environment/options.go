package environment

import (
	"math/big"

	"github.com/raffle-labs/raffle-deployments/contracts"
	"github.com/raffle-labs/raffle-deployments/engine/config"
	"github.com/raffle-labs/raffle-deployments/pkg/logger"
)

const (
	// DefaultArtifactsDir is where compiled contract artifacts are read from.
	DefaultArtifactsDir = "artifacts"
	// DefaultDeploymentsDir is where persisted deployments are written, one directory per
	// network.
	DefaultDeploymentsDir = "deployments"
)

// LoadConfig contains the parameters for loading an environment.
type LoadConfig struct {
	// lggr is the logger used by the environment and every component it builds.
	// Defaults to logger.New().
	lggr logger.Logger

	// files are the configuration files read when no config is provided.
	files config.Files

	// cfg overrides configuration loading entirely.
	cfg *config.Config

	// artifactsDir is the directory of the compiled contract artifacts.
	artifactsDir string

	// loader overrides the artifact loader built from artifactsDir.
	loader contracts.Loader

	// deploymentsDir is the root directory of the persisted deployments.
	deploymentsDir string

	// fundAmount overrides the amount new local subscriptions are funded with.
	fundAmount *big.Int
}

// Configure applies the options to the LoadConfig.
func (c *LoadConfig) Configure(opts []LoadEnvironmentOption) {
	for _, opt := range opts {
		opt(c)
	}
}

func newLoadConfig() *LoadConfig {
	return &LoadConfig{
		artifactsDir:   DefaultArtifactsDir,
		deploymentsDir: DefaultDeploymentsDir,
	}
}

// LoadEnvironmentOption is a functional option type for configuring environment loading.
type LoadEnvironmentOption func(*LoadConfig)

// WithLogger sets the logger of the environment.
func WithLogger(lggr logger.Logger) LoadEnvironmentOption {
	return func(o *LoadConfig) {
		o.lggr = lggr
	}
}

// WithConfigFiles sets the configuration files to load.
func WithConfigFiles(files config.Files) LoadEnvironmentOption {
	return func(o *LoadConfig) {
		o.files = files
	}
}

// WithConfig uses an already loaded configuration instead of reading the configuration files.
func WithConfig(cfg *config.Config) LoadEnvironmentOption {
	return func(o *LoadConfig) {
		o.cfg = cfg
	}
}

// WithArtifactsDir sets the directory compiled contract artifacts are read from.
func WithArtifactsDir(dir string) LoadEnvironmentOption {
	return func(o *LoadConfig) {
		if dir != "" {
			o.artifactsDir = dir
		}
	}
}

// WithArtifactLoader sets the loader of compiled contract artifacts. It takes precedence over
// WithArtifactsDir.
func WithArtifactLoader(loader contracts.Loader) LoadEnvironmentOption {
	return func(o *LoadConfig) {
		o.loader = loader
	}
}

// WithDeploymentsDir sets the root directory persisted deployments are written to.
func WithDeploymentsDir(dir string) LoadEnvironmentOption {
	return func(o *LoadConfig) {
		if dir != "" {
			o.deploymentsDir = dir
		}
	}
}

// WithFundAmount sets the amount, in wei, a new subscription on the local chain is funded with.
func WithFundAmount(amount *big.Int) LoadEnvironmentOption {
	return func(o *LoadConfig) {
		o.fundAmount = amount
	}
}
