// Package deploy provides the CLI command that runs the deployment steps against a network.
package deploy

import (
	"context"
	"io"
	"os"

	"github.com/raffle-labs/raffle-deployments/engine/environment"
)

// EnvironmentLoaderFunc loads the deployment environment of a network.
type EnvironmentLoaderFunc func(
	ctx context.Context,
	network string,
	opts ...environment.LoadEnvironmentOption,
) (*environment.Environment, error)

// ReportWriterFunc opens the file the operations report is written to.
type ReportWriterFunc func(path string) (io.WriteCloser, error)

// defaultReportWriter creates the report file, replacing an existing one.
func defaultReportWriter(path string) (io.WriteCloser, error) {
	return os.Create(path)
}

// Deps holds the injectable dependencies for the deploy command.
// All fields are optional; nil values will use production defaults.
type Deps struct {
	// EnvironmentLoader loads the deployment environment.
	// Default: environment.Load
	EnvironmentLoader EnvironmentLoaderFunc

	// ReportWriter opens the operations report file.
	// Default: os.Create
	ReportWriter ReportWriterFunc
}

// applyDefaults fills in nil dependencies with production defaults.
func (d *Deps) applyDefaults() {
	if d.EnvironmentLoader == nil {
		d.EnvironmentLoader = environment.Load
	}
	if d.ReportWriter == nil {
		d.ReportWriter = defaultReportWriter
	}
}
