package deploy

import (
	"errors"
	"fmt"

	"github.com/raffle-labs/raffle-deployments/config"
)

// ConfigurationError reports a missing or invalid configuration value. It is always fatal and
// raised before any transaction is sent.
type ConfigurationError = config.ConfigurationError

// ErrConfiguration is matched by every ConfigurationError.
var ErrConfiguration = config.ErrConfiguration

var (
	// ErrCollaborator is matched by every CollaboratorError.
	ErrCollaborator = errors.New("chain interaction failed")
	// ErrVerification is matched by every VerificationError.
	ErrVerification = errors.New("source verification failed")
)

// CollaboratorError wraps a failure of the chain: a deployment, a transaction or a confirmation
// wait. It is fatal to the run.
type CollaboratorError struct {
	// Op describes what was attempted, e.g. "deploy Raffle".
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() []error {
	return []error{ErrCollaborator, e.Err}
}

// VerificationError wraps a failed source verification. It is logged and never fails a run.
type VerificationError struct {
	Address string
	Err     error
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verification of %s: %v", e.Address, e.Err)
}

func (e *VerificationError) Unwrap() []error {
	return []error{ErrVerification, e.Err}
}

// collaboratorError wraps err as a CollaboratorError unless it already is one, or is a
// ConfigurationError.
func collaboratorError(op string, err error) error {
	var cfgErr *ConfigurationError
	var colErr *CollaboratorError
	if errors.As(err, &cfgErr) || errors.As(err, &colErr) {
		return err
	}

	return &CollaboratorError{Op: op, Err: err}
}
