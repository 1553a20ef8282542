package config

import (
	"errors"
	"fmt"
)

// ErrConfiguration is matched by every ConfigurationError.
var ErrConfiguration = errors.New("configuration error")

// ConfigurationError reports a missing or malformed configuration value. Field names the value
// in words, e.g. "gas lane".
type ConfigurationError struct {
	Field string
	Msg   string
}

// NewConfigurationError returns a ConfigurationError for field.
func NewConfigurationError(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}

	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// MissingError returns the ConfigurationError raised when field has no value.
func MissingError(field string) *ConfigurationError {
	return NewConfigurationError(field, "%s is not configured", field)
}
