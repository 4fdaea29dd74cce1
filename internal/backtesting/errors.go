package backtesting

import (
	"errors"
	"fmt"
)

// ErrNoTrades marks a run without closed trades; its metrics are undefined.
var ErrNoTrades = errors.New("no trades")

// ConfigError reports an invalid configuration value. It aborts the replay of
// that configuration only.
type ConfigError struct {
	Field string
	Err   error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid config %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("invalid config: %v", e.Err)
}

// Unwrap returns the wrapped error.
func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewConfigError wraps err with the offending field. An existing ConfigError is returned unchanged.
func NewConfigError(field string, err error) error {
	if err == nil {
		return nil
	}
	var ce *ConfigError
	if errors.As(err, &ce) {
		return err
	}
	return &ConfigError{Field: field, Err: err}
}

// IsConfigError reports whether err is, or wraps, a ConfigError
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
