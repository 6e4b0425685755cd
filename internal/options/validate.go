// Package options provides shared utilities for option validation across packages.
package options

import "github.com/erraggy/oasplit/oaserrors"

// ValidateSingleInputSource ensures exactly one input source is specified.
// sources is a variadic list of booleans indicating whether each source is set.
// noSourceMsg is the error message when no source is specified.
// multiSourceMsg is the error message when multiple sources are specified.
func ValidateSingleInputSource(noSourceMsg, multiSourceMsg string, sources ...bool) error {
	sourceCount := 0
	for _, hasSource := range sources {
		if hasSource {
			sourceCount++
		}
	}

	switch {
	case sourceCount == 0:
		return &oaserrors.ConfigError{Option: "input", Message: noSourceMsg}
	case sourceCount > 1:
		return &oaserrors.ConfigError{Option: "input", Value: sourceCount, Message: multiSourceMsg}
	}
	return nil
}

// ValidateNonNegative rejects negative counts such as worker limits.
// Zero is accepted and means "use the default".
func ValidateNonNegative(option string, n int) error {
	if n < 0 {
		return &oaserrors.ConfigError{Option: option, Value: n, Message: "must not be negative"}
	}
	return nil
}
