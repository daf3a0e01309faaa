package config

import "errors"

// ErrMisconfigured marks failures that need operator intervention, such as an
// empty service tree or an unknown service name. Retrying does not help.
var ErrMisconfigured = errors.New("misconfigured")

// IsMisconfigured reports whether err is an operator error rather than a
// transient failure.
func IsMisconfigured(err error) bool {
	return errors.Is(err, ErrMisconfigured) || IsValidationError(err)
}
