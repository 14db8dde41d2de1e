package apierrors

import "errors"

// asTarget is a tiny generic wrapper around errors.As so callers don't need
// to repeat the *T boilerplate for each typed error above.
func asTarget[T error](err error, target *T) bool {
	return errors.As(err, target)
}
