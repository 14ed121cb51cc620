package authorization

import (
	"errors"
	"fmt"
)

// Expected, recoverable failures. Callers branch on these with errors.Is;
// anything else is a gateway failure and is surfaced generically.
var (
	ErrNotFound          = errors.New("authorization not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrExpired           = errors.New("authorization has expired")
	ErrVisitsExhausted   = errors.New("authorized visits exhausted")
	ErrRenewalInitiated  = errors.New("renewal already initiated")
	ErrValidation        = errors.New("validation failed")
)

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}
