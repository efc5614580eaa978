package domain

import (
	"errors"
	"fmt"
)

// ErrContractViolation wraps a panic raised by the engine, typically
// check-ins handed over out of order.
var ErrContractViolation = errors.New("engine contract violation")

// RecoverViolation turns an engine panic into an error wrapping
// ErrContractViolation. Use it as: defer domain.RecoverViolation(&err, id).
func RecoverViolation(err *error, subject string) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %s: %v", ErrContractViolation, subject, r)
	}
}
