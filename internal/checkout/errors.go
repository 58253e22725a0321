package checkout

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrIllegalTransition    = errors.New("illegal transition of checkout step")
	ErrEmptyCart            = errors.New("cart is empty, nothing to checkout")
	ErrMissingIdentity      = errors.New("order requires a user id or the guest marker")
	ErrOrderWrite           = errors.New("failed to write order")
	ErrOrderNotInCheckout   = errors.New("order does not belong to this checkout")
	ErrNoActiveAttempt      = errors.New("no payment attempt awaiting approval")
	ErrPaymentFailed        = errors.New("payment failed")
	ErrPaymentNotCompleted  = errors.New("payment was not completed")
	ErrMethodNotImplemented = errors.New("payment method not implemented yet")
)

// ValidationError lists the offending fields and what was wrong with each. It matches
// ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func newValidationError(field, problem string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: problem}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
