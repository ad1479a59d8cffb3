package domain

import (
	"errors"
	"fmt"
)

var (
	ErrBadCreds      = errors.New("invalid email or password")
	ErrEmptyCart     = errors.New("cart is empty")
	ErrForbidden     = errors.New("forbidden")
	ErrNotFound      = errors.New("not found")
	ErrInvalidStatus = errors.New("invalid status")
)

// ValidationError marks user-correctable bad input.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "invalid " + e.Field
}

func Invalid(field, msg string) error { return &ValidationError{Field: field, Msg: msg} }

// InsufficientStockError is a business-rule violation the user can correct
// by lowering a quantity.
type InsufficientStockError struct {
	PlantID string
	Name    string
	Want    int
	Have    int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("not enough stock for %s (need %d, have %d)", e.Name, e.Want, e.Have)
}

// ExternalError wraps a failure of the auth/storage dependency. Local state
// is left unchanged when one of these is returned.
type ExternalError struct {
	Op  string
	Err error
}

func (e *ExternalError) Error() string { return "external service: " + e.Op + ": " + e.Err.Error() }
func (e *ExternalError) Unwrap() error { return e.Err }

func External(op string, err error) error { return &ExternalError{Op: op, Err: err} }
