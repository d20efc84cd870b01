package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart   = errors.New("cart is empty")
	ErrPersistence = errors.New("persistence failure")
)

// ValidationError reports missing or malformed checkout input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// InsufficientStockError names the product that could not be supplied and
// how many units were available.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: %d available", e.ProductName, e.Available)
}

// PersistenceError wraps a datastore failure. The transaction it happened in
// has been rolled back.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

func persistence(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// classified reports whether err already belongs to the checkout taxonomy.
func classified(err error) bool {
	var (
		vErr *ValidationError
		sErr *InsufficientStockError
	)
	return errors.Is(err, ErrEmptyCart) || errors.Is(err, ErrPersistence) ||
		errors.As(err, &vErr) || errors.As(err, &sErr)
}
