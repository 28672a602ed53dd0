package ledger

import (
	"errors"
	"fmt"
)

// Domain errors. The HTTP boundary maps these to status codes with
// errors.Is, so new errors should wrap one of the base kinds.
var (
	// ErrValidation is the base kind for caller-supplied data that
	// violates a ledger invariant. Validation failures are detected
	// before any store mutation.
	ErrValidation = errors.New("validation failed")

	// ErrUnbalanced means a transaction's posting amounts do not sum
	// to zero.
	ErrUnbalanced = fmt.Errorf("%w: posting amounts must sum to zero", ErrValidation)

	// ErrTooFewPostings means a transaction was submitted with fewer
	// than two postings.
	ErrTooFewPostings = fmt.Errorf("%w: a transaction requires at least two postings", ErrValidation)

	// ErrEmptyAccountName means an account was submitted without a name.
	ErrEmptyAccountName = fmt.Errorf("%w: account name must not be empty", ErrValidation)

	// ErrInvalidAccountKind means an account was submitted with an
	// unknown kind code.
	ErrInvalidAccountKind = fmt.Errorf("%w: unknown account kind", ErrValidation)

	ErrAccountNotFound     = errors.New("account not found")
	ErrTransactionNotFound = errors.New("transaction not found")
)

// StoreError wraps an underlying store failure, retaining the cause for
// diagnostics.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}
