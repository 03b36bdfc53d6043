package custody

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every rejected operation returns one of these wrapped in
// an *OperationError; test with errors.Is.
var (
	// Lifecycle errors
	ErrAlreadyInitialized = errors.New("custody: already initialized")
	ErrNotInitialized     = errors.New("custody: not initialized")

	// Authorization errors
	ErrUnauthorized    = errors.New("custody: unauthorized")
	ErrInvalidNewOwner = errors.New("custody: invalid new owner")

	// Payment errors
	ErrCounterOverflow   = errors.New("custody: payment counter overflow")
	ErrInsufficientFunds = errors.New("custody: insufficient funds")
	ErrInvalidAmount     = errors.New("custody: invalid amount")
	ErrBalanceOverflow   = errors.New("custody: balance overflow")
	ErrNoFundsToWithdraw = errors.New("custody: no funds to withdraw")

	// Addressing errors
	ErrAddressDerivationFailed = errors.New("custody: address derivation failed")

	// Query errors
	ErrPaymentNotFound = errors.New("custody: payment not found")
	ErrCorruptRecord   = errors.New("custody: corrupt record")
)

// OperationError is the typed rejection returned by every operation.
type OperationError struct {
	Op  string
	Err error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("custody: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *OperationError) Unwrap() error { return e.Err }

// IsUnauthorized reports whether err is an authorization failure.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsFundsError reports whether err is caused by a balance condition.
func IsFundsError(err error) bool {
	return errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrNoFundsToWithdraw) ||
		errors.Is(err, ErrBalanceOverflow)
}
