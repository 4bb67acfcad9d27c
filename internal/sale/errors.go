package sale

import (
	"errors"
	"fmt"
)

var (
	// ErrSaleNotActive is returned when a purchase is attempted outside the
	// sale window, or a withdrawal before the sale has ended.
	ErrSaleNotActive = errors.New("sale not active")

	// ErrInsufficientBudget is returned when the budget cannot buy a single
	// token unit of the cheapest open phase, or the sale is already sold out.
	ErrInsufficientBudget = errors.New("budget insufficient for any allocation")

	// ErrInvalidConfig is returned for malformed sale parameters or a
	// non-positive purchase budget.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrAlreadyExtended is returned on a second extension attempt.
	ErrAlreadyExtended = errors.New("sale already extended")

	// ErrNothingToWithdraw is returned when the custody balance is zero.
	ErrNothingToWithdraw = errors.New("nothing to withdraw")
)

// TransferError wraps a failure of the external value-transfer primitive.
// The ledger is never mutated when one is returned.
type TransferError struct {
	Stage string // "payment", "delivery", "deposit" or "withdraw"
	Err   error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%s transfer failed: %v", e.Stage, e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }
