package apperrors

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInvalidAmount indicates a non-positive amount on a money movement request.
// It is rejected before any account lookup, so a failed request has no side effects.
var ErrInvalidAmount = errors.New("amount must be positive")

// ErrInsufficientFunds indicates the debit leg of an operation exceeds the
// source account's balance.
var ErrInsufficientFunds = errors.New("insufficient funds")

// ErrConversionFailure indicates the exchange rate source was unavailable,
// returned an unparseable payload, or does not quote one of the requested currencies.
var ErrConversionFailure = errors.New("currency conversion failed")

// ErrConcurrentConflict indicates a balance commit lost a race with a
// concurrent update. The transfer engine retries these a bounded number of
// times before surfacing the error.
var ErrConcurrentConflict = errors.New("concurrent balance update conflict")

// AccountSide identifies which leg of a money movement an account error refers to.
type AccountSide string

const (
	SourceSide AccountSide = "source"
	TargetSide AccountSide = "target"
)

// AccountNotFoundError reports a missing account together with the side of
// the operation it was expected on, so callers can render "Source account not
// found" vs "Target account not found".
type AccountNotFoundError struct {
	Side      AccountSide
	AccountID string
}

func (e *AccountNotFoundError) Error() string {
	return fmt.Sprintf("%s account %s not found", e.Side, e.AccountID)
}

// Unwrap makes the error match errors.Is(err, ErrNotFound).
func (e *AccountNotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewAccountNotFound builds a side-tagged not-found error.
func NewAccountNotFound(side AccountSide, accountID string) error {
	return &AccountNotFoundError{Side: side, AccountID: accountID}
}
