package repositories

import (
	"context"

	"github.com/exception-s/BankApplication/internal/core/domain"
	"github.com/shopspring/decimal"
)

// TransactionRepository owns the append-only transaction ledger and the
// atomic balance commit primitive.
type TransactionRepository interface {
	// SaveTransaction applies the given balance deltas and appends the ledger
	// record as a single atomic unit: either every delta and the record become
	// visible, or none do.
	//
	// The implementation must be linearizable per account. It re-validates each
	// account's authoritative balance at commit time and fails the whole unit
	// with apperrors.ErrInsufficientFunds if any delta would drive a balance
	// negative. A missing account yields apperrors.ErrNotFound; a lost race
	// with a concurrent update yields apperrors.ErrConcurrentConflict and may
	// be retried by the caller.
	//
	// Lock acquisition across accounts follows ascending account ID, never
	// argument order, so opposite-direction transfers cannot deadlock.
	SaveTransaction(ctx context.Context, txn domain.Transaction, deltas map[string]decimal.Decimal) error

	// FindTransactionByID returns the ledger record or apperrors.ErrNotFound.
	FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)

	// ListTransactionsByAccountID returns ledger records touching the account
	// on either side, newest first.
	ListTransactionsByAccountID(ctx context.Context, accountID string, limit int, offset int) ([]domain.Transaction, error)
}
