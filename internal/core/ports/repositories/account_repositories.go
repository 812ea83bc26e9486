package repositories

import (
	"context"
	"time"

	"github.com/exception-s/BankApplication/internal/core/domain"
)

// AccountReader provides read access to account records.
type AccountReader interface {
	// FindAccountByID returns the account or apperrors.ErrNotFound.
	FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error)
	// ListAccounts returns a page of accounts ordered by creation time.
	ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error)
}

// AccountWriter provides write access to account records.
// Balance mutations are NOT part of this interface: balances change only
// through TransactionRepository.SaveTransaction so that every committed
// movement is paired with its ledger record.
type AccountWriter interface {
	// SaveAccount inserts a new account. A duplicate account number yields
	// apperrors.ErrDuplicate.
	SaveAccount(ctx context.Context, account domain.Account) error
	// DeactivateAccount clears the active flag. Historical ledger records
	// referencing the account stay valid.
	DeactivateAccount(ctx context.Context, accountID string, userID string, at time.Time) error
}

// AccountRepository combines account read and write access.
type AccountRepository interface {
	AccountReader
	AccountWriter
}
