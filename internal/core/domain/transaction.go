package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a completed money movement.
type TransactionType string

const (
	TypeTransfer   TransactionType = "TRANSFER"
	TypeDeposit    TransactionType = "DEPOSIT"
	TypeWithdrawal TransactionType = "WITHDRAWAL"
)

// Transaction is an immutable ledger record of a completed money movement.
// Records are never updated or deleted; a deposit has no source side and a
// withdrawal has no destination side (both sides absent is invalid).
//
// Amount carries the originally requested amount, not the converted legs.
type Transaction struct {
	TransactionID string          `json:"transactionID"` // Primary Key (UUID)
	Amount        decimal.Decimal `json:"amount"`        // Requested amount; stored as numeric(19,4)
	FromAccountID *string         `json:"fromAccountID"` // Nil for deposits
	ToAccountID   *string         `json:"toAccountID"`   // Nil for withdrawals
	Type          TransactionType `json:"type"`          // TRANSFER, DEPOSIT or WITHDRAWAL
	FromCurrency  *string         `json:"fromCurrency"`  // Effective source currency; nil when FromAccountID is nil
	ToCurrency    *string         `json:"toCurrency"`    // Effective destination currency; nil when ToAccountID is nil
	Description   string          `json:"description"`   // Free text
	Timestamp     time.Time       `json:"timestamp"`     // Creation instant, server clock
	CreatedBy     string          `json:"createdBy"`     // UserID Reference
}
