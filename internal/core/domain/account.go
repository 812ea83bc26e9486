package domain

import (
	"github.com/shopspring/decimal"
)

// Account represents a bank account within the core domain.
// This is the primary representation used by services.
//
// Balance is owned exclusively by the account store; after any committed
// operation it is never negative.
type Account struct {
	AccountID     string          `json:"accountID"`     // Primary Key (e.g., UUID)
	AccountNumber string          `json:"accountNumber"` // Human-readable number, unique, immutable once assigned
	Balance       decimal.Decimal `json:"balance"`       // Persisted balance, scale 2+
	CurrencyCode  string          `json:"currencyCode"`  // Native currency of the account (e.g., "USD")
	IsActive      bool            `json:"isActive"`      // Soft delete or status flag
	AuditFields                   // Embed CreatedAt, CreatedBy, etc.
}
