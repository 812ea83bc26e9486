package dto

import (
	"time"

	"github.com/exception-s/BankApplication/internal/core/domain"
	"github.com/shopspring/decimal"
)

// TransferRequest moves funds between two accounts. The optional currency
// fields override the accounts' native currencies and trigger conversion.
type TransferRequest struct {
	FromAccountID string          `json:"fromAccountID" binding:"required"`
	ToAccountID   string          `json:"toAccountID" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	FromCurrency  string          `json:"fromCurrency" binding:"omitempty,currencycode"`
	ToCurrency    string          `json:"toCurrency" binding:"omitempty,currencycode"`
	Description   string          `json:"description"`
}

// DepositRequest credits a single account. The optional currency field is the
// currency the amount is expressed in; it defaults to the account's native
// currency.
type DepositRequest struct {
	ToAccountID string          `json:"toAccountID" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Currency    string          `json:"currency" binding:"omitempty,currencycode"`
	Description string          `json:"description"`
}

// WithdrawRequest debits a single account. Currency semantics match
// DepositRequest.
type WithdrawRequest struct {
	FromAccountID string          `json:"fromAccountID" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Currency      string          `json:"currency" binding:"omitempty,currencycode"`
	Description   string          `json:"description"`
}

// TransactionResponse defines the data returned for a ledger record.
// Mirrors domain.Transaction.
type TransactionResponse struct {
	TransactionID string                 `json:"transactionID"`
	Amount        decimal.Decimal        `json:"amount"`
	FromAccountID *string                `json:"fromAccountID,omitempty"`
	ToAccountID   *string                `json:"toAccountID,omitempty"`
	Type          domain.TransactionType `json:"type"`
	FromCurrency  *string                `json:"fromCurrency,omitempty"`
	ToCurrency    *string                `json:"toCurrency,omitempty"`
	Description   string                 `json:"description"`
	Timestamp     time.Time              `json:"timestamp"`
}

// ToTransactionResponse converts a domain.Transaction to TransactionResponse DTO
func ToTransactionResponse(txn *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		TransactionID: txn.TransactionID,
		Amount:        txn.Amount,
		FromAccountID: txn.FromAccountID,
		ToAccountID:   txn.ToAccountID,
		Type:          txn.Type,
		FromCurrency:  txn.FromCurrency,
		ToCurrency:    txn.ToCurrency,
		Description:   txn.Description,
		Timestamp:     txn.Timestamp,
	}
}

// ToListTransactionResponse converts a slice of domain.Transaction to response DTOs
func ToListTransactionResponse(txns []domain.Transaction) []TransactionResponse {
	res := make([]TransactionResponse, len(txns))
	for i, txn := range txns {
		res[i] = ToTransactionResponse(&txn)
	}
	return res
}

// ListTransactionsParams defines query parameters for listing ledger records.
type ListTransactionsParams struct {
	Limit  int `form:"limit,default=20"`
	Offset int `form:"offset,default=0"`
}

// ListTransactionsResponse wraps the list of ledger records.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
}
