package services

import (
	"context"

	"github.com/exception-s/BankApplication/internal/core/domain"
	"github.com/exception-s/BankApplication/internal/dto"
	"github.com/shopspring/decimal"
)

// AccountSvc manages account lifecycle. Accounts open with balance zero;
// balance mutation belongs to the transfer engine.
type AccountSvc interface {
	CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error)
	GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error)
	ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error)
	DeactivateAccount(ctx context.Context, accountID string, userID string) error
	GetAccountBalance(ctx context.Context, accountID string) (decimal.Decimal, error)
}
