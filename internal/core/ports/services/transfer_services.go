package services

import (
	"context"

	"github.com/exception-s/BankApplication/internal/core/domain"
	"github.com/exception-s/BankApplication/internal/dto"
)

// TransferSvc is the transfer engine: it orchestrates transfers, deposits and
// withdrawals, including currency resolution, funds validation, the atomic
// balance commit and the ledger append.
//
// Every operation distinguishes apperrors.ErrInvalidAmount,
// apperrors.AccountNotFoundError, apperrors.ErrInsufficientFunds and
// apperrors.ErrConversionFailure so the HTTP boundary can map them.
type TransferSvc interface {
	Transfer(ctx context.Context, req dto.TransferRequest, userID string) (*domain.Transaction, error)
	Deposit(ctx context.Context, req dto.DepositRequest, userID string) (*domain.Transaction, error)
	Withdraw(ctx context.Context, req dto.WithdrawRequest, userID string) (*domain.Transaction, error)

	GetTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error)
	ListAccountTransactions(ctx context.Context, accountID string, limit int, offset int) ([]domain.Transaction, error)
}
