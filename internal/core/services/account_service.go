package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/exception-s/BankApplication/internal/apperrors"
	"github.com/exception-s/BankApplication/internal/core/domain"
	portsrepo "github.com/exception-s/BankApplication/internal/core/ports/repositories"
	portssvc "github.com/exception-s/BankApplication/internal/core/ports/services"
	"github.com/exception-s/BankApplication/internal/dto"
	"github.com/exception-s/BankApplication/internal/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// accountServiceImpl implements the AccountSvc interface
type accountServiceImpl struct {
	BaseService
	accountRepo portsrepo.AccountRepository
}

// NewAccountService creates a new account service.
func NewAccountService(repo portsrepo.AccountRepository) portssvc.AccountSvc {
	return &accountServiceImpl{accountRepo: repo}
}

// Ensure accountServiceImpl implements the AccountSvc interface
var _ portssvc.AccountSvc = (*accountServiceImpl)(nil)

// CreateAccount opens a new account with a generated account number and a
// zero balance.
func (s *accountServiceImpl) CreateAccount(ctx context.Context, req dto.CreateAccountRequest, userID string) (*domain.Account, error) {
	if !domain.IsSupportedCurrency(req.CurrencyCode) {
		err := fmt.Errorf("%w: unsupported currency code %s", apperrors.ErrValidation, req.CurrencyCode)
		s.LogError(ctx, err, "Invalid currency code on account creation",
			slog.String("currency_code", req.CurrencyCode))
		return nil, err
	}

	now := time.Now()
	account := domain.Account{
		AccountID:     uuid.NewString(),
		AccountNumber: utils.NextAccountNumber(),
		Balance:       decimal.Zero,
		CurrencyCode:  req.CurrencyCode,
		IsActive:      true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     userID,
			LastUpdatedAt: now,
			LastUpdatedBy: userID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		s.LogError(ctx, err, "Failed to save account",
			slog.String("account_id", account.AccountID))
		return nil, err
	}

	s.LogInfo(ctx, "Account created successfully",
		slog.String("account_id", account.AccountID),
		slog.String("account_number", account.AccountNumber))
	return &account, nil
}

func (s *accountServiceImpl) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find account by ID",
				slog.String("account_id", accountID))
		}
		return nil, err
	}

	s.LogDebug(ctx, "Account retrieved successfully",
		slog.String("account_id", account.AccountID))
	return account, nil
}

func (s *accountServiceImpl) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	accounts, err := s.accountRepo.ListAccounts(ctx, limit, offset)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts",
			slog.Int("limit", limit),
			slog.Int("offset", offset))
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	if accounts == nil {
		return []domain.Account{}, nil
	}
	return accounts, nil
}

func (s *accountServiceImpl) DeactivateAccount(ctx context.Context, accountID string, userID string) error {
	// Verify existence first so a missing account reads as NotFound, not a
	// silent no-op.
	if _, err := s.GetAccountByID(ctx, accountID); err != nil {
		return err
	}

	if err := s.accountRepo.DeactivateAccount(ctx, accountID, userID, time.Now()); err != nil {
		s.LogError(ctx, err, "Failed to deactivate account",
			slog.String("account_id", accountID))
		return err
	}

	s.LogInfo(ctx, "Account deactivated successfully",
		slog.String("account_id", accountID))
	return nil
}

func (s *accountServiceImpl) GetAccountBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	account, err := s.GetAccountByID(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}
