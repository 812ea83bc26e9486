package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/exception-s/BankApplication/internal/apperrors"
	"github.com/exception-s/BankApplication/internal/core/domain"
	portsrepo "github.com/exception-s/BankApplication/internal/core/ports/repositories"
	portssvc "github.com/exception-s/BankApplication/internal/core/ports/services"
	"github.com/exception-s/BankApplication/internal/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// maxCommitAttempts bounds retries of the atomic balance commit when the
// store reports a concurrent conflict. Anything beyond that surfaces to the
// caller.
const maxCommitAttempts = 3

// transferServiceImpl is the transfer engine: it validates requests, resolves
// currencies, converts the debit and credit legs, and commits balance changes
// together with the ledger record as one atomic unit.
type transferServiceImpl struct {
	BaseService
	accountRepo portsrepo.AccountReader
	txnRepo     portsrepo.TransactionRepository
	converter   portssvc.RateConverter
}

// NewTransferService creates a new transfer engine.
func NewTransferService(
	accountRepo portsrepo.AccountReader,
	txnRepo portsrepo.TransactionRepository,
	converter portssvc.RateConverter,
) portssvc.TransferSvc {
	return &transferServiceImpl{
		accountRepo: accountRepo,
		txnRepo:     txnRepo,
		converter:   converter,
	}
}

// Ensure transferServiceImpl implements the TransferSvc interface
var _ portssvc.TransferSvc = (*transferServiceImpl)(nil)

// Transfer moves funds from one account to another, converting currency where
// the request's effective currencies differ from the accounts' native ones.
func (s *transferServiceImpl) Transfer(ctx context.Context, req dto.TransferRequest, userID string) (*domain.Transaction, error) {
	// Amount validation happens before any lookup or lock: a bad amount must
	// have zero side effects.
	if err := validateAmount(req.Amount); err != nil {
		return nil, err
	}
	if req.FromAccountID == req.ToAccountID {
		return nil, fmt.Errorf("%w: source and target accounts must differ", apperrors.ErrValidation)
	}

	from, err := s.resolveAccount(ctx, req.FromAccountID, apperrors.SourceSide)
	if err != nil {
		return nil, err
	}
	to, err := s.resolveAccount(ctx, req.ToAccountID, apperrors.TargetSide)
	if err != nil {
		return nil, err
	}

	fromCurrency := effectiveCurrency(req.FromCurrency, from.CurrencyCode)
	toCurrency := effectiveCurrency(req.ToCurrency, to.CurrencyCode)

	// Debit leg: the amount the source account actually loses, in its native
	// currency.
	debit := req.Amount
	if !strings.EqualFold(fromCurrency, from.CurrencyCode) {
		debit, err = s.converter.Convert(ctx, req.Amount, fromCurrency, from.CurrencyCode)
		if err != nil {
			return nil, err
		}
	}

	// Read-only sufficiency check. The authoritative re-check happens inside
	// the atomic commit; this one rejects obviously bad requests without
	// taking locks.
	if from.Balance.LessThan(debit) {
		return nil, fmt.Errorf("%w: account %s balance %s cannot cover %s",
			apperrors.ErrInsufficientFunds, from.AccountID, from.Balance, debit)
	}

	// Credit leg: effective source -> effective destination, then into the
	// destination account's native currency if they differ.
	credit, err := s.converter.Convert(ctx, req.Amount, fromCurrency, toCurrency)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(toCurrency, to.CurrencyCode) {
		credit, err = s.converter.Convert(ctx, credit, toCurrency, to.CurrencyCode)
		if err != nil {
			return nil, err
		}
	}

	txn := domain.Transaction{
		TransactionID: uuid.NewString(),
		Amount:        req.Amount,
		FromAccountID: &from.AccountID,
		ToAccountID:   &to.AccountID,
		Type:          domain.TypeTransfer,
		FromCurrency:  &fromCurrency,
		ToCurrency:    &toCurrency,
		Description:   defaultDescription(req.Description, "Transfer"),
		Timestamp:     time.Now(),
		CreatedBy:     userID,
	}
	deltas := map[string]decimal.Decimal{
		from.AccountID: debit.Neg(),
		to.AccountID:   credit,
	}

	if err := s.commitWithRetry(ctx, txn, deltas); err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Transfer completed",
		slog.String("transaction_id", txn.TransactionID),
		slog.String("from_account_id", from.AccountID),
		slog.String("to_account_id", to.AccountID),
		slog.String("amount", req.Amount.String()))
	return &txn, nil
}

// Deposit credits a single account. There is no source side and no debit leg.
func (s *transferServiceImpl) Deposit(ctx context.Context, req dto.DepositRequest, userID string) (*domain.Transaction, error) {
	if err := validateAmount(req.Amount); err != nil {
		return nil, err
	}

	to, err := s.resolveAccount(ctx, req.ToAccountID, apperrors.TargetSide)
	if err != nil {
		return nil, err
	}

	toCurrency := effectiveCurrency(req.Currency, to.CurrencyCode)

	credit := req.Amount
	if !strings.EqualFold(toCurrency, to.CurrencyCode) {
		credit, err = s.converter.Convert(ctx, req.Amount, toCurrency, to.CurrencyCode)
		if err != nil {
			return nil, err
		}
	}

	txn := domain.Transaction{
		TransactionID: uuid.NewString(),
		Amount:        req.Amount,
		ToAccountID:   &to.AccountID,
		Type:          domain.TypeDeposit,
		ToCurrency:    &toCurrency,
		Description:   defaultDescription(req.Description, "Deposit"),
		Timestamp:     time.Now(),
		CreatedBy:     userID,
	}
	deltas := map[string]decimal.Decimal{to.AccountID: credit}

	if err := s.commitWithRetry(ctx, txn, deltas); err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Deposit completed",
		slog.String("transaction_id", txn.TransactionID),
		slog.String("to_account_id", to.AccountID),
		slog.String("amount", req.Amount.String()))
	return &txn, nil
}

// Withdraw debits a single account. There is no destination side; sufficiency
// is still enforced on the source account.
func (s *transferServiceImpl) Withdraw(ctx context.Context, req dto.WithdrawRequest, userID string) (*domain.Transaction, error) {
	if err := validateAmount(req.Amount); err != nil {
		return nil, err
	}

	from, err := s.resolveAccount(ctx, req.FromAccountID, apperrors.SourceSide)
	if err != nil {
		return nil, err
	}

	fromCurrency := effectiveCurrency(req.Currency, from.CurrencyCode)

	debit := req.Amount
	if !strings.EqualFold(fromCurrency, from.CurrencyCode) {
		debit, err = s.converter.Convert(ctx, req.Amount, fromCurrency, from.CurrencyCode)
		if err != nil {
			return nil, err
		}
	}

	if from.Balance.LessThan(debit) {
		return nil, fmt.Errorf("%w: account %s balance %s cannot cover %s",
			apperrors.ErrInsufficientFunds, from.AccountID, from.Balance, debit)
	}

	txn := domain.Transaction{
		TransactionID: uuid.NewString(),
		Amount:        req.Amount,
		FromAccountID: &from.AccountID,
		Type:          domain.TypeWithdrawal,
		FromCurrency:  &fromCurrency,
		Description:   defaultDescription(req.Description, "Withdrawal"),
		Timestamp:     time.Now(),
		CreatedBy:     userID,
	}
	deltas := map[string]decimal.Decimal{from.AccountID: debit.Neg()}

	if err := s.commitWithRetry(ctx, txn, deltas); err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Withdrawal completed",
		slog.String("transaction_id", txn.TransactionID),
		slog.String("from_account_id", from.AccountID),
		slog.String("amount", req.Amount.String()))
	return &txn, nil
}

func (s *transferServiceImpl) GetTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	txn, err := s.txnRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find transaction by ID",
				slog.String("transaction_id", transactionID))
		}
		return nil, err
	}
	return txn, nil
}

func (s *transferServiceImpl) ListAccountTransactions(ctx context.Context, accountID string, limit int, offset int) ([]domain.Transaction, error) {
	// The account must exist; the ledger keeps records for deactivated
	// accounts, so no active check here.
	if _, err := s.accountRepo.FindAccountByID(ctx, accountID); err != nil {
		return nil, err
	}

	transactions, err := s.txnRepo.ListTransactionsByAccountID(ctx, accountID, limit, offset)
	if err != nil {
		s.LogError(ctx, err, "Failed to list transactions",
			slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to list transactions for account %s: %w", accountID, err)
	}
	return transactions, nil
}

// resolveAccount fetches an account, tagging a missing one with the side of
// the operation it was expected on. Inactive accounts cannot take part in new
// movements.
func (s *transferServiceImpl) resolveAccount(ctx context.Context, accountID string, side apperrors.AccountSide) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewAccountNotFound(side, accountID)
		}
		s.LogError(ctx, err, "Failed to resolve account",
			slog.String("account_id", accountID),
			slog.String("side", string(side)))
		return nil, err
	}
	if !account.IsActive {
		return nil, fmt.Errorf("%w: %s account %s is inactive", apperrors.ErrValidation, side, accountID)
	}
	return account, nil
}

// commitWithRetry drives the atomic balance commit, retrying bounded times on
// concurrent conflicts. All other errors surface immediately.
func (s *transferServiceImpl) commitWithRetry(ctx context.Context, txn domain.Transaction, deltas map[string]decimal.Decimal) error {
	var err error
	for attempt := 1; attempt <= maxCommitAttempts; attempt++ {
		err = s.txnRepo.SaveTransaction(ctx, txn, deltas)
		if err == nil {
			return nil
		}
		if !errors.Is(err, apperrors.ErrConcurrentConflict) {
			return err
		}
		s.LogDebug(ctx, "Retrying balance commit after conflict",
			slog.String("transaction_id", txn.TransactionID),
			slog.Int("attempt", attempt))
	}
	s.LogError(ctx, err, "Balance commit failed after retries",
		slog.String("transaction_id", txn.TransactionID))
	return fmt.Errorf("balance commit failed after %d attempts: %w", maxCommitAttempts, err)
}

func validateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: got %s", apperrors.ErrInvalidAmount, amount)
	}
	return nil
}

// effectiveCurrency picks the request's explicit currency if present, else
// the account's native currency.
func effectiveCurrency(requested, native string) string {
	if requested != "" {
		return strings.ToUpper(requested)
	}
	return strings.ToUpper(native)
}

func defaultDescription(provided, fallback string) string {
	if provided != "" {
		return provided
	}
	return fallback
}
