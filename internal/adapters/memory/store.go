// Package memory provides an in-process implementation of the account and
// transaction repositories. It backs unit tests and local runs without
// Postgres while honoring the same atomicity contracts as the pgsql adapter.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/exception-s/BankApplication/internal/apperrors"
	"github.com/exception-s/BankApplication/internal/core/domain"
	portsrepo "github.com/exception-s/BankApplication/internal/core/ports/repositories"
	"github.com/shopspring/decimal"
)

// accountState pairs an account snapshot with the mutex that linearizes all
// balance reads and writes on it.
type accountState struct {
	mu      sync.Mutex
	account domain.Account
}

// Store holds accounts and the append-only ledger in memory.
//
// Multi-account commits acquire the per-account mutexes in ascending account
// ID order, regardless of transfer direction, so opposite transfers between
// the same pair of accounts cannot deadlock.
type Store struct {
	mu       sync.RWMutex // guards the accounts map itself
	accounts map[string]*accountState

	ledgerMu sync.RWMutex
	ledger   []domain.Transaction
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		accounts: make(map[string]*accountState),
	}
}

// Compile-time port checks.
var (
	_ portsrepo.AccountRepository     = (*Store)(nil)
	_ portsrepo.TransactionRepository = (*Store)(nil)
)

// SaveAccount inserts a new account.
func (s *Store) SaveAccount(ctx context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.AccountID]; exists {
		return fmt.Errorf("%w: account %s", apperrors.ErrDuplicate, account.AccountID)
	}
	for _, state := range s.accounts {
		if state.account.AccountNumber == account.AccountNumber {
			return fmt.Errorf("%w: account number %s", apperrors.ErrDuplicate, account.AccountNumber)
		}
	}
	s.accounts[account.AccountID] = &accountState{account: account}
	return nil
}

// FindAccountByID returns a snapshot of the account.
func (s *Store) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	state, err := s.state(accountID)
	if err != nil {
		return nil, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	snapshot := state.account
	return &snapshot, nil
}

// ListAccounts returns a page of accounts ordered by creation time.
func (s *Store) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	s.mu.RLock()
	states := make([]*accountState, 0, len(s.accounts))
	for _, state := range s.accounts {
		states = append(states, state)
	}
	s.mu.RUnlock()

	accounts := make([]domain.Account, 0, len(states))
	for _, state := range states {
		state.mu.Lock()
		accounts = append(accounts, state.account)
		state.mu.Unlock()
	}
	sort.Slice(accounts, func(i, j int) bool {
		if accounts[i].CreatedAt.Equal(accounts[j].CreatedAt) {
			return accounts[i].AccountID < accounts[j].AccountID
		}
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})

	return page(accounts, limit, offset), nil
}

// DeactivateAccount clears the active flag.
func (s *Store) DeactivateAccount(ctx context.Context, accountID string, userID string, at time.Time) error {
	state, err := s.state(accountID)
	if err != nil {
		return err
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	state.account.IsActive = false
	state.account.LastUpdatedAt = at
	state.account.LastUpdatedBy = userID
	return nil
}

// SaveTransaction applies the balance deltas and appends the ledger record as
// one atomic unit. Locks are taken in ascending account ID order; every
// balance is re-validated against its authoritative value while locked, and
// nothing is applied unless every delta passes.
func (s *Store) SaveTransaction(ctx context.Context, txn domain.Transaction, deltas map[string]decimal.Decimal) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ids := make([]string, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	states := make([]*accountState, 0, len(ids))
	for _, id := range ids {
		state, err := s.state(id)
		if err != nil {
			return err
		}
		states = append(states, state)
	}

	for _, state := range states {
		state.mu.Lock()
	}
	defer func() {
		for i := len(states) - 1; i >= 0; i-- {
			states[i].mu.Unlock()
		}
	}()

	// Validate every leg before mutating anything.
	for i, state := range states {
		next := state.account.Balance.Add(deltas[ids[i]])
		if next.IsNegative() {
			return fmt.Errorf("%w: account %s balance %s cannot cover %s",
				apperrors.ErrInsufficientFunds, ids[i], state.account.Balance, deltas[ids[i]].Neg())
		}
	}

	for i, state := range states {
		state.account.Balance = state.account.Balance.Add(deltas[ids[i]])
		state.account.LastUpdatedAt = txn.Timestamp
		state.account.LastUpdatedBy = txn.CreatedBy
	}

	s.ledgerMu.Lock()
	s.ledger = append(s.ledger, txn)
	s.ledgerMu.Unlock()
	return nil
}

// FindTransactionByID returns the ledger record.
func (s *Store) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	s.ledgerMu.RLock()
	defer s.ledgerMu.RUnlock()

	for i := range s.ledger {
		if s.ledger[i].TransactionID == transactionID {
			snapshot := s.ledger[i]
			return &snapshot, nil
		}
	}
	return nil, fmt.Errorf("%w: transaction %s", apperrors.ErrNotFound, transactionID)
}

// ListTransactionsByAccountID returns ledger records touching the account on
// either side, newest first.
func (s *Store) ListTransactionsByAccountID(ctx context.Context, accountID string, limit int, offset int) ([]domain.Transaction, error) {
	s.ledgerMu.RLock()
	matched := make([]domain.Transaction, 0)
	for _, txn := range s.ledger {
		if refersTo(txn.FromAccountID, accountID) || refersTo(txn.ToAccountID, accountID) {
			matched = append(matched, txn)
		}
	}
	s.ledgerMu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	return page(matched, limit, offset), nil
}

func (s *Store) state(accountID string) (*accountState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: account %s", apperrors.ErrNotFound, accountID)
	}
	return state, nil
}

func refersTo(ref *string, accountID string) bool {
	return ref != nil && *ref == accountID
}

func page[T any](items []T, limit int, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
