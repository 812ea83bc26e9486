package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/exception-s/BankApplication/internal/apperrors"
	"github.com/exception-s/BankApplication/internal/core/domain"
	portsrepo "github.com/exception-s/BankApplication/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type transactionRepository struct {
	BaseRepository
}

// NewTransactionRepository creates a new repository for the transaction ledger.
func NewTransactionRepository(pool *pgxpool.Pool) portsrepo.TransactionRepository {
	return &transactionRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.TransactionRepository = (*transactionRepository)(nil)

// SaveTransaction applies the balance deltas and appends the ledger record in
// a single database transaction. The implicated account rows are locked in
// ascending account ID order, each balance is re-validated against the locked
// row, and the whole unit is rolled back on any failure.
func (r *transactionRepository) SaveTransaction(ctx context.Context, txn domain.Transaction, deltas map[string]decimal.Decimal) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	accountIDs := make([]string, 0, len(deltas))
	for id := range deltas {
		accountIDs = append(accountIDs, id)
	}

	// ORDER BY inside the locking query fixes the lock acquisition order to
	// ascending account ID regardless of transfer direction.
	lockQuery := `
		SELECT account_id, balance
		FROM accounts
		WHERE account_id = ANY($1)
		ORDER BY account_id
		FOR UPDATE;
	`
	rows, err := tx.Query(ctx, lockQuery, accountIDs)
	if err != nil {
		return fmt.Errorf("failed to lock accounts: %w", translatePgError(err))
	}

	balances := make(map[string]decimal.Decimal, len(accountIDs))
	for rows.Next() {
		var id string
		var balance decimal.Decimal
		if err := rows.Scan(&id, &balance); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan locked account: %w", err)
		}
		balances[id] = balance
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating locked accounts: %w", translatePgError(err))
	}

	for _, id := range accountIDs {
		balance, ok := balances[id]
		if !ok {
			return fmt.Errorf("%w: account %s", apperrors.ErrNotFound, id)
		}
		next := balance.Add(deltas[id])
		if next.IsNegative() {
			return fmt.Errorf("%w: account %s balance %s cannot cover %s",
				apperrors.ErrInsufficientFunds, id, balance, deltas[id].Neg())
		}
	}

	updateQuery := `
		UPDATE accounts
		SET balance = balance + $2, last_updated_at = $3, last_updated_by = $4
		WHERE account_id = $1;
	`
	for _, id := range accountIDs {
		if _, err := tx.Exec(ctx, updateQuery, id, deltas[id], txn.Timestamp, txn.CreatedBy); err != nil {
			return fmt.Errorf("failed to apply balance delta to %s: %w", id, translatePgError(err))
		}
	}

	insertQuery := `
		INSERT INTO transactions (transaction_id, amount, from_account_id, to_account_id, type, from_currency, to_currency, description, timestamp, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	if _, err := tx.Exec(ctx, insertQuery,
		txn.TransactionID,
		txn.Amount,
		txn.FromAccountID,
		txn.ToAccountID,
		txn.Type,
		txn.FromCurrency,
		txn.ToCurrency,
		txn.Description,
		txn.Timestamp,
		txn.CreatedBy,
	); err != nil {
		return fmt.Errorf("failed to insert transaction %s: %w", txn.TransactionID, translatePgError(err))
	}

	return r.Commit(ctx, tx)
}

const transactionColumns = `transaction_id, amount, from_account_id, to_account_id, type, from_currency, to_currency, description, timestamp, created_by`

// FindTransactionByID retrieves a ledger record by its ID.
func (r *transactionRepository) FindTransactionByID(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1;`

	txn, err := scanTransaction(r.Pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find transaction by ID %s: %w", transactionID, err)
	}
	return txn, nil
}

// ListTransactionsByAccountID retrieves ledger records touching the account on
// either side, newest first.
func (r *transactionRepository) ListTransactionsByAccountID(ctx context.Context, accountID string, limit int, offset int) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE from_account_id = $1 OR to_account_id = $1
		ORDER BY timestamp DESC, transaction_id
		LIMIT $2 OFFSET $3;
	`
	rows, err := r.Pool.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for account %s: %w", accountID, err)
	}
	defer rows.Close()

	transactions := []domain.Transaction{}
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		transactions = append(transactions, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return transactions, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var txn domain.Transaction
	err := row.Scan(
		&txn.TransactionID,
		&txn.Amount,
		&txn.FromAccountID,
		&txn.ToAccountID,
		&txn.Type,
		&txn.FromCurrency,
		&txn.ToCurrency,
		&txn.Description,
		&txn.Timestamp,
		&txn.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &txn, nil
}
