package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openpurse/personal_wallet_app/internal/apperrors"
	"github.com/openpurse/personal_wallet_app/internal/core/domain"
	portsrepo "github.com/openpurse/personal_wallet_app/internal/core/ports/repositories"
	"github.com/openpurse/personal_wallet_app/internal/models"
)

type PgxTransactionRepository struct {
	BaseRepository
}

// NewTransactionRepository creates a new repository for the transaction log.
func NewTransactionRepository(pool *pgxpool.Pool) *PgxTransactionRepository {
	return &PgxTransactionRepository{BaseRepository{Pool: pool}}
}

var _ portsrepo.TransactionRepositoryFacade = (*PgxTransactionRepository)(nil)

func toModelTransaction(d domain.Transaction) models.Transaction {
	return models.Transaction{
		TransactionID:       d.TransactionID,
		AccountID:           d.AccountID,
		Amount:              d.Amount,
		Type:                models.TransactionType(d.Type),
		Status:              models.TransactionStatus(d.Status),
		Date:                d.Date,
		Description:         d.Description,
		PayoutMethod:        d.PayoutMethod,
		PayoutMethodDetails: d.PayoutMethodDetails,
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			LastUpdatedAt: d.LastUpdatedAt,
		},
	}
}

func toDomainTransaction(m models.Transaction) domain.Transaction {
	return domain.Transaction{
		TransactionID:       m.TransactionID,
		AccountID:           m.AccountID,
		Amount:              m.Amount,
		Type:                domain.TransactionType(m.Type),
		Status:              domain.TransactionStatus(m.Status),
		Date:                m.Date,
		Description:         m.Description,
		PayoutMethod:        m.PayoutMethod,
		PayoutMethodDetails: m.PayoutMethodDetails,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			LastUpdatedAt: m.LastUpdatedAt,
		},
	}
}

const transactionColumns = `transaction_id, account_id, amount, type, status, date, description, payout_method, payout_method_details, created_at, last_updated_at`

func scanTransaction(row pgx.Row) (models.Transaction, error) {
	var m models.Transaction
	err := row.Scan(
		&m.TransactionID,
		&m.AccountID,
		&m.Amount,
		&m.Type,
		&m.Status,
		&m.Date,
		&m.Description,
		&m.PayoutMethod,
		&m.PayoutMethodDetails,
		&m.CreatedAt,
		&m.LastUpdatedAt,
	)
	return m, err
}

// applyAccountUpdateInTx runs the version-guarded account write inside an open
// transaction, distinguishing a vanished account from a version collision.
func applyAccountUpdateInTx(ctx context.Context, tx pgx.Tx, account domain.Account) error {
	tag, err := updateAccountExec(ctx, tx, account)
	if err != nil {
		return translateStoreError(fmt.Errorf("failed to update account %s: %w", account.AccountID, err))
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE account_id = $1);`, account.AccountID).Scan(&exists); err != nil {
		return translateStoreError(fmt.Errorf("failed to classify missed update for account %s: %w", account.AccountID, err))
	}
	if !exists {
		return apperrors.ErrNotFound
	}
	return fmt.Errorf("%w: account %s was modified concurrently", apperrors.ErrConflict, account.AccountID)
}

func insertTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.Transaction) error {
	m := toModelTransaction(txn)
	query := `
		INSERT INTO transactions (transaction_id, account_id, amount, type, status, date, description, payout_method, payout_method_details, created_at, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := tx.Exec(ctx, query,
		m.TransactionID,
		m.AccountID,
		m.Amount,
		m.Type,
		m.Status,
		m.Date,
		m.Description,
		m.PayoutMethod,
		m.PayoutMethodDetails,
		m.CreatedAt,
		m.LastUpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: transaction %s already exists", apperrors.ErrDuplicate, m.TransactionID)
		}
		return translateStoreError(fmt.Errorf("failed to insert transaction %s: %w", m.TransactionID, err))
	}
	return nil
}

func updateTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.Transaction) error {
	m := toModelTransaction(txn)
	// Identity columns (transaction_id, account_id, date, created_at) never change.
	query := `
		UPDATE transactions
		SET status = $3,
		    description = $4,
		    payout_method = $5,
		    payout_method_details = $6,
		    last_updated_at = $7
		WHERE transaction_id = $1 AND account_id = $2;
	`
	tag, err := tx.Exec(ctx, query,
		m.TransactionID,
		m.AccountID,
		m.Status,
		m.Description,
		m.PayoutMethod,
		m.PayoutMethodDetails,
		m.LastUpdatedAt,
	)
	if err != nil {
		return translateStoreError(fmt.Errorf("failed to update transaction %s: %w", m.TransactionID, err))
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// SaveTransactionWithAccount inserts the transaction and writes the account's updated
// fields in one store transaction.
func (r *PgxTransactionRepository) SaveTransactionWithAccount(ctx context.Context, txn domain.Transaction, account domain.Account) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := insertTransactionInTx(ctx, tx, txn); err != nil {
		return err
	}
	if err := applyAccountUpdateInTx(ctx, tx, account); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// UpdateTransactionWithAccount updates an existing transaction and the account's
// fields atomically.
func (r *PgxTransactionRepository) UpdateTransactionWithAccount(ctx context.Context, txn domain.Transaction, account domain.Account) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if err := updateTransactionInTx(ctx, tx, txn); err != nil {
		return err
	}
	if err := applyAccountUpdateInTx(ctx, tx, account); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// UpdateTransactionsWithAccount applies several transaction updates plus the account
// write in one store transaction. A reader never observes a rejected withdrawal with
// the pre-reversal balance.
func (r *PgxTransactionRepository) UpdateTransactionsWithAccount(ctx context.Context, txns []domain.Transaction, account domain.Account) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	for _, txn := range txns {
		if err := updateTransactionInTx(ctx, tx, txn); err != nil {
			return err
		}
	}
	if err := applyAccountUpdateInTx(ctx, tx, account); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// DeleteTransactionWithAccount removes a transaction and writes the account's updated
// fields atomically.
func (r *PgxTransactionRepository) DeleteTransactionWithAccount(ctx context.Context, accountID, transactionID string, account domain.Account) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	tag, err := tx.Exec(ctx, `DELETE FROM transactions WHERE transaction_id = $1 AND account_id = $2;`, transactionID, accountID)
	if err != nil {
		return translateStoreError(fmt.Errorf("failed to delete transaction %s: %w", transactionID, err))
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	if err := applyAccountUpdateInTx(ctx, tx, account); err != nil {
		return err
	}
	return r.Commit(ctx, tx)
}

// FindTransactionByID retrieves one transaction scoped to its account.
func (r *PgxTransactionRepository) FindTransactionByID(ctx context.Context, accountID, transactionID string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE transaction_id = $1 AND account_id = $2;`

	m, err := scanTransaction(r.Pool.QueryRow(ctx, query, transactionID, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, translateStoreError(fmt.Errorf("failed to find transaction %s: %w", transactionID, err))
	}

	d := toDomainTransaction(m)
	return &d, nil
}

// ListTransactionsByAccountID returns the account's transactions newest first.
func (r *PgxTransactionRepository) ListTransactionsByAccountID(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE account_id = $1 ORDER BY date DESC, transaction_id;`
	return r.queryTransactions(ctx, query, accountID)
}

// ListPendingWithdrawals returns withdrawal transactions still in Pending state.
func (r *PgxTransactionRepository) ListPendingWithdrawals(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE account_id = $1 AND type = 'WITHDRAWAL' AND status = 'PENDING' ORDER BY date;`
	return r.queryTransactions(ctx, query, accountID)
}

func (r *PgxTransactionRepository) queryTransactions(ctx context.Context, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, translateStoreError(fmt.Errorf("failed to query transactions: %w", err))
	}
	defer rows.Close()

	var txns []domain.Transaction
	for rows.Next() {
		m, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		txns = append(txns, toDomainTransaction(m))
	}
	if err := rows.Err(); err != nil {
		return nil, translateStoreError(fmt.Errorf("failed reading transaction rows: %w", err))
	}
	return txns, nil
}

// HasRecentDuplicate reports whether an identical (amount, type, description)
// transaction exists for the account dated at or after since.
func (r *PgxTransactionRepository) HasRecentDuplicate(ctx context.Context, accountID string, draft domain.Transaction, since time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM transactions
			WHERE account_id = $1 AND amount = $2 AND type = $3 AND description = $4 AND date >= $5
		);
	`
	var exists bool
	err := r.Pool.QueryRow(ctx, query, accountID, draft.Amount, string(draft.Type), draft.Description, since).Scan(&exists)
	if err != nil {
		return false, translateStoreError(fmt.Errorf("failed duplicate lookup for account %s: %w", accountID, err))
	}
	return exists, nil
}
