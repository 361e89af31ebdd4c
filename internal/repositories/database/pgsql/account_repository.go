package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openpurse/personal_wallet_app/internal/apperrors"
	"github.com/openpurse/personal_wallet_app/internal/core/domain"
	portsrepo "github.com/openpurse/personal_wallet_app/internal/core/ports/repositories"
	"github.com/openpurse/personal_wallet_app/internal/models"
)

type PgxAccountRepository struct {
	BaseRepository
}

// NewAccountRepository creates a new repository for account data.
func NewAccountRepository(pool *pgxpool.Pool) *PgxAccountRepository {
	return &PgxAccountRepository{BaseRepository{Pool: pool}}
}

var _ portsrepo.AccountRepositoryFacade = (*PgxAccountRepository)(nil)

// Helper to convert domain.Account to models.Account for DB storage.
func toModelAccount(d domain.Account) models.Account {
	return models.Account{
		AccountID:           d.AccountID,
		Name:                d.Name,
		CurrencyCode:        d.CurrencyCode,
		Balance:             d.Balance,
		PendingWithdrawals:  d.PendingWithdrawals,
		TotalTransactions:   d.TotalTransactions,
		CreationDate:        d.CreationDate,
		LastInterestApplied: d.LastInterestApplied,
		Version:             d.Version,
		AuditFields: models.AuditFields{
			CreatedAt:     d.CreatedAt,
			LastUpdatedAt: d.LastUpdatedAt,
		},
	}
}

// Helper to convert models.Account from DB to domain.Account.
func toDomainAccount(m models.Account) domain.Account {
	return domain.Account{
		AccountID:           m.AccountID,
		Name:                m.Name,
		CurrencyCode:        m.CurrencyCode,
		Balance:             m.Balance,
		PendingWithdrawals:  m.PendingWithdrawals,
		TotalTransactions:   m.TotalTransactions,
		CreationDate:        m.CreationDate,
		LastInterestApplied: m.LastInterestApplied,
		Version:             m.Version,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			LastUpdatedAt: m.LastUpdatedAt,
		},
	}
}

// SaveAccount inserts a new account.
func (r *PgxAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	modelAcc := toModelAccount(account)

	query := `
		INSERT INTO accounts (account_id, name, currency_code, balance, pending_withdrawals, total_transactions, creation_date, last_interest_applied, version, created_at, last_updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.Pool.Exec(ctx, query,
		modelAcc.AccountID,
		modelAcc.Name,
		modelAcc.CurrencyCode,
		modelAcc.Balance,
		modelAcc.PendingWithdrawals,
		modelAcc.TotalTransactions,
		modelAcc.CreationDate,
		modelAcc.LastInterestApplied,
		modelAcc.Version,
		modelAcc.CreatedAt,
		modelAcc.LastUpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: account with ID %s already exists", apperrors.ErrDuplicate, modelAcc.AccountID)
		}
		return translateStoreError(fmt.Errorf("failed to save account %s: %w", modelAcc.AccountID, err))
	}
	return nil
}

const accountColumns = `account_id, name, currency_code, balance, pending_withdrawals, total_transactions, creation_date, last_interest_applied, version, created_at, last_updated_at`

func scanAccount(row pgx.Row) (models.Account, error) {
	var m models.Account
	err := row.Scan(
		&m.AccountID,
		&m.Name,
		&m.CurrencyCode,
		&m.Balance,
		&m.PendingWithdrawals,
		&m.TotalTransactions,
		&m.CreationDate,
		&m.LastInterestApplied,
		&m.Version,
		&m.CreatedAt,
		&m.LastUpdatedAt,
	)
	return m, err
}

// FindAccountByID retrieves an account by its ID.
func (r *PgxAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_id = $1;`

	modelAcc, err := scanAccount(r.Pool.QueryRow(ctx, query, accountID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, translateStoreError(fmt.Errorf("failed to find account by ID %s: %w", accountID, err))
	}

	domainAcc := toDomainAccount(modelAcc)
	return &domainAcc, nil
}

// ListAccountIDs returns every account identifier, for the reconciliation pass.
func (r *PgxAccountRepository) ListAccountIDs(ctx context.Context) ([]string, error) {
	rows, err := r.Pool.Query(ctx, `SELECT account_id FROM accounts ORDER BY creation_date;`)
	if err != nil {
		return nil, translateStoreError(fmt.Errorf("failed to list account IDs: %w", err))
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan account ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, translateStoreError(fmt.Errorf("failed reading account ID rows: %w", err))
	}
	return ids, nil
}

// UpdateAccount writes the account's mutable fields guarded by its version.
// A stale version yields ErrConflict; a missing row yields ErrNotFound.
func (r *PgxAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	tag, err := updateAccountExec(ctx, r.Pool, account)
	if err != nil {
		return translateStoreError(fmt.Errorf("failed to update account %s: %w", account.AccountID, err))
	}
	if tag.RowsAffected() == 0 {
		return r.classifyMissedUpdate(ctx, account.AccountID)
	}
	return nil
}

// execer covers both the pool and an open transaction for the CAS update.
type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// updateAccountExec runs the version-guarded account update against the pool or an
// open transaction.
func updateAccountExec(ctx context.Context, db execer, account domain.Account) (pgconn.CommandTag, error) {
	modelAcc := toModelAccount(account)
	query := `
		UPDATE accounts
		SET balance = $2,
		    pending_withdrawals = $3,
		    total_transactions = $4,
		    last_interest_applied = $5,
		    last_updated_at = $6,
		    version = version + 1
		WHERE account_id = $1 AND version = $7;
	`
	return db.Exec(ctx, query,
		modelAcc.AccountID,
		modelAcc.Balance,
		modelAcc.PendingWithdrawals,
		modelAcc.TotalTransactions,
		modelAcc.LastInterestApplied,
		modelAcc.LastUpdatedAt,
		modelAcc.Version,
	)
}

// classifyMissedUpdate distinguishes a vanished account from a version collision.
func (r *PgxAccountRepository) classifyMissedUpdate(ctx context.Context, accountID string) error {
	var exists bool
	if err := r.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE account_id = $1);`, accountID).Scan(&exists); err != nil {
		return translateStoreError(fmt.Errorf("failed to classify missed update for account %s: %w", accountID, err))
	}
	if !exists {
		return apperrors.ErrNotFound
	}
	return fmt.Errorf("%w: account %s was modified concurrently", apperrors.ErrConflict, accountID)
}
