package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/storefront-identity/internal/domain"
)

// CustomerRepository defines persistence access for customer accounts.
// Lookups of a missing row return pgx.ErrNoRows.
type CustomerRepository interface {
	Create(ctx context.Context, account *domain.CustomerAccount) error
	GetByID(ctx context.Context, id string) (*domain.CustomerAccount, error)
	GetByEmail(ctx context.Context, email string) (*domain.CustomerAccount, error)
	// UpdateStatus persists only the stored-status fields of account.
	UpdateStatus(ctx context.Context, account *domain.CustomerAccount) error
	// IncrementLoginAttempts atomically bumps the failure counter and returns the new value.
	IncrementLoginAttempts(ctx context.Context, id string) (int, error)
	// RecordSuccessfulLogin resets the failure counter and stamps the login time.
	RecordSuccessfulLogin(ctx context.Context, id string, at time.Time) error
	ListExpiredSuspensions(ctx context.Context, now time.Time, limit int) ([]*domain.CustomerAccount, error)
}

type customerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a Postgres-backed implementation.
func NewCustomerRepository(pool *pgxpool.Pool) CustomerRepository {
	return &customerRepository{pool: pool}
}

const customerColumns = `id, name, email, password_hash, stored_status, status_reason, status_changed_at,
        status_changed_by, suspension_until, last_login_at, login_attempts, created_at, updated_at`

func scanCustomer(row pgx.Row) (*domain.CustomerAccount, error) {
	var a domain.CustomerAccount
	if err := row.Scan(
		&a.ID,
		&a.Name,
		&a.Email,
		&a.PasswordHash,
		&a.StoredStatus,
		&a.StatusReason,
		&a.StatusChangedAt,
		&a.StatusChangedBy,
		&a.SuspensionUntil,
		&a.LastLoginAt,
		&a.LoginAttempts,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *customerRepository) Create(ctx context.Context, account *domain.CustomerAccount) error {
	const query = `
        INSERT INTO customers (name, email, password_hash, stored_status, status_reason,
            status_changed_at, status_changed_by, suspension_until)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, login_attempts, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		account.Name,
		account.Email,
		account.PasswordHash,
		account.StoredStatus,
		account.StatusReason,
		account.StatusChangedAt,
		account.StatusChangedBy,
		account.SuspensionUntil,
	).Scan(&account.ID, &account.LoginAttempts, &account.CreatedAt, &account.UpdatedAt)
	return mapWriteError(err)
}

func (r *customerRepository) GetByID(ctx context.Context, id string) (*domain.CustomerAccount, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id=$1`
	return scanCustomer(r.pool.QueryRow(ctx, query, id))
}

func (r *customerRepository) GetByEmail(ctx context.Context, email string) (*domain.CustomerAccount, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE lower(email)=lower($1)`
	return scanCustomer(r.pool.QueryRow(ctx, query, email))
}

func (r *customerRepository) UpdateStatus(ctx context.Context, account *domain.CustomerAccount) error {
	const query = `
        UPDATE customers
        SET stored_status=$1, status_reason=$2, status_changed_at=$3, status_changed_by=$4,
            suspension_until=$5, updated_at=NOW()
        WHERE id=$6
        RETURNING updated_at`

	return r.pool.QueryRow(ctx, query,
		account.StoredStatus,
		account.StatusReason,
		account.StatusChangedAt,
		account.StatusChangedBy,
		account.SuspensionUntil,
		account.ID,
	).Scan(&account.UpdatedAt)
}

func (r *customerRepository) IncrementLoginAttempts(ctx context.Context, id string) (int, error) {
	const query = `
        UPDATE customers SET login_attempts = login_attempts + 1, updated_at=NOW()
        WHERE id=$1
        RETURNING login_attempts`

	var attempts int
	if err := r.pool.QueryRow(ctx, query, id).Scan(&attempts); err != nil {
		return 0, err
	}
	return attempts, nil
}

func (r *customerRepository) RecordSuccessfulLogin(ctx context.Context, id string, at time.Time) error {
	const query = `
        UPDATE customers SET login_attempts=0, last_login_at=$1, updated_at=NOW()
        WHERE id=$2`

	cmd, err := r.pool.Exec(ctx, query, at, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *customerRepository) ListExpiredSuspensions(ctx context.Context, now time.Time, limit int) ([]*domain.CustomerAccount, error) {
	query := `SELECT ` + customerColumns + `
        FROM customers
        WHERE stored_status=$1 AND suspension_until IS NOT NULL AND suspension_until < $2
        ORDER BY suspension_until
        LIMIT $3`

	rows, err := r.pool.Query(ctx, query, domain.AccountStatusSuspended, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.CustomerAccount
	for rows.Next() {
		account, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}
