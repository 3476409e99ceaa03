package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// AccountRepository defines persistence access for portal logins.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.CustomerAccount) error
	Update(ctx context.Context, account *domain.CustomerAccount) error
	GetByID(ctx context.Context, id string) (*domain.CustomerAccount, error)
	GetByEmail(ctx context.Context, email string) (*domain.CustomerAccount, error)
}

type accountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository returns a Postgres-backed implementation.
func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

func (r *accountRepository) Create(ctx context.Context, account *domain.CustomerAccount) error {
	const query = `
        INSERT INTO customer_accounts (customer_id, name, email, password_hash, status)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		account.CustomerID,
		account.Name,
		account.Email,
		account.PasswordHash,
		account.Status,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
}

func (r *accountRepository) Update(ctx context.Context, account *domain.CustomerAccount) error {
	const query = `
        UPDATE customer_accounts SET name=$1, email=$2, password_hash=$3, status=$4, updated_at=NOW()
        WHERE id=$5`

	cmd, err := r.pool.Exec(ctx, query,
		account.Name,
		account.Email,
		account.PasswordHash,
		account.Status,
		account.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.CustomerAccount, error) {
	const query = `
        SELECT id, customer_id, name, email, password_hash, status, created_at, updated_at
        FROM customer_accounts WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.CustomerAccount, error) {
	const query = `
        SELECT id, customer_id, name, email, password_hash, status, created_at, updated_at
        FROM customer_accounts WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *accountRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.CustomerAccount, error) {
	var account domain.CustomerAccount
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&account.ID,
		&account.CustomerID,
		&account.Name,
		&account.Email,
		&account.PasswordHash,
		&account.Status,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &account, nil
}
