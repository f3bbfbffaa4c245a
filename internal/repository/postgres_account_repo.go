package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/vaughan-dsouza/board/internal/common"
	"github.com/vaughan-dsouza/board/internal/models"
)

// uniqueViolation is the SQLSTATE Postgres reports for a UNIQUE conflict.
const uniqueViolation = "23505"

type PostgresAccountRepo struct {
	db sqlx.ExtContext
}

func NewPostgresAccountRepo(db sqlx.ExtContext) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

func (r *PostgresAccountRepo) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (id, handle, password_hash)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`

	err := r.db.QueryRowxContext(ctx, query, account.ID, account.Handle, account.PasswordHash).
		Scan(&account.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrHandleTaken
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresAccountRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return r.findOne(ctx, `
		SELECT id, handle, password_hash, created_at
		FROM accounts
		WHERE id = $1
	`, id)
}

func (r *PostgresAccountRepo) FindByHandle(ctx context.Context, handle string) (*models.Account, error) {
	return r.findOne(ctx, `
		SELECT id, handle, password_hash, created_at
		FROM accounts
		WHERE handle = $1
	`, handle)
}

func (r *PostgresAccountRepo) findOne(ctx context.Context, query string, arg any) (*models.Account, error) {
	var a models.Account
	if err := sqlx.GetContext(ctx, r.db, &a, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &a, nil
}
