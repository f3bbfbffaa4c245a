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

// foreignKeyViolation is the SQLSTATE for a missing referenced row.
const foreignKeyViolation = "23503"

const selectPost = `
	SELECT p.id, p.title, p.body, p.created_at, p.updated_at,
	       a.id AS "owner.id", a.handle AS "owner.handle"
	FROM posts p
	JOIN accounts a ON a.id = p.owner_id
`

type PostgresPostRepo struct {
	db sqlx.ExtContext
}

func NewPostgresPostRepo(db sqlx.ExtContext) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// Create inserts post as given; id and timestamps are chosen by the caller.
// An owner that no longer exists yields common.ErrNotFound.
func (r *PostgresPostRepo) Create(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts (id, owner_id, title, body, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		post.ID, post.Owner.ID, post.Title, post.Body, post.CreatedAt, post.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return fmt.Errorf("owner account: %w", common.ErrNotFound)
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresPostRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	var post models.Post
	err := sqlx.GetContext(ctx, r.db, &post, selectPost+` WHERE p.id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &post, nil
}

func (r *PostgresPostRepo) List(ctx context.Context) ([]models.Post, error) {
	posts := []models.Post{}
	err := sqlx.SelectContext(ctx, r.db, &posts, selectPost+` ORDER BY p.created_at DESC, p.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return posts, nil
}

// Update never moves updated_at backwards; the stored value wins over an
// earlier clock reading and is written back into post.
func (r *PostgresPostRepo) Update(ctx context.Context, post *models.Post) error {
	query := `
		UPDATE posts
		SET title = $1, body = $2, updated_at = GREATEST(updated_at, $3)
		WHERE id = $4 AND owner_id = $5
		RETURNING updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		post.Title, post.Body, post.UpdatedAt, post.ID, post.Owner.ID).
		Scan(&post.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresPostRepo) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
