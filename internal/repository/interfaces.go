// Package repository defines the storage contracts of the board and their
// PostgreSQL implementations. Lookups that match nothing return
// common.ErrNotFound; driver failures are wrapped as "db error: ...".
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vaughan-dsouza/board/internal/models"
)

type AccountRepository interface {
	// Create inserts the account. A duplicate handle yields common.ErrHandleTaken.
	Create(ctx context.Context, account *models.Account) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	FindByHandle(ctx context.Context, handle string) (*models.Account, error)
}

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	// List returns every post, newest created_at first.
	List(ctx context.Context) ([]models.Post, error)
	// Update writes title, body and updated_at of the post only if it is
	// still owned by post.Owner.ID; otherwise common.ErrNotFound.
	Update(ctx context.Context, post *models.Post) error
	// Delete removes the post only if it is owned by ownerID; otherwise
	// common.ErrNotFound.
	Delete(ctx context.Context, id, ownerID uuid.UUID) error
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, accountID uuid.UUID, token string, expiresAt time.Time) error
	// Exists reports whether an unexpired record binds token to accountID.
	Exists(ctx context.Context, accountID uuid.UUID, token string) (bool, error)
	// Rotate atomically replaces oldToken with newToken.
	Rotate(ctx context.Context, accountID uuid.UUID, oldToken, newToken string, expiresAt time.Time) error
	Delete(ctx context.Context, token string) error
}

// Pinger is satisfied by *sqlx.DB and by the in-memory store.
type Pinger interface {
	PingContext(ctx context.Context) error
}
