package models

import (
	"time"

	"github.com/google/uuid"
)

type Account struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Handle       string    `db:"handle" json:"handle"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

// AccountRef is the public projection of an Account: what the identity
// resolver hands to the rest of the request and what a post embeds as owner.
type AccountRef struct {
	ID     uuid.UUID `db:"id" json:"id"`
	Handle string    `db:"handle" json:"handle"`
}

func (a *Account) Ref() AccountRef {
	return AccountRef{ID: a.ID, Handle: a.Handle}
}
