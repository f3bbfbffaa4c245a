package models

import (
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	Title     string     `db:"title" json:"title"`
	Body      string     `db:"body" json:"body"`
	Owner     AccountRef `db:"owner" json:"owner"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
}

// OwnedBy reports whether the post belongs to the given account. Ownership is
// decided on the opaque account id only, never on the handle.
func (p *Post) OwnedBy(accountID uuid.UUID) bool {
	return p.Owner.ID == accountID
}
