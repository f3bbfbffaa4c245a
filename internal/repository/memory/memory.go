// Package memory implements the repository contracts in process memory. It
// backs STORE_DRIVER=memory and the end-to-end HTTP tests; state is lost on
// restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vaughan-dsouza/board/internal/common"
	"github.com/vaughan-dsouza/board/internal/models"
	"github.com/vaughan-dsouza/board/internal/repository"
)

var (
	_ repository.AccountRepository      = (*AccountRepo)(nil)
	_ repository.PostRepository         = (*PostRepo)(nil)
	_ repository.RefreshTokenRepository = (*RefreshTokenRepo)(nil)
	_ repository.Pinger                 = (*Store)(nil)
)

type refreshRecord struct {
	accountID uuid.UUID
	expiresAt time.Time
}

// Store holds all three collections behind one lock, so cross-collection
// checks (a post's owner must exist) see a consistent view.
type Store struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]models.Account
	handles  map[string]uuid.UUID
	posts    map[uuid.UUID]models.Post
	tokens   map[string]refreshRecord
	now      func() time.Time
}

func New() *Store {
	return &Store{
		accounts: make(map[uuid.UUID]models.Account),
		handles:  make(map[string]uuid.UUID),
		posts:    make(map[uuid.UUID]models.Post),
		tokens:   make(map[string]refreshRecord),
		now:      time.Now,
	}
}

func (s *Store) Accounts() *AccountRepo           { return &AccountRepo{s: s} }
func (s *Store) Posts() *PostRepo                 { return &PostRepo{s: s} }
func (s *Store) RefreshTokens() *RefreshTokenRepo { return &RefreshTokenRepo{s: s} }

func (s *Store) PingContext(ctx context.Context) error { return ctx.Err() }

// ---------------------- ACCOUNTS ----------------------

type AccountRepo struct{ s *Store }

func (r *AccountRepo) Create(ctx context.Context, account *models.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, taken := r.s.handles[account.Handle]; taken {
		return common.ErrHandleTaken
	}
	account.CreatedAt = r.s.now().UTC()
	r.s.accounts[account.ID] = *account
	r.s.handles[account.Handle] = account.ID
	return nil
}

func (r *AccountRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.accounts[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &a, nil
}

func (r *AccountRepo) FindByHandle(ctx context.Context, handle string) (*models.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.handles[handle]
	if !ok {
		return nil, common.ErrNotFound
	}
	a := r.s.accounts[id]
	return &a, nil
}

// ---------------------- POSTS ----------------------

type PostRepo struct{ s *Store }

func (r *PostRepo) Create(ctx context.Context, post *models.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	owner, ok := r.s.accounts[post.Owner.ID]
	if !ok {
		return common.ErrNotFound
	}
	post.Owner = owner.Ref()
	r.s.posts[post.ID] = *post
	return nil
}

func (r *PostRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.posts[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &p, nil
}

func (r *PostRepo) List(ctx context.Context) ([]models.Post, error) {
	r.s.mu.RLock()
	posts := make([]models.Post, 0, len(r.s.posts))
	for _, p := range r.s.posts {
		posts = append(posts, p)
	}
	r.s.mu.RUnlock()

	sort.Slice(posts, func(i, j int) bool {
		if !posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].CreatedAt.After(posts[j].CreatedAt)
		}
		return posts[i].ID.String() > posts[j].ID.String()
	})
	return posts, nil
}

func (r *PostRepo) Update(ctx context.Context, post *models.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.posts[post.ID]
	if !ok || stored.Owner.ID != post.Owner.ID {
		return common.ErrNotFound
	}

	stored.Title = post.Title
	stored.Body = post.Body
	if post.UpdatedAt.After(stored.UpdatedAt) {
		stored.UpdatedAt = post.UpdatedAt
	}
	r.s.posts[post.ID] = stored
	*post = stored
	return nil
}

func (r *PostRepo) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.posts[id]
	if !ok || stored.Owner.ID != ownerID {
		return common.ErrNotFound
	}
	delete(r.s.posts, id)
	return nil
}

// ---------------------- REFRESH TOKENS ----------------------

type RefreshTokenRepo struct{ s *Store }

func (r *RefreshTokenRepo) Create(ctx context.Context, accountID uuid.UUID, token string, expiresAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.tokens[token] = refreshRecord{accountID: accountID, expiresAt: expiresAt}
	return nil
}

func (r *RefreshTokenRepo) Exists(ctx context.Context, accountID uuid.UUID, token string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.tokens[token]
	return ok && rec.accountID == accountID && rec.expiresAt.After(r.s.now()), nil
}

func (r *RefreshTokenRepo) Rotate(ctx context.Context, accountID uuid.UUID, oldToken, newToken string, expiresAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	rec, ok := r.s.tokens[oldToken]
	if !ok || rec.accountID != accountID {
		return common.ErrNotFound
	}
	delete(r.s.tokens, oldToken)
	r.s.tokens[newToken] = refreshRecord{accountID: accountID, expiresAt: expiresAt}
	return nil
}

func (r *RefreshTokenRepo) Delete(ctx context.Context, token string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.tokens, token)
	return nil
}
