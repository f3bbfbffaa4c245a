// Package posts is the board's post store. Every mutation passes through the
// ownership gate: only the account recorded as a post's owner may edit or
// delete it.
package posts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vaughan-dsouza/board/internal/common"
	"github.com/vaughan-dsouza/board/internal/logging"
	"github.com/vaughan-dsouza/board/internal/models"
	"github.com/vaughan-dsouza/board/internal/repository"
)

type Service struct {
	repo repository.PostRepository
	log  *slog.Logger
	now  func() time.Time
}

func NewService(repo repository.PostRepository, log *slog.Logger) *Service {
	if log == nil {
		log = logging.Discard()
	}
	return &Service{repo: repo, log: log, now: time.Now}
}

// List returns every post on the board, newest first. Visibility is not
// restricted by owner: any authenticated account reads the whole board.
func (s *Service) List(ctx context.Context) ([]models.Post, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, owner models.AccountRef, title, body string) (*models.Post, error) {
	if err := validate(title, body); err != nil {
		return nil, err
	}

	now := s.timestamp()
	post := &models.Post{
		ID:        uuid.New(),
		Title:     title,
		Body:      body,
		Owner:     owner,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, post); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// the resolved owner vanished between resolution and insert
			return nil, common.ErrUnauthenticated
		}
		return nil, err
	}

	s.log.InfoContext(ctx, "post created", "post_id", post.ID, "account_id", owner.ID)
	return post, nil
}

func (s *Service) Update(ctx context.Context, caller models.AccountRef, id uuid.UUID, title, body string) (*models.Post, error) {
	post, err := s.authorize(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if err := validate(title, body); err != nil {
		return nil, err
	}

	post.Title = title
	post.Body = body
	post.UpdatedAt = s.timestamp()

	if err := s.repo.Update(ctx, post); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "post updated", "post_id", post.ID, "account_id", caller.ID)
	return post, nil
}

func (s *Service) Delete(ctx context.Context, caller models.AccountRef, id uuid.UUID) error {
	if _, err := s.authorize(ctx, caller, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id, caller.ID); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "post deleted", "post_id", id, "account_id", caller.ID)
	return nil
}

// authorize loads the post and checks that caller owns it. The repository
// write that follows repeats the owner condition, so a post that changes
// hands or disappears in between is reported as not found.
func (s *Service) authorize(ctx context.Context, caller models.AccountRef, id uuid.UUID) (*models.Post, error) {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !post.OwnedBy(caller.ID) {
		s.log.WarnContext(ctx, "post access denied", "post_id", id, "account_id", caller.ID)
		return nil, common.ErrForbidden
	}
	return post, nil
}

// timestamp is truncated to the store's microsecond precision so a value
// read back compares equal to the one written.
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func validate(title, body string) error {
	var missing []string
	if strings.TrimSpace(title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(body) == "" {
		missing = append(missing, "body")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", common.ErrValidation, strings.Join(missing, " and "))
	}
	// Postgres TEXT cannot hold NUL
	if strings.ContainsRune(title, 0) || strings.ContainsRune(body, 0) {
		return fmt.Errorf("%w: title and body must not contain NUL characters", common.ErrValidation)
	}
	return nil
}
