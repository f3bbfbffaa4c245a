// Package auth owns accounts and sessions: registration, password login,
// refresh-token rotation and the identity resolver that turns a request
// credential into an account reference.
package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/vaughan-dsouza/board/internal/common"
	"github.com/vaughan-dsouza/board/internal/logging"
	"github.com/vaughan-dsouza/board/internal/models"
	"github.com/vaughan-dsouza/board/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

const maxHandleLen = 64

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

type Options struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost when zero.
	BcryptCost int
}

type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int64     `json:"expires_in"`
	AccessExpiry time.Time `json:"-"`
}

type Service struct {
	accounts repository.AccountRepository
	tokens   repository.RefreshTokenRepository
	opts     Options
	log      *slog.Logger
	now      func() time.Time

	// compared against when the handle is unknown so both login failures
	// cost one bcrypt comparison
	dummyHash []byte
}

func NewService(accounts repository.AccountRepository, tokens repository.RefreshTokenRepository, opts Options, log *slog.Logger) (*Service, error) {
	if len(opts.AccessSecret) == 0 || len(opts.RefreshSecret) == 0 {
		return nil, errors.New("auth: access and refresh secrets are required")
	}
	if bytes.Equal(opts.AccessSecret, opts.RefreshSecret) {
		return nil, errors.New("auth: access and refresh secrets must differ")
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if log == nil {
		log = logging.Discard()
	}

	dummy, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}

	return &Service{
		accounts:  accounts,
		tokens:    tokens,
		opts:      opts,
		log:       log,
		now:       time.Now,
		dummyHash: dummy,
	}, nil
}

// -------------- REGISTER ----------------------

func (s *Service) Register(ctx context.Context, handle, password string) (*models.Account, error) {
	handle = strings.TrimSpace(handle)

	if handle == "" || password == "" {
		return nil, fmt.Errorf("%w: handle and password required", common.ErrValidation)
	}
	if utf8.RuneCountInString(handle) > maxHandleLen {
		return nil, fmt.Errorf("%w: handle must be at most %d characters", common.ErrValidation, maxHandleLen)
	}

	if len(password) > maxPasswordBytes {
		return nil, fmt.Errorf("%w: password must be at most %d bytes", common.ErrValidation, maxPasswordBytes)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &models.Account{
		ID:           uuid.New(),
		Handle:       handle,
		PasswordHash: string(hash),
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "account registered", "account_id", account.ID, "handle", account.Handle)
	return account, nil
}

// -------------- LOGIN ------------------------

func (s *Service) Login(ctx context.Context, handle, password string) (*TokenPair, error) {
	handle = strings.TrimSpace(handle)

	account, err := s.accounts.FindByHandle(ctx, handle)
	if errors.Is(err, common.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		s.log.WarnContext(ctx, "login failed", "handle", handle, "reason", "unknown handle")
		return nil, common.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		s.log.WarnContext(ctx, "login failed", "handle", handle, "reason", "bad password")
		return nil, common.ErrInvalidCredentials
	}

	pair, refreshExp, err := s.issue(account)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Create(ctx, account.ID, pair.RefreshToken, refreshExp); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "login ok", "account_id", account.ID)
	return pair, nil
}

// ---------------- REFRESH ---------------------

// Refresh exchanges a live refresh token for a new pair. The presented token
// is revoked in the same step.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := VerifyToken(refreshToken, s.opts.RefreshSecret)
	if err != nil {
		return nil, common.ErrInvalidToken
	}
	accountID := claims.AccountID()

	ok, err := s.tokens.Exists(ctx, accountID, refreshToken)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrInvalidToken
	}

	account, err := s.accounts.FindByID(ctx, accountID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}

	pair, refreshExp, err := s.issue(account)
	if err != nil {
		return nil, err
	}

	err = s.tokens.Rotate(ctx, accountID, refreshToken, pair.RefreshToken, refreshExp)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}

	return pair, nil
}

// -------------- LOGOUT -----------------------

// Logout revokes a refresh token held by caller.
func (s *Service) Logout(ctx context.Context, caller uuid.UUID, refreshToken string) error {
	claims, err := VerifyToken(refreshToken, s.opts.RefreshSecret)
	if err != nil || claims.AccountID() != caller {
		return common.ErrInvalidToken
	}
	if err := s.tokens.Delete(ctx, refreshToken); err != nil {
		return err
	}
	s.log.InfoContext(ctx, "logout", "account_id", caller)
	return nil
}

// -------------- ME ----------------------------

func (s *Service) Me(ctx context.Context, accountID uuid.UUID) (*models.Account, error) {
	return s.accounts.FindByID(ctx, accountID)
}

func (s *Service) AccessTTL() time.Duration { return s.opts.AccessTTL }

// issue mints an access/refresh pair; the refresh expiry is returned for the
// server-side record.
func (s *Service) issue(account *models.Account) (*TokenPair, time.Time, error) {
	now := s.now()

	access, accessExp, err := GenerateToken(account.ID, account.Handle, s.opts.AccessSecret, s.opts.AccessTTL, now)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("token error: %w", err)
	}

	refresh, refreshExp, err := GenerateToken(account.ID, account.Handle, s.opts.RefreshSecret, s.opts.RefreshTTL, now)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("token error: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    accessExp.Unix(),
		AccessExpiry: accessExp,
	}, refreshExp, nil
}
