package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/vaughan-dsouza/board/internal/auth"
	"github.com/vaughan-dsouza/board/internal/common"
	"github.com/vaughan-dsouza/board/internal/logging"
	"github.com/vaughan-dsouza/board/internal/models"
	"github.com/vaughan-dsouza/board/internal/repository"
	"github.com/vaughan-dsouza/board/internal/utils"
)

// AuthService is the account and session side used by AuthHandler.
type AuthService interface {
	Register(ctx context.Context, handle, password string) (*models.Account, error)
	Login(ctx context.Context, handle, password string) (*auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	Logout(ctx context.Context, caller uuid.UUID, refreshToken string) error
	Me(ctx context.Context, accountID uuid.UUID) (*models.Account, error)
	AccessTTL() time.Duration
}

// PostService is the post store with its ownership gate.
type PostService interface {
	List(ctx context.Context) ([]models.Post, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Post, error)
	Create(ctx context.Context, owner models.AccountRef, title, body string) (*models.Post, error)
	Update(ctx context.Context, caller models.AccountRef, id uuid.UUID, title, body string) (*models.Post, error)
	Delete(ctx context.Context, caller models.AccountRef, id uuid.UUID) error
}

type Handler struct {
	Auth   *AuthHandler
	Posts  *PostHandler
	Health *HealthHandler
}

type Options struct {
	// CookieSecure sets the Secure flag on the session cookie.
	CookieSecure bool
}

func NewHandler(authSvc AuthService, postSvc PostService, store repository.Pinger, opts Options, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handler{
		Auth:   NewAuthHandler(authSvc, opts.CookieSecure, logger),
		Posts:  NewPostHandler(postSvc, logger),
		Health: NewHealthHandler(store),
	}
}

// writeError maps a service error onto a status code and the JSON error body.
// Anything unrecognised is a store failure: the cause is logged and the client
// gets a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, common.ErrValidation):
		utils.JSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrUnauthenticated):
		utils.JSONError(w, http.StatusUnauthorized, common.ErrUnauthenticated.Error())
	case errors.Is(err, common.ErrInvalidCredentials):
		utils.JSONError(w, http.StatusUnauthorized, common.ErrInvalidCredentials.Error())
	case errors.Is(err, common.ErrInvalidToken):
		utils.JSONError(w, http.StatusUnauthorized, common.ErrInvalidToken.Error())
	case errors.Is(err, common.ErrForbidden):
		utils.JSONError(w, http.StatusForbidden, common.ErrForbidden.Error())
	case errors.Is(err, common.ErrNotFound):
		utils.JSONError(w, http.StatusNotFound, common.ErrNotFound.Error())
	case errors.Is(err, common.ErrHandleTaken):
		utils.JSONError(w, http.StatusConflict, common.ErrHandleTaken.Error())
	default:
		logger.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		utils.JSONError(w, http.StatusInternalServerError, "internal server error")
	}
}
