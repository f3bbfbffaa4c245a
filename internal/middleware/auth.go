package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/vaughan-dsouza/board/internal/common"
	"github.com/vaughan-dsouza/board/internal/models"
	"github.com/vaughan-dsouza/board/internal/utils"
)

// SessionCookieName carries the access token for clients that do not send an
// Authorization header.
const SessionCookieName = "board_session"

// Resolver turns a request credential into the account it identifies.
type Resolver interface {
	Resolve(ctx context.Context, credential string) (models.AccountRef, error)
}

type ctxKeyAccount struct{}

type ctxKeyAccountSlot struct{}

// accountSlot is planted by outer middleware (access log, metrics) that need
// the account id after the inner chain has run.
type accountSlot struct {
	id  string
	set bool
}

func withAccountSlot(ctx context.Context, slot *accountSlot) context.Context {
	return context.WithValue(ctx, ctxKeyAccountSlot{}, slot)
}

func WithAccount(ctx context.Context, ref models.AccountRef) context.Context {
	return context.WithValue(ctx, ctxKeyAccount{}, ref)
}

// AccountFrom returns the account resolved for the request, if any.
func AccountFrom(ctx context.Context) (models.AccountRef, bool) {
	ref, ok := ctx.Value(ctxKeyAccount{}).(models.AccountRef)
	return ref, ok
}

// Authenticate rejects the request with 401 unless its credential resolves
// to an account; the account is then available through AccountFrom.
func Authenticate(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ref, err := resolver.Resolve(r.Context(), Credential(r))
			if err != nil {
				utils.JSONError(w, http.StatusUnauthorized, common.ErrUnauthenticated.Error())
				return
			}

			if slot, ok := r.Context().Value(ctxKeyAccountSlot{}).(*accountSlot); ok {
				slot.id, slot.set = ref.ID.String(), true
			}

			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), ref)))
		})
	}
}

// Credential extracts the bearer token, falling back to the session cookie.
// An Authorization header that is present but malformed yields "", it never
// falls through to the cookie.
func Credential(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return ""
		}
		return strings.TrimSpace(parts[1])
	}

	if c, err := r.Cookie(SessionCookieName); err == nil {
		return c.Value
	}
	return ""
}
