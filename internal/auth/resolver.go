package auth

import (
	"context"

	"github.com/vaughan-dsouza/board/internal/common"
	"github.com/vaughan-dsouza/board/internal/models"
)

// Resolve maps an access token to the account it was issued for. Every
// failure, whether a bad signature, an expired token, an unknown handle or a
// store error, is reported as common.ErrUnauthenticated so callers cannot
// tell them apart.
func (s *Service) Resolve(ctx context.Context, credential string) (models.AccountRef, error) {
	if credential == "" {
		return models.AccountRef{}, common.ErrUnauthenticated
	}

	claims, err := VerifyToken(credential, s.opts.AccessSecret)
	if err != nil {
		s.log.DebugContext(ctx, "credential rejected", "error", err)
		return models.AccountRef{}, common.ErrUnauthenticated
	}

	account, err := s.accounts.FindByHandle(ctx, claims.Handle)
	if err != nil {
		s.log.DebugContext(ctx, "credential rejected", "handle", claims.Handle, "error", err)
		return models.AccountRef{}, common.ErrUnauthenticated
	}

	// the handle must still belong to the account the token was issued to
	if account.ID != claims.AccountID() {
		s.log.WarnContext(ctx, "credential subject mismatch", "handle", claims.Handle)
		return models.AccountRef{}, common.ErrUnauthenticated
	}

	return account.Ref(), nil
}
