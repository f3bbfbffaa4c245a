package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vaughan-dsouza/board/internal/common"
	"github.com/vaughan-dsouza/board/internal/models"
	"github.com/vaughan-dsouza/board/internal/repository"
	"github.com/vaughan-dsouza/board/internal/repository/memory"
	"golang.org/x/crypto/bcrypt"
)

var testOpts = Options{
	AccessSecret:  []byte("access-secret"),
	RefreshSecret: []byte("refresh-secret"),
	AccessTTL:     time.Minute,
	RefreshTTL:    time.Hour,
	BcryptCost:    bcrypt.MinCost,
}

func newTestService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	svc, err := NewService(store.Accounts(), store.RefreshTokens(), testOpts, nil)
	require.NoError(t, err)
	return svc, store
}

// failingAccounts fails every lookup with a store error.
type failingAccounts struct{ repository.AccountRepository }

func (failingAccounts) FindByHandle(context.Context, string) (*models.Account, error) {
	return nil, errors.New("db error: connection refused")
}

func TestNewService_RequiresSecrets(t *testing.T) {
	store := memory.New()
	_, err := NewService(store.Accounts(), store.RefreshTokens(), Options{AccessSecret: []byte("a")}, nil)
	assert.Error(t, err)
}

func TestNewService_RejectsSharedSecret(t *testing.T) {
	store := memory.New()
	opts := testOpts
	opts.RefreshSecret = opts.AccessSecret

	_, err := NewService(store.Accounts(), store.RefreshTokens(), opts, nil)
	assert.Error(t, err)
}

func TestRegister_LongestPasswordAccepted(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	pw := strings.Repeat("x", maxPasswordBytes)
	_, err := svc.Register(ctx, "carol", pw)
	require.NoError(t, err)

	_, err = svc.Login(ctx, "carol", pw)
	assert.NoError(t, err)
}

func TestRegister(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.Register(ctx, "  alice ", "pw1")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, a.ID)
	assert.Equal(t, "alice", a.Handle)
	assert.NotEqual(t, "pw1", a.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte("pw1")))

	_, err = svc.Register(ctx, "alice", "other")
	assert.ErrorIs(t, err, common.ErrHandleTaken)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	long := make([]byte, maxHandleLen+1)
	for i := range long {
		long[i] = 'a'
	}

	for _, tc := range []struct{ handle, password string }{
		{"", "pw"},
		{"   ", "pw"},
		{"alice", ""},
		{string(long), "pw"},
		{"carol", strings.Repeat("x", maxPasswordBytes+1)},
	} {
		_, err := svc.Register(ctx, tc.handle, tc.password)
		assert.ErrorIs(t, err, common.ErrValidation, "handle=%q", tc.handle)
	}
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.Register(ctx, "alice", "pw1")
	require.NoError(t, err)

	pair, err := svc.Login(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, pair.AccessExpiry.Unix(), pair.ExpiresIn)

	ref, err := svc.Resolve(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, a.Ref(), ref)
}

func TestLogin_InvalidCredentialsLookTheSame(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "pw1")
	require.NoError(t, err)

	_, errBadPw := svc.Login(ctx, "alice", "wrong")
	_, errNoUser := svc.Login(ctx, "nobody", "pw1")

	assert.ErrorIs(t, errBadPw, common.ErrInvalidCredentials)
	assert.ErrorIs(t, errNoUser, common.ErrInvalidCredentials)
	assert.Equal(t, errBadPw.Error(), errNoUser.Error())
}

func TestResolve_FailsClosed(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.Register(ctx, "alice", "pw1")
	require.NoError(t, err)

	refreshOnly, _, err := GenerateToken(a.ID, a.Handle, testOpts.RefreshSecret, time.Minute, time.Now())
	require.NoError(t, err)
	expired, _, err := GenerateToken(a.ID, a.Handle, testOpts.AccessSecret, time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	ghost, _, err := GenerateToken(uuid.New(), "ghost", testOpts.AccessSecret, time.Minute, time.Now())
	require.NoError(t, err)
	mismatch, _, err := GenerateToken(uuid.New(), "alice", testOpts.AccessSecret, time.Minute, time.Now())
	require.NoError(t, err)

	tests := []struct {
		name string
		cred string
	}{
		{"absent", ""},
		{"malformed", "abc"},
		{"signed with refresh secret", refreshOnly},
		{"expired", expired},
		{"unknown handle", ghost},
		{"subject does not own handle", mismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := svc.Resolve(ctx, tt.cred)
			assert.ErrorIs(t, err, common.ErrUnauthenticated)
			assert.Equal(t, models.AccountRef{}, ref)
		})
	}
}

func TestResolve_StoreErrorIsUnauthenticated(t *testing.T) {
	store := memory.New()
	svc, err := NewService(failingAccounts{store.Accounts()}, store.RefreshTokens(), testOpts, nil)
	require.NoError(t, err)

	tok, _, err := GenerateToken(uuid.New(), "alice", testOpts.AccessSecret, time.Minute, time.Now())
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), tok)
	assert.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestRefresh_RotatesToken(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "pw1")
	require.NoError(t, err)
	pair, err := svc.Login(ctx, "alice", "pw1")
	require.NoError(t, err)

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken, "old refresh token must be revoked")

	_, err = svc.Refresh(ctx, next.RefreshToken)
	assert.NoError(t, err)
}

func TestRefresh_RejectsAccessTokenAndGarbage(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "pw1")
	require.NoError(t, err)
	pair, err := svc.Login(ctx, "alice", "pw1")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = svc.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestLogout(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	alice, err := svc.Register(ctx, "alice", "pw1")
	require.NoError(t, err)
	bob, err := svc.Register(ctx, "bob", "pw2")
	require.NoError(t, err)

	pair, err := svc.Login(ctx, "alice", "pw1")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Logout(ctx, bob.ID, pair.RefreshToken), common.ErrInvalidToken)

	require.NoError(t, svc.Logout(ctx, alice.ID, pair.RefreshToken))

	_, err = svc.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestMe(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a, err := svc.Register(ctx, "alice", "pw1")
	require.NoError(t, err)

	got, err := svc.Me(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Handle)

	_, err = svc.Me(ctx, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}
