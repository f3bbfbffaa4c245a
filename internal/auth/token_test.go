package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerifyToken(t *testing.T) {
	secret := []byte("s3cret")
	id := uuid.New()
	now := time.Now()

	tok, exp, err := GenerateToken(id, "alice", secret, time.Minute, now)
	require.NoError(t, err)
	assert.NotEmpty(t, tok)
	assert.WithinDuration(t, now.Add(time.Minute), exp, time.Second)

	claims, err := VerifyToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, id, claims.AccountID())
	assert.Equal(t, "alice", claims.Handle)
	assert.NotEmpty(t, claims.ID)
}

func TestGenerateToken_UniquePerCall(t *testing.T) {
	secret := []byte("s3cret")
	id := uuid.New()
	now := time.Now()

	a, _, err := GenerateToken(id, "alice", secret, time.Minute, now)
	require.NoError(t, err)
	b, _, err := GenerateToken(id, "alice", secret, time.Minute, now)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestGenerateToken_NoSecret(t *testing.T) {
	_, _, err := GenerateToken(uuid.New(), "alice", nil, time.Minute, time.Now())
	assert.Error(t, err)
}

func TestVerifyToken_Rejects(t *testing.T) {
	secret := []byte("s3cret")
	id := uuid.New()

	expired, _, err := GenerateToken(id, "alice", secret, time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)

	otherKey, _, err := GenerateToken(id, "alice", []byte("other"), time.Minute, time.Now())
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Handle:           "alice",
		RegisteredClaims: jwt.RegisteredClaims{Subject: id.String()},
	}).SignedString(secret)
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		Handle: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}).SignedString(secret)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"wrong key", otherKey},
		{"no expiry", noExp},
		{"wrong algorithm", hs512},
		{"garbage", "not.a.jwt"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := VerifyToken(tt.token, secret)
			assert.Error(t, err)
		})
	}
}

func TestClaims_AccountID_Malformed(t *testing.T) {
	c := &Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "42"}}
	assert.Equal(t, uuid.Nil, c.AccountID())
}
