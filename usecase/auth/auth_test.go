package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/taskboard/domain"
	"github.com/fastygo/taskboard/repository/memory"
	"github.com/fastygo/taskboard/usecase/auth"
)

func newAuth() *auth.UseCase {
	return auth.New(memory.NewUserRepository(), memory.NewSessionRepository(time.Hour), auth.Config{
		Secret:     "test-secret",
		Issuer:     "taskboard-test",
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, nil)
}

func TestRegisterLoginResolve(t *testing.T) {
	ctx := context.Background()
	uc := newAuth()

	identity, err := uc.Register(ctx, "alice", "Alice@Example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", identity.Email)

	token, err := uc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "bearer", token.TokenType)
	assert.True(t, token.ExpiresAt.After(time.Now()))

	resolved, err := uc.Resolve(ctx, token.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, identity.ID, resolved.ID)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	uc := newAuth()

	_, err := uc.Register(ctx, "alice", "alice@example.com", "password123")
	require.NoError(t, err)
	_, err = uc.Register(ctx, "alice2", "ALICE@example.com", "password456")
	assert.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	uc := newAuth()
	_, err := uc.Register(ctx, "alice", "alice@example.com", "password123")
	require.NoError(t, err)

	_, err = uc.Login(ctx, "alice@example.com", "wrong")
	assert.ErrorIs(t, err, domain.ErrBadCredentials)

	_, err = uc.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, domain.ErrBadCredentials)
}

func TestLogoutRevokesToken(t *testing.T) {
	ctx := context.Background()
	uc := newAuth()
	_, err := uc.Register(ctx, "alice", "alice@example.com", "password123")
	require.NoError(t, err)
	token, err := uc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)

	require.NoError(t, uc.Logout(ctx, token.AccessToken))
	_, err = uc.Resolve(ctx, token.AccessToken)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestResolveRejectsForeignTokens(t *testing.T) {
	ctx := context.Background()
	uc := newAuth()

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        "session",
		Subject:   "user",
		Issuer:    "taskboard-test",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	for name, token := range map[string]string{
		"empty":        "",
		"garbage":      "not-a-jwt",
		"wrong secret": forged,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := uc.Resolve(ctx, token)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}

func TestResolveRequiresLiveSession(t *testing.T) {
	ctx := context.Background()
	uc := newAuth()

	// correctly signed, but no session was ever stored for it
	unknown, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ID:        "never-issued",
		Subject:   "user",
		Issuer:    "taskboard-test",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = uc.Resolve(ctx, unknown)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
