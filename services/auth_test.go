package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRegisterIssuesVerifiableToken(t *testing.T) {
	f := newFixture(t)
	sess, err := f.auth.Register(context.Background(), "  ann@example.com ", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "ann@example.com", sess.User.Email)
	assert.False(t, sess.User.IsAdmin)
	assert.NotEqual(t, "secret1", sess.User.PasswordHash)

	id, err := f.auth.Verify(sess.Token)
	require.NoError(t, err)
	assert.Equal(t, Identity{UserID: sess.User.ID, Email: "ann@example.com"}, id)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, tc := range []struct{ email, password string }{
		{"", "secret1"},
		{"ann@example.com", ""},
		{"ann@example.com", "12345"},
	} {
		_, err := f.auth.Register(ctx, tc.email, tc.password)
		assert.ErrorIs(t, err, ErrValidation, "%q/%q", tc.email, tc.password)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.Register(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)

	_, err = f.auth.Register(ctx, "ann@example.com", "another")
	require.ErrorIs(t, err, ErrConflict)
	assert.EqualError(t, err, "Email already registered")
}

func TestLoginFailuresLookIdentical(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.auth.Register(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)

	_, unknown := f.auth.Login(ctx, "bob@example.com", "secret1")
	_, wrong := f.auth.Login(ctx, "ann@example.com", "wrong-pass")
	require.ErrorIs(t, unknown, ErrAuth)
	require.ErrorIs(t, wrong, ErrAuth)
	assert.Equal(t, unknown.Error(), wrong.Error())

	sess, err := f.auth.Login(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", sess.User.Email)
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	f := newFixture(t)
	sess, err := f.auth.Register(context.Background(), "ann@example.com", "secret1")
	require.NoError(t, err)

	_, err = f.auth.Verify("")
	assert.ErrorIs(t, err, ErrAuth)
	_, err = f.auth.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrAuth)

	other := NewAuthService(f.store, "other-secret", 0, WithBcryptCost(bcrypt.MinCost))
	_, err = other.Verify(sess.Token)
	assert.ErrorIs(t, err, ErrAuth)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{ID: sess.User.ID})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = f.auth.Verify(unsigned)
	assert.ErrorIs(t, err, ErrAuth)
}

func TestTokenExpiresAfterTTL(t *testing.T) {
	f := newFixture(t)
	issued := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	now := issued
	svc := NewAuthService(f.store, "test-secret", 0,
		WithBcryptCost(bcrypt.MinCost), WithClock(func() time.Time { return now }))

	sess, err := svc.Register(context.Background(), "ann@example.com", "secret1")
	require.NoError(t, err)

	now = issued.Add(7*24*time.Hour - time.Minute)
	_, err = svc.Verify(sess.Token)
	require.NoError(t, err)

	now = issued.Add(7*24*time.Hour + time.Minute)
	_, err = svc.Verify(sess.Token)
	assert.ErrorIs(t, err, ErrAuth)
}

func TestSeedAdminIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.auth.SeedAdmin(ctx, "admin@example.com", "admin123")
	require.NoError(t, err)
	assert.True(t, created)
	created, err = f.auth.SeedAdmin(ctx, "admin@example.com", "changed")
	require.NoError(t, err)
	assert.False(t, created)

	sess, err := f.auth.Login(ctx, "admin@example.com", "admin123")
	require.NoError(t, err)
	assert.True(t, sess.User.IsAdmin)

	id, err := f.auth.Verify(sess.Token)
	require.NoError(t, err)
	assert.True(t, id.IsAdmin)
}

func TestMe(t *testing.T) {
	f := newFixture(t)
	id := f.identity(t, "ann@example.com")

	u, err := f.auth.Me(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", u.Email)

	_, err = f.auth.Me(context.Background(), Identity{UserID: 999})
	assert.ErrorIs(t, err, ErrNotFound)
}
