package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamasit07/wishplace/backend/internal/domain"
	"github.com/iamasit07/wishplace/backend/pkg/auth"
)

type testEnv struct {
	svc      *AuthService
	users    *fakeUsers
	sessions *fakeSessions
	cache    *fakeCache
	now      time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		users:    newFakeUsers(),
		sessions: newFakeSessions(),
		cache:    newFakeCache(),
		now:      time.Now().Truncate(time.Second),
	}
	env.svc = NewAuthService(env.users, env.sessions, env.cache, Options{
		Issuer:     auth.NewIssuer("test-secret", 30*24*time.Hour),
		TokenTTL:   30 * 24 * time.Hour,
		EdgeMaxAge: 6 * time.Hour,
		BcryptCost: 4,
		Now:        func() time.Time { return env.now },
		Logger:     zerolog.Nop(),
	})
	return env
}

func TestRegisterAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.svc.Register(ctx, RegisterInput{
		Username: " ploy ",
		Name:     "Ploy",
		Email:    "ploy@example.com",
		Password: "temple123",
	}, ClientMeta{DeviceInfo: "Safari on iOS", IPAddress: "127.0.0.1"})
	require.NoError(t, err)
	assert.Equal(t, "ploy", res.User.Username)
	assert.NotEmpty(t, res.Token)

	_, err = env.svc.Register(ctx, RegisterInput{Username: "ploy", Email: "x@example.com", Password: "temple123"}, ClientMeta{})
	assert.ErrorIs(t, err, ErrUserExists)

	_, err = env.svc.Login(ctx, "ploy", "wrong-pass1", ClientMeta{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.svc.Login(ctx, "nobody", "temple123", ClientMeta{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	res, err = env.svc.Login(ctx, "PLOY@example.com", "temple123", ClientMeta{})
	require.NoError(t, err)
	assert.Equal(t, "ploy", res.User.Username)
}

func TestRegister_InvalidInput(t *testing.T) {
	env := newTestEnv(t)
	for _, in := range []RegisterInput{
		{Username: "ab", Email: "a@b.c", Password: "temple123"},
		{Username: "abc", Email: "nope", Password: "temple123"},
		{Username: "abc", Email: "a@b.c", Password: "short"},
	} {
		_, err := env.svc.Register(context.Background(), in, ClientMeta{})
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
}

func TestStartSession_SingleLoginInstant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.svc.Register(ctx, RegisterInput{Username: "ploy", Email: "ploy@example.com", Password: "temple123"}, ClientMeta{})
	require.NoError(t, err)

	claims, err := env.svc.ValidateToken(ctx, res.Token)
	require.NoError(t, err)

	assert.True(t, res.LoginAt.Equal(env.now))
	assert.True(t, res.Session.CreatedAt.Equal(res.LoginAt))
	assert.True(t, claims.IssuedInstant().Equal(res.LoginAt))
	assert.Equal(t, res.Session.SessionID, claims.SessionID)

	stored, err := env.sessions.GetSessionByID(ctx, claims.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.ProviderCredentials, stored.Provider)
}

func TestLogout_BlocklistsSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.svc.Register(ctx, RegisterInput{Username: "ploy", Email: "ploy@example.com", Password: "temple123"}, ClientMeta{})
	require.NoError(t, err)

	require.NoError(t, env.svc.Logout(ctx, res.Session.SessionID))
	assert.Equal(t, 6*time.Hour, env.cache.ttl[blockedSessionKeyPrefix+res.Session.SessionID])

	_, err = env.svc.ValidateToken(ctx, res.Token)
	assert.ErrorIs(t, err, auth.ErrNoSession)

	stored, _ := env.sessions.GetSessionByID(ctx, res.Session.SessionID)
	assert.False(t, stored.IsActive)

	assert.ErrorIs(t, env.svc.Logout(ctx, ""), auth.ErrNoSession)
}

func TestLogout_RepositoryFailure(t *testing.T) {
	env := newTestEnv(t)
	env.sessions.failWith = errors.New("db down")
	err := env.svc.Logout(context.Background(), "abc")
	require.Error(t, err)
	assert.False(t, errors.Is(err, auth.ErrNoSession))
}

func TestValidateToken_CacheOutageIsNotNoSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.svc.Register(ctx, RegisterInput{Username: "ploy", Email: "ploy@example.com", Password: "temple123"}, ClientMeta{})
	require.NoError(t, err)

	env.cache.failGet = errors.New("connection refused")
	_, err = env.svc.ValidateToken(ctx, res.Token)
	require.Error(t, err)
	assert.False(t, errors.Is(err, auth.ErrNoSession))
}

func TestValidateToken_LoggedOutWithoutCache(t *testing.T) {
	env := newTestEnv(t)
	env.svc = NewAuthService(env.users, env.sessions, nil, Options{
		Issuer:     auth.NewIssuer("test-secret", 30*24*time.Hour),
		TokenTTL:   30 * 24 * time.Hour,
		EdgeMaxAge: 6 * time.Hour,
		BcryptCost: 4,
		Now:        func() time.Time { return env.now },
		Logger:     zerolog.Nop(),
	})
	ctx := context.Background()

	res, err := env.svc.Register(ctx, RegisterInput{Username: "ploy", Email: "ploy@example.com", Password: "temple123"}, ClientMeta{})
	require.NoError(t, err)
	_, err = env.svc.ValidateToken(ctx, res.Token)
	require.NoError(t, err)

	require.NoError(t, env.svc.Logout(ctx, res.Session.SessionID))
	_, err = env.svc.ValidateToken(ctx, res.Token)
	assert.ErrorIs(t, err, auth.ErrNoSession)
}

func TestValidateToken_UnknownSessionRow(t *testing.T) {
	env := newTestEnv(t)
	token, err := auth.NewIssuer("test-secret", time.Hour).Issue(1, "ploy", "no-such-session", env.now)
	require.NoError(t, err)

	_, err = env.svc.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, auth.ErrNoSession)
}

func TestValidateToken_SessionLookupFailureIsNotNoSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.svc.Register(ctx, RegisterInput{Username: "ploy", Email: "ploy@example.com", Password: "temple123"}, ClientMeta{})
	require.NoError(t, err)

	env.sessions.failGet = errors.New("db down")
	_, err = env.svc.ValidateToken(ctx, res.Token)
	require.Error(t, err)
	assert.False(t, errors.Is(err, auth.ErrNoSession))
}

func TestLoginWithGoogle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.LoginWithGoogle(ctx, GoogleIdentity{ID: "g1", Email: "mint@example.com"}, ClientMeta{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	res, err := env.svc.LoginWithGoogle(ctx, GoogleIdentity{
		ID: "g1", Email: "mint@example.com", VerifiedEmail: true, Name: "Mint", Picture: "https://img/p.png",
	}, ClientMeta{})
	require.NoError(t, err)
	assert.Equal(t, "mint", res.User.Username)
	assert.Equal(t, domain.ProviderGoogle, res.Session.Provider)

	// A credentials user with the same email gets linked instead of duplicated.
	_, err = env.svc.Register(ctx, RegisterInput{Username: "somchai", Email: "somchai@example.com", Password: "temple123"}, ClientMeta{})
	require.NoError(t, err)
	res, err = env.svc.LoginWithGoogle(ctx, GoogleIdentity{ID: "g2", Email: "somchai@example.com", VerifiedEmail: true}, ClientMeta{})
	require.NoError(t, err)
	assert.Equal(t, "somchai", res.User.Username)
	linked, _ := env.users.GetUserByEmail(ctx, "somchai@example.com")
	assert.Equal(t, "g2", linked.GoogleID)
}

func TestUsernameFromEmail_AvoidsCollisions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.users.CreateUser(ctx, &domain.User{Username: "mint"}))
	assert.Equal(t, "mint1", env.svc.usernameFromEmail(ctx, "mint@example.com"))
	assert.Equal(t, "abuser", env.svc.usernameFromEmail(ctx, "ab@example.com"))
}
