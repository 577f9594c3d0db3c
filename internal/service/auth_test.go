package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/bookshelf/internal/apperror"
	"github.com/sakif/bookshelf/internal/auth"
	sqliterepo "github.com/sakif/bookshelf/internal/repository/sqlite"
	"github.com/sakif/bookshelf/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRepo(t *testing.T) *sqliterepo.DB {
	t.Helper()
	db, err := sqliterepo.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newAuthService(t *testing.T) (*service.AuthService, *sqliterepo.DB) {
	t.Helper()
	db := newTestRepo(t)
	passwords := auth.NewPasswordServiceWithCost(4)
	return service.NewAuthService(db, passwords, testLogger()), db
}

func TestSignupThenLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	created, err := svc.Signup(ctx, "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "alice", created.Username)

	user, err := svc.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
}

func TestSignup_TrimsWhitespace(t *testing.T) {
	svc, _ := newAuthService(t)

	user, err := svc.Signup(context.Background(), "  alice  ", " alice@example.com ", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
}

func TestSignup_MissingFields(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	tests := []struct {
		name                      string
		username, email, password string
	}{
		{"missing username", "", "a@example.com", "pw"},
		{"missing email", "alice", "", "pw"},
		{"missing password", "alice", "a@example.com", ""},
		{"malformed email", "alice", "not-an-address", "pw"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(ctx, tt.username, tt.email, tt.password)
			assert.ErrorIs(t, err, apperror.ErrValidation)
		})
	}
}

func TestSignup_DuplicateMessages(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "alice", "alice@example.com", "pw")
	require.NoError(t, err)

	// Same username, different email.
	_, err = svc.Signup(ctx, "alice", "other@example.com", "pw")
	require.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, "Username already taken", err.Error())

	// Same email, different username.
	_, err = svc.Signup(ctx, "bob", "alice@example.com", "pw")
	require.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, "Email already registered", err.Error())

	// Both taken: the username wins.
	_, err = svc.Signup(ctx, "alice", "alice@example.com", "pw")
	require.ErrorIs(t, err, apperror.ErrConflict)
	assert.Equal(t, "Username already taken", err.Error())
}

func TestLogin_Failures(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "alice", "alice@example.com", "s3cret")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "nobody", "s3cret")
	require.ErrorIs(t, err, apperror.ErrUnauthorized)
	assert.Equal(t, "Invalid username", err.Error())

	_, err = svc.Login(ctx, "alice", "wrong")
	require.ErrorIs(t, err, apperror.ErrUnauthorized)
	assert.Equal(t, "Invalid password", err.Error())
}

func TestLogin_OAuthOnlyAccountHasNoPassword(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.LoginWithGitHub(ctx, &auth.GitHubUser{ID: 42, Login: "octo"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, "octo", "")
	require.ErrorIs(t, err, apperror.ErrUnauthorized)
	assert.Equal(t, "Invalid password", err.Error())
}

func TestCurrentUser_StaleSession(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.CurrentUser(context.Background(), "gone")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestLoginWithGitHub_FindOrCreate(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()
	gh := &auth.GitHubUser{ID: 42, Login: "octo", Email: "octo@example.com"}

	first, err := svc.LoginWithGitHub(ctx, gh)
	require.NoError(t, err)
	assert.Equal(t, "octo", first.Username)
	assert.Empty(t, first.PasswordHash)

	// Second login with the same GitHub id resolves to the same account.
	second, err := svc.LoginWithGitHub(ctx, gh)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestLoginWithGitHub_UsernameCollision(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "octo", "human@example.com", "pw")
	require.NoError(t, err)

	user, err := svc.LoginWithGitHub(ctx, &auth.GitHubUser{ID: 42, Login: "octo"})
	require.NoError(t, err)
	assert.NotEqual(t, "octo", user.Username)
	assert.Contains(t, user.Username, "octo-")
}
