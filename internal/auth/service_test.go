package auth

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"aegis-dashboard/internal/database"
	"aegis-dashboard/internal/models"
)

type testEnv struct {
	svc   *Service
	repos Repos
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(context.Background(), database.Config{Path: filepath.Join(t.TempDir(), "users.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repos := Repos{
		Users:    database.NewUserRepo(db),
		Sessions: database.NewSessionRepo(db),
		Settings: database.NewSettingsRepo(db),
		Audit:    database.NewAuditRepo(db),
	}
	svc := NewService(repos, NewHasher(bcrypt.MinCost), NewResetTokens("test-secret"), zap.NewNop())
	return &testEnv{svc: svc, repos: repos}
}

func (e *testEnv) signup(t *testing.T, username, email, password string) *models.User {
	t.Helper()
	u, err := e.svc.Signup(context.Background(), models.SignupRequest{
		Username: username,
		Email:    email,
		Password: password,
	}, "127.0.0.1")
	require.NoError(t, err)
	return u
}

func TestService_SignupThenLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.signup(t, "alice", "alice@example.com", "pw1")

	stored, err := env.repos.Users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.NotEqual(t, "pw1", stored.PasswordHash)

	resp, err := env.svc.Login(ctx, "alice", "pw1", "127.0.0.1", "ua")
	require.NoError(t, err)
	assert.Equal(t, u.ID, resp.User.ID)
	assert.NotEmpty(t, resp.Token)
	assert.Nil(t, resp.ExpiresAt, "sessions are unbounded by default")

	resp, err = env.svc.Login(ctx, "alice@example.com", "pw1", "127.0.0.1", "ua")
	require.NoError(t, err)
	assert.Equal(t, u.ID, resp.User.ID)

	user, session, err := env.svc.ValidateToken(ctx, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, user.ID)
	assert.Equal(t, u.ID, session.UserID)
}

func TestService_SignupDuplicates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signup(t, "alice", "alice@example.com", "pw1")

	_, err := env.svc.Signup(ctx, models.SignupRequest{Username: "alice", Email: "new@example.com", Password: "x"}, "")
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = env.svc.Signup(ctx, models.SignupRequest{Username: "bob", Email: "alice@example.com", Password: "x"}, "")
	assert.ErrorIs(t, err, ErrEmailTaken)

	count, err := env.repos.Users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = env.svc.Login(ctx, "alice", "pw1", "", "")
	assert.NoError(t, err, "original credentials still valid")
}

func TestService_SignupMissingFields(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Signup(context.Background(), models.SignupRequest{Username: "  ", Email: "a@b.c", Password: "x"}, "")
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestService_LoginFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.signup(t, "alice", "alice@example.com", "pw1")

	_, err := env.svc.Login(ctx, "alice", "wrong", "10.0.0.1", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.svc.Login(ctx, "nobody", "pw1", "10.0.0.1", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "unknown accounts look the same as bad passwords")

	failed, err := env.repos.Audit.List(ctx, models.AuditFilter{Action: models.ActionLoginFailed})
	require.NoError(t, err)
	require.Len(t, failed, 2)
	assert.Nil(t, failed[0].UserID)
	require.NotNil(t, failed[1].UserID)
	assert.Equal(t, u.ID, *failed[1].UserID)
}

func TestService_SessionTimeoutFromSettings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signup(t, "alice", "alice@example.com", "pw1")

	require.NoError(t, env.repos.Settings.SetInt(ctx, database.SettingSessionTimeout, 30))
	assert.Equal(t, 30*time.Minute, env.svc.SessionTimeout(ctx))

	resp, err := env.svc.Login(ctx, "alice", "pw1", "", "")
	require.NoError(t, err)
	require.NotNil(t, resp.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), *resp.ExpiresAt, time.Minute)
}

func TestService_Logout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signup(t, "alice", "alice@example.com", "pw1")

	resp, err := env.svc.Login(ctx, "alice", "pw1", "", "")
	require.NoError(t, err)

	require.NoError(t, env.svc.Logout(ctx, resp.Token, resp.User, ""))

	_, _, err = env.svc.ValidateToken(ctx, resp.Token)
	assert.ErrorIs(t, err, database.ErrSessionNotFound)
}

func TestService_ActiveSessions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.signup(t, "alice", "alice@example.com", "pw1")

	first, err := env.svc.Login(ctx, "alice", "pw1", "10.0.0.1", "laptop")
	require.NoError(t, err)
	second, err := env.svc.Login(ctx, "alice@example.com", "pw1", "10.0.0.2", "phone")
	require.NoError(t, err)
	_, _, err = env.repos.Sessions.Create(ctx, u.ID, "10.0.0.3", "stale", time.Millisecond)
	require.NoError(t, err)
	time.Sleep(10 * time.Millisecond)

	sessions, err := env.svc.ActiveSessions(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 2, "expired session left out")
	assert.Equal(t, "phone", sessions[0].UserAgent)
	assert.Equal(t, "laptop", sessions[1].UserAgent)

	require.NoError(t, env.svc.Logout(ctx, second.Token, second.User, ""))
	sessions, err = env.svc.ActiveSessions(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	_, current, err := env.svc.ValidateToken(ctx, first.Token)
	require.NoError(t, err)
	assert.Equal(t, current.ID, sessions[0].ID)
}

func TestService_PasswordResetFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.signup(t, "alice", "alice@example.com", "old-pw")

	token, err := env.svc.RequestPasswordReset(ctx, "alice@example.com", "")
	require.NoError(t, err)

	checked, err := env.svc.CheckResetToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, checked.ID)

	_, err = env.svc.ResetPassword(ctx, token, "new-pw", "")
	require.NoError(t, err)

	_, err = env.svc.Login(ctx, "alice", "old-pw", "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = env.svc.Login(ctx, "alice", "new-pw", "", "")
	assert.NoError(t, err)

	// The token was bound to the previous password.
	_, err = env.svc.ResetPassword(ctx, token, "third-pw", "")
	assert.ErrorIs(t, err, ErrInvalidResetToken)

	actions, err := env.repos.Audit.List(ctx, models.AuditFilter{UserID: &u.ID})
	require.NoError(t, err)
	var names []string
	for _, a := range actions {
		names = append(names, a.Action)
	}
	assert.Contains(t, names, models.ActionPasswordResetRequest)
	assert.Contains(t, names, models.ActionPasswordReset)
}

func TestService_PasswordResetUnknownEmail(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.RequestPasswordReset(context.Background(), "ghost@example.com", "")
	assert.ErrorIs(t, err, ErrUnknownEmail)
}

func TestService_ResetTokenForMissingAccount(t *testing.T) {
	env := newTestEnv(t)

	token, err := NewResetTokens("test-secret").Issue("ghost@example.com", "")
	require.NoError(t, err)

	_, err = env.svc.CheckResetToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrAccountGone)
}

func TestService_RecentActivity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	u := env.signup(t, "alice", "alice@example.com", "pw1")
	_, err := env.svc.Login(ctx, "alice", "pw1", "", "")
	require.NoError(t, err)

	logs, err := env.svc.RecentActivity(ctx, u.ID, 10)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.ActionLogin, logs[0].Action)
	assert.Equal(t, models.ActionSignup, logs[1].Action)
}
