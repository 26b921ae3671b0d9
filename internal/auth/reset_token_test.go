package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResetTokens_IssueAndParse(t *testing.T) {
	t.Parallel()

	rt := NewResetTokens("secret")
	tok, err := rt.Issue("alice@example.com", "hash-1")
	require.NoError(t, err)

	claims, err := rt.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, PasswordFingerprint("hash-1"), claims.Fingerprint)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, ResetTokenTTL, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestResetTokens_UniquePerIssue(t *testing.T) {
	t.Parallel()

	rt := NewResetTokens("secret")
	a, err := rt.Issue("alice@example.com", "hash-1")
	require.NoError(t, err)
	b, err := rt.Issue("alice@example.com", "hash-1")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestResetTokens_Expired(t *testing.T) {
	t.Parallel()

	issuer := NewResetTokens("secret")
	issuer.now = func() time.Time { return time.Now().Add(-ResetTokenTTL - time.Second) }
	tok, err := issuer.Issue("alice@example.com", "hash-1")
	require.NoError(t, err)

	_, err = NewResetTokens("secret").Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestResetTokens_StillValidJustBeforeExpiry(t *testing.T) {
	t.Parallel()

	issuer := NewResetTokens("secret")
	issuer.now = func() time.Time { return time.Now().Add(-ResetTokenTTL + time.Minute) }
	tok, err := issuer.Issue("alice@example.com", "hash-1")
	require.NoError(t, err)

	_, err = NewResetTokens("secret").Parse(tok)
	assert.NoError(t, err)
}

func TestResetTokens_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewResetTokens("right").Issue("alice@example.com", "hash-1")
	require.NoError(t, err)

	_, err = NewResetTokens("wrong").Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestResetTokens_WrongPurpose(t *testing.T) {
	t.Parallel()

	now := time.Now()
	claims := ResetClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{"email-confirm-salt"},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Email: "alice@example.com",
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewResetTokens("secret").Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestResetTokens_Garbage(t *testing.T) {
	t.Parallel()

	rt := NewResetTokens("secret")
	for _, tok := range []string{"", "abc", "a.b.c"} {
		_, err := rt.Parse(tok)
		assert.ErrorIs(t, err, ErrInvalidResetToken, tok)
	}
}

func TestPasswordFingerprint(t *testing.T) {
	t.Parallel()

	assert.Equal(t, PasswordFingerprint("h"), PasswordFingerprint("h"))
	assert.NotEqual(t, PasswordFingerprint("h1"), PasswordFingerprint("h2"))
	assert.NotContains(t, PasswordFingerprint("secret-hash"), "secret-hash")
}
