package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// ResetTokenTTL is how long a password reset link stays valid
	ResetTokenTTL = 3600 * time.Second

	resetTokenPurpose = "password-reset-salt"
)

var ErrInvalidResetToken = errors.New("invalid or expired reset token")

// ResetClaims are the claims carried by a password reset token
type ResetClaims struct {
	jwt.RegisteredClaims
	Email       string `json:"email"`
	Fingerprint string `json:"pwd"`
}

// ResetTokens issues and parses signed password reset tokens
type ResetTokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewResetTokens creates a reset token issuer signing with secret
func NewResetTokens(secret string) *ResetTokens {
	return &ResetTokens{
		secret: []byte(secret),
		ttl:    ResetTokenTTL,
		now:    time.Now,
	}
}

// Issue creates a token for email bound to the account's current password hash
func (t *ResetTokens) Issue(email, passwordHash string) (string, error) {
	now := t.now()
	claims := ResetClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   email,
			Audience:  jwt.ClaimStrings{resetTokenPurpose},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Email:       email,
		Fingerprint: PasswordFingerprint(passwordHash),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign reset token: %w", err)
	}
	return signed, nil
}

// Parse verifies signature, purpose and age of a token and returns its claims.
// The fingerprint is checked by the caller against the stored account.
func (t *ResetTokens) Parse(tokenString string) (*ResetClaims, error) {
	claims := &ResetClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(resetTokenPurpose),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid || claims.Email == "" {
		return nil, ErrInvalidResetToken
	}
	return claims, nil
}

// PasswordFingerprint identifies one password generation without revealing
// the hash. Any password change invalidates outstanding reset tokens.
func PasswordFingerprint(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:8])
}
