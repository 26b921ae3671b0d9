package database

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"aegis-dashboard/internal/models"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
)

const sessionColumns = "id, user_id, token_hash, created_at, expires_at, ip_address, user_agent"

// SessionRepo handles session database operations
type SessionRepo struct {
	db *sqlx.DB
}

// NewSessionRepo creates a new session repository
func NewSessionRepo(db *sqlx.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Create creates a new session and returns the plain token. A zero duration
// creates a session without expiry.
func (r *SessionRepo) Create(ctx context.Context, userID int64, ipAddress, userAgent string, duration time.Duration) (string, *models.Session, error) {
	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", nil, err
	}
	token := hex.EncodeToString(tokenBytes)

	now := time.Now().UTC()
	session := &models.Session{
		UserID:    userID,
		TokenHash: hashToken(token),
		CreatedAt: now,
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
	if duration > 0 {
		expires := now.Add(duration)
		session.ExpiresAt = &expires
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO sessions (user_id, token_hash, created_at, expires_at, ip_address, user_agent)
		VALUES (?, ?, ?, ?, ?, ?)
	`, session.UserID, session.TokenHash, session.CreatedAt, session.ExpiresAt, session.IPAddress, session.UserAgent)
	if err != nil {
		return "", nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return "", nil, err
	}
	session.ID = id

	return token, session, nil
}

// GetByToken retrieves a live session by its plain token. Expired sessions
// are deleted and reported as ErrSessionExpired.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	session := &models.Session{}
	err := r.db.GetContext(ctx, session,
		"SELECT "+sessionColumns+" FROM sessions WHERE token_hash = ?", hashToken(token))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	if session.Expired(time.Now().UTC()) {
		_ = r.Delete(ctx, session.ID)
		return nil, ErrSessionExpired
	}

	return session, nil
}

// GetByUserID retrieves all sessions for a user, newest first
func (r *SessionRepo) GetByUserID(ctx context.Context, userID int64) ([]*models.Session, error) {
	var sessions []*models.Session
	err := r.db.SelectContext(ctx, &sessions,
		"SELECT "+sessionColumns+" FROM sessions WHERE user_id = ? ORDER BY created_at DESC, id DESC", userID)
	return sessions, err
}

// Delete deletes a session by ID
func (r *SessionRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	return err
}

// DeleteByToken deletes a session by its plain token
func (r *SessionRepo) DeleteByToken(ctx context.Context, token string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE token_hash = ?", hashToken(token))
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrSessionNotFound
	}

	return nil
}

// DeleteExpired removes all expired sessions
func (r *SessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM sessions WHERE expires_at IS NOT NULL AND expires_at < ?", time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// hashToken creates a SHA-256 hash of the token
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
