package database

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"

	"aegis-dashboard/internal/models"
)

// AuditRepo handles audit log database operations
type AuditRepo struct {
	db *sqlx.DB
}

// NewAuditRepo creates a new audit repository
func NewAuditRepo(db *sqlx.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Create creates a new audit log entry
func (r *AuditRepo) Create(ctx context.Context, log *models.AuditLog) error {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO audit_logs (timestamp, user_id, username, action, target, details, ip_address)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, log.Timestamp, log.UserID, log.Username, log.Action, log.Target, log.Details, log.IPAddress)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	log.ID = id
	return nil
}

// Log is a convenience method to create an audit log entry with current timestamp.
// userID may be nil for events without a resolved account.
func (r *AuditRepo) Log(ctx context.Context, userID *int64, username, action, target string, details interface{}, ipAddress string) error {
	var detailsJSON string
	if details != nil {
		b, err := json.Marshal(details)
		if err != nil {
			detailsJSON = "{}"
		} else {
			detailsJSON = string(b)
		}
	}

	return r.Create(ctx, &models.AuditLog{
		Timestamp: time.Now().UTC(),
		UserID:    userID,
		Username:  username,
		Action:    action,
		Target:    target,
		Details:   detailsJSON,
		IPAddress: ipAddress,
	})
}

// List retrieves audit logs, newest first
func (r *AuditRepo) List(ctx context.Context, filter models.AuditFilter) ([]*models.AuditLog, error) {
	query := "SELECT id, timestamp, user_id, username, action, target, details, ip_address FROM audit_logs WHERE 1=1"
	args := []interface{}{}

	if filter.UserID != nil {
		query += " AND user_id = ?"
		args = append(args, *filter.UserID)
	}
	if filter.Action != "" {
		query += " AND action = ?"
		args = append(args, filter.Action)
	}

	query += " ORDER BY timestamp DESC, id DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	var logs []*models.AuditLog
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, err
	}
	return logs, nil
}
