package models

import "time"

// AuditLog represents a record of account activity
type AuditLog struct {
	ID        int64     `json:"id" db:"id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	UserID    *int64    `json:"user_id,omitempty" db:"user_id"`
	Username  string    `json:"username" db:"username"`
	Action    string    `json:"action" db:"action"`
	Target    string    `json:"target" db:"target"`
	Details   string    `json:"details" db:"details"` // JSON string
	IPAddress string    `json:"ip_address" db:"ip_address"`
}

// Account audit actions
const (
	ActionSignup               = "signup"
	ActionLogin                = "login"
	ActionLoginFailed          = "login.failed"
	ActionLogout               = "logout"
	ActionPasswordResetRequest = "password.reset_requested"
	ActionPasswordReset        = "password.reset"
)

// AuditFilter narrows an audit log listing
type AuditFilter struct {
	UserID *int64
	Action string
	Limit  int
}

// AuditListResponse is the JSON listing of account activity
type AuditListResponse struct {
	Logs  []*AuditLog `json:"logs"`
	Limit int         `json:"limit"`
}
