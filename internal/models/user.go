package models

import "time"

// User is a dashboard account
type User struct {
	ID           int64      `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"` // Never expose in JSON
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	LastLogin    *time.Time `json:"last_login,omitempty" db:"last_login"`
}

// SignupRequest is the signup form
type SignupRequest struct {
	Username string `form:"username"`
	Email    string `form:"email"`
	Password string `form:"password"`
}

// LoginRequest is the login form. Identifier matches a username or an email.
type LoginRequest struct {
	Identifier string `form:"identifier"`
	Password   string `form:"password"`
	Next       string `form:"next"`
}
