package web

import (
	"fmt"
	"io"
	"sync"
)

// Mailer delivers password reset links
type Mailer interface {
	SendPasswordReset(email, resetURL string) error
}

// ConsoleMailer writes reset mails to w instead of sending them
type ConsoleMailer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleMailer creates a mailer printing to w
func NewConsoleMailer(w io.Writer) *ConsoleMailer {
	return &ConsoleMailer{w: w}
}

// SendPasswordReset prints the simulated mail
func (m *ConsoleMailer) SendPasswordReset(email, resetURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, err := fmt.Fprintf(m.w, "--- SIMULATED EMAIL TO: %s ---\nReset Link: %s\n---------------------------------\n", email, resetURL)
	return err
}
