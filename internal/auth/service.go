package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"aegis-dashboard/internal/database"
	"aegis-dashboard/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrMissingFields      = errors.New("username, email and password are required")
	ErrUsernameTaken      = database.ErrUsernameTaken
	ErrEmailTaken         = database.ErrEmailTaken
	ErrUnknownEmail       = errors.New("no account with that email")
	ErrAccountGone        = errors.New("account no longer exists")
)

// Repos groups the stores the auth service works on
type Repos struct {
	Users    *database.UserRepo
	Sessions *database.SessionRepo
	Settings *database.SettingsRepo
	Audit    *database.AuditRepo
}

// Service handles authentication logic
type Service struct {
	userRepo     *database.UserRepo
	sessionRepo  *database.SessionRepo
	settingsRepo *database.SettingsRepo
	auditRepo    *database.AuditRepo
	hasher       *Hasher
	resetTokens  *ResetTokens
	log          *zap.Logger
}

// NewService creates a new auth service
func NewService(repos Repos, hasher *Hasher, resetTokens *ResetTokens, log *zap.Logger) *Service {
	return &Service{
		userRepo:     repos.Users,
		sessionRepo:  repos.Sessions,
		settingsRepo: repos.Settings,
		auditRepo:    repos.Audit,
		hasher:       hasher,
		resetTokens:  resetTokens,
		log:          log,
	}
}

// LoginResponse represents a successful login
type LoginResponse struct {
	User      *models.User
	Token     string
	ExpiresAt *time.Time
}

// Signup creates a new account. Username and email must both be unused.
func (s *Service) Signup(ctx context.Context, req models.SignupRequest, ipAddress string) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if username == "" || email == "" || req.Password == "" {
		return nil, ErrMissingFields
	}

	taken, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrUsernameTaken
	}
	taken, err = s.userRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	// A concurrent signup can still win the race; the UNIQUE index decides.
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.audit(ctx, &user.ID, user.Username, models.ActionSignup, user.Email, ipAddress)
	return user, nil
}

// Login authenticates by username or email and creates a session
func (s *Service) Login(ctx context.Context, identifier, password, ipAddress, userAgent string) (*LoginResponse, error) {
	identifier = strings.TrimSpace(identifier)

	user, err := s.userRepo.GetByIdentifier(ctx, identifier)
	if err != nil && !errors.Is(err, database.ErrUserNotFound) {
		return nil, err
	}
	if user == nil || !s.hasher.Verify(password, user.PasswordHash) {
		var userID *int64
		if user != nil {
			userID = &user.ID
		}
		s.audit(ctx, userID, identifier, models.ActionLoginFailed, identifier, ipAddress)
		return nil, ErrInvalidCredentials
	}

	token, session, err := s.sessionRepo.Create(ctx, user.ID, ipAddress, userAgent, s.SessionTimeout(ctx))
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.log.Warn("failed to update last login", zap.Int64("user_id", user.ID), zap.Error(err))
	}
	s.audit(ctx, &user.ID, user.Username, models.ActionLogin, user.Username, ipAddress)

	return &LoginResponse{
		User:      user,
		Token:     token,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// SessionTimeout returns the configured session lifetime. Zero means
// sessions never expire.
func (s *Service) SessionTimeout(ctx context.Context) time.Duration {
	minutes, err := s.settingsRepo.GetInt(ctx, database.SettingSessionTimeout)
	if err != nil || minutes <= 0 {
		return 0
	}
	return time.Duration(minutes) * time.Minute
}

// Logout invalidates a session
func (s *Service) Logout(ctx context.Context, token string, user *models.User, ipAddress string) error {
	if err := s.sessionRepo.DeleteByToken(ctx, token); err != nil {
		return err
	}
	if user != nil {
		s.audit(ctx, &user.ID, user.Username, models.ActionLogout, user.Username, ipAddress)
	}
	return nil
}

// ValidateToken validates a session token and returns the user
func (s *Service) ValidateToken(ctx context.Context, token string) (*models.User, *models.Session, error) {
	session, err := s.sessionRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, nil, err
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, nil, err
	}

	return user, session, nil
}

// RequestPasswordReset issues a reset token for the account owning email
func (s *Service) RequestPasswordReset(ctx context.Context, email, ipAddress string) (string, error) {
	email = strings.TrimSpace(email)

	user, err := s.userRepo.GetByEmail(ctx, email)
	if errors.Is(err, database.ErrUserNotFound) {
		return "", ErrUnknownEmail
	}
	if err != nil {
		return "", err
	}

	token, err := s.resetTokens.Issue(user.Email, user.PasswordHash)
	if err != nil {
		return "", err
	}

	s.audit(ctx, &user.ID, user.Username, models.ActionPasswordResetRequest, user.Email, ipAddress)
	return token, nil
}

// CheckResetToken verifies a reset token against the account it names.
// ErrInvalidResetToken covers bad signatures, expiry and replay after the
// password already changed. ErrAccountGone means the token is otherwise
// valid but its account no longer exists.
func (s *Service) CheckResetToken(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.resetTokens.Parse(token)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, claims.Email)
	if errors.Is(err, database.ErrUserNotFound) {
		return nil, ErrAccountGone
	}
	if err != nil {
		return nil, err
	}

	if claims.Fingerprint != PasswordFingerprint(user.PasswordHash) {
		return nil, ErrInvalidResetToken
	}
	return user, nil
}

// ResetPassword sets a new password for the account named by token
func (s *Service) ResetPassword(ctx context.Context, token, newPassword, ipAddress string) (*models.User, error) {
	user, err := s.CheckResetToken(ctx, token)
	if err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	s.audit(ctx, &user.ID, user.Username, models.ActionPasswordReset, user.Email, ipAddress)
	return user, nil
}

// ActiveSessions returns the user's unexpired sessions, newest first
func (s *Service) ActiveSessions(ctx context.Context, userID int64) ([]*models.Session, error) {
	sessions, err := s.sessionRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	active := sessions[:0]
	for _, session := range sessions {
		if !session.Expired(now) {
			active = append(active, session)
		}
	}
	return active, nil
}

// RecentActivity returns the latest audit entries for a user
func (s *Service) RecentActivity(ctx context.Context, userID int64, limit int) ([]*models.AuditLog, error) {
	return s.auditRepo.List(ctx, models.AuditFilter{UserID: &userID, Limit: limit})
}

func (s *Service) audit(ctx context.Context, userID *int64, username, action, target, ipAddress string) {
	if err := s.auditRepo.Log(ctx, userID, username, action, target, nil, ipAddress); err != nil {
		s.log.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
	}
}
