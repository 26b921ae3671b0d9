package api

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"aegis-dashboard/internal/auth"
	"aegis-dashboard/internal/database"
	"aegis-dashboard/internal/models"
	"aegis-dashboard/internal/web"
)

// home handles GET /
func (h *Handler) home(c echo.Context) error {
	if auth.GetUserFromContext(c) != nil {
		return h.redirect(c, "/dashboard")
	}
	return h.render(c, http.StatusOK, "home", nil)
}

// loginPage handles GET /login
func (h *Handler) loginPage(c echo.Context) error {
	if auth.GetUserFromContext(c) != nil {
		return h.redirect(c, "/dashboard")
	}
	return h.render(c, http.StatusOK, "login", map[string]interface{}{
		"next":       safeNext(c.QueryParam("next")),
		"identifier": "",
	})
}

// login handles POST /login
func (h *Handler) login(c echo.Context) error {
	if auth.GetUserFromContext(c) != nil {
		return h.redirect(c, "/dashboard")
	}

	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		web.AddFlash(c, models.FlashDanger, "Login failed. Please check your credentials.")
		return h.render(c, http.StatusOK, "login", map[string]interface{}{"next": "", "identifier": ""})
	}
	next := safeNext(req.Next)

	ctx := c.Request().Context()
	resp, err := h.auth.Login(ctx, req.Identifier, req.Password, c.RealIP(), c.Request().UserAgent())
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			h.log.Error("login error", zap.Error(err))
		} else if h.limiter.Enabled() {
			h.log.Info("login failed",
				zap.String("ip", c.RealIP()),
				zap.Int("remaining_attempts", h.limiter.GetRemainingAttempts(c.RealIP())),
			)
		}
		web.AddFlash(c, models.FlashDanger, "Login failed. Please check your credentials.")
		return h.render(c, http.StatusOK, "login", map[string]interface{}{
			"next":       next,
			"identifier": req.Identifier,
		})
	}

	h.limiter.RecordSuccess(c.RealIP())
	auth.SetSessionCookie(c, resp.Token, resp.ExpiresAt, h.cookieSecure)

	if next != "" {
		return h.redirect(c, next)
	}
	return h.redirect(c, "/dashboard")
}

// loginBlocked answers a rate limited POST /login
func (h *Handler) loginBlocked(c echo.Context, retryAfter int) error {
	h.log.Warn("login rate limited", zap.String("ip", c.RealIP()), zap.Int("retry_after", retryAfter))
	web.AddFlash(c, models.FlashDanger, "Too many login attempts. Please try again later.")
	return h.render(c, http.StatusTooManyRequests, "login", map[string]interface{}{
		"next":       "",
		"identifier": "",
	})
}

// signupPage handles GET /signup
func (h *Handler) signupPage(c echo.Context) error {
	if auth.GetUserFromContext(c) != nil {
		return h.redirect(c, "/dashboard")
	}
	return h.render(c, http.StatusOK, "signup", nil)
}

// signup handles POST /signup
func (h *Handler) signup(c echo.Context) error {
	if auth.GetUserFromContext(c) != nil {
		return h.redirect(c, "/dashboard")
	}

	var req models.SignupRequest
	if err := c.Bind(&req); err != nil {
		web.AddFlash(c, models.FlashWarning, "All fields are required.")
		return h.redirect(c, "/signup")
	}

	_, err := h.auth.Signup(c.Request().Context(), req, c.RealIP())
	switch {
	case err == nil:
		web.AddFlash(c, models.FlashSuccess, "Account created successfully! You can now log in.")
		return h.redirect(c, "/login")
	case errors.Is(err, auth.ErrUsernameTaken):
		web.AddFlash(c, models.FlashWarning, "Username already exists. Please choose another.")
	case errors.Is(err, auth.ErrEmailTaken):
		web.AddFlash(c, models.FlashWarning, "Email address is already registered.")
	case errors.Is(err, auth.ErrMissingFields):
		web.AddFlash(c, models.FlashWarning, "All fields are required.")
	default:
		h.log.Error("signup error", zap.Error(err))
		web.AddFlash(c, models.FlashDanger, "Could not create your account. Please try again.")
	}
	return h.redirect(c, "/signup")
}

// logout handles GET /logout
func (h *Handler) logout(c echo.Context) error {
	token := auth.TokenFromRequest(c)
	err := h.auth.Logout(c.Request().Context(), token, auth.GetUserFromContext(c), c.RealIP())
	if err != nil && !errors.Is(err, database.ErrSessionNotFound) {
		h.log.Error("logout error", zap.Error(err))
	}
	auth.ClearSessionCookie(c)
	return h.redirect(c, "/")
}

// forgotPasswordPage handles GET /forgot-password
func (h *Handler) forgotPasswordPage(c echo.Context) error {
	return h.render(c, http.StatusOK, "forgot_password", nil)
}

// forgotPassword handles POST /forgot-password
func (h *Handler) forgotPassword(c echo.Context) error {
	email := c.FormValue("email")

	token, err := h.auth.RequestPasswordReset(c.Request().Context(), email, c.RealIP())
	switch {
	case err == nil:
		resetURL := h.publicURL + "/reset-password/" + url.PathEscape(token)
		if err := h.mailer.SendPasswordReset(email, resetURL); err != nil {
			h.log.Error("failed to send reset mail", zap.Error(err))
		}
		web.AddFlash(c, models.FlashInfo, "Password reset instructions have been (simulated) sent to your email.")
	case errors.Is(err, auth.ErrUnknownEmail):
		web.AddFlash(c, models.FlashWarning, "No account found with that email address.")
	default:
		h.log.Error("password reset request error", zap.Error(err))
		web.AddFlash(c, models.FlashDanger, "Could not start the password reset. Please try again.")
	}
	return h.redirect(c, "/forgot-password")
}

// resetPasswordPage handles GET /reset-password/:token
func (h *Handler) resetPasswordPage(c echo.Context) error {
	token := c.Param("token")

	_, err := h.auth.CheckResetToken(c.Request().Context(), token)
	if err != nil && !errors.Is(err, auth.ErrAccountGone) {
		return h.invalidResetToken(c, err)
	}
	return h.render(c, http.StatusOK, "reset_password", map[string]interface{}{"token": token})
}

// resetPassword handles POST /reset-password/:token
func (h *Handler) resetPassword(c echo.Context) error {
	token := c.Param("token")
	password := c.FormValue("password")

	ctx := c.Request().Context()
	if password == "" {
		if _, err := h.auth.CheckResetToken(ctx, token); err != nil && !errors.Is(err, auth.ErrAccountGone) {
			return h.invalidResetToken(c, err)
		}
		web.AddFlash(c, models.FlashWarning, "Please enter a new password.")
		return h.render(c, http.StatusOK, "reset_password", map[string]interface{}{"token": token})
	}

	_, err := h.auth.ResetPassword(ctx, token, password, c.RealIP())
	switch {
	case err == nil:
		web.AddFlash(c, models.FlashSuccess, "Your password has been updated! You can now log in.")
		return h.redirect(c, "/login")
	case errors.Is(err, auth.ErrAccountGone):
		return h.render(c, http.StatusOK, "reset_password", map[string]interface{}{"token": token})
	default:
		return h.invalidResetToken(c, err)
	}
}

func (h *Handler) invalidResetToken(c echo.Context, err error) error {
	if !errors.Is(err, auth.ErrInvalidResetToken) {
		h.log.Error("reset token check error", zap.Error(err))
	}
	web.AddFlash(c, models.FlashDanger, "The password reset link is invalid or has expired.")
	return h.redirect(c, "/forgot-password")
}

// socialLogin returns a placeholder handler for a provider not wired yet
func (h *Handler) socialLogin(provider string) echo.HandlerFunc {
	return func(c echo.Context) error {
		web.AddFlash(c, models.FlashInfo, provider+" login is not yet implemented.")
		return h.redirect(c, "/login")
	}
}
