package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// SessionCookieName is the cookie carrying the session token
const SessionCookieName = "session_token"

// RememberDuration is the cookie lifetime for sessions without an expiry
const RememberDuration = 365 * 24 * time.Hour

// SetSessionCookie attaches the session token to the response. A nil expiry
// keeps the cookie for RememberDuration so it survives browser restarts.
func SetSessionCookie(c echo.Context, token string, expiresAt *time.Time, secure bool) {
	cookie := &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure || c.Request().TLS != nil,
		SameSite: http.SameSiteLaxMode,
	}
	if expiresAt != nil {
		cookie.Expires = *expiresAt
		cookie.MaxAge = int(time.Until(*expiresAt).Seconds())
	} else {
		cookie.Expires = time.Now().Add(RememberDuration)
		cookie.MaxAge = int(RememberDuration.Seconds())
	}
	c.SetCookie(cookie)
}

// ClearSessionCookie removes the session cookie from the browser
func ClearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// TokenFromRequest extracts the session token from the request
func TokenFromRequest(c echo.Context) string {
	// Bearer header for scripted API clients
	authHeader := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	cookie, err := c.Cookie(SessionCookieName)
	if err == nil && cookie.Value != "" {
		return cookie.Value
	}

	return ""
}
