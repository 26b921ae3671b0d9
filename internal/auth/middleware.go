package auth

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"aegis-dashboard/internal/models"
	"aegis-dashboard/internal/web"
)

// Context keys for storing user data
const (
	ContextKeyUser    = "user"
	ContextKeySession = "session"
)

// LoginPath is where unauthenticated page requests are sent
const LoginPath = "/login"

// RequireAuth guards JSON API routes. Requests without a valid session are
// answered with 401 and never reach the handler.
func RequireAuth(authSvc *Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := TokenFromRequest(c)
			if token == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "authentication required",
				})
			}

			user, session, err := authSvc.ValidateToken(c.Request().Context(), token)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "invalid or expired session",
				})
			}

			c.Set(ContextKeyUser, user)
			c.Set(ContextKeySession, session)

			return next(c)
		}
	}
}

// RequireLogin guards HTML page routes. Requests without a valid session
// are redirected to the login page with the original path in ?next=.
func RequireLogin(authSvc *Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := TokenFromRequest(c)
			if token != "" {
				user, session, err := authSvc.ValidateToken(c.Request().Context(), token)
				if err == nil {
					c.Set(ContextKeyUser, user)
					c.Set(ContextKeySession, session)
					return next(c)
				}
				ClearSessionCookie(c)
			}

			web.AddFlash(c, models.FlashInfo, "Please log in to access this page.")
			target := LoginPath + "?next=" + url.QueryEscape(c.Request().URL.RequestURI())
			return c.Redirect(http.StatusFound, target)
		}
	}
}

// OptionalAuth middleware attempts to authenticate but doesn't require it
// Sets user in context if authenticated, otherwise continues without user
func OptionalAuth(authSvc *Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := TokenFromRequest(c)
			if token != "" {
				user, session, err := authSvc.ValidateToken(c.Request().Context(), token)
				if err == nil {
					c.Set(ContextKeyUser, user)
					c.Set(ContextKeySession, session)
				}
			}
			return next(c)
		}
	}
}

// GetUserFromContext retrieves the authenticated user from the context
func GetUserFromContext(c echo.Context) *models.User {
	user, ok := c.Get(ContextKeyUser).(*models.User)
	if !ok {
		return nil
	}
	return user
}

// GetSessionFromContext retrieves the current session from the context
func GetSessionFromContext(c echo.Context) *models.Session {
	session, ok := c.Get(ContextKeySession).(*models.Session)
	if !ok {
		return nil
	}
	return session
}
