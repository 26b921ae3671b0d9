package api

import (
	"github.com/labstack/echo/v4"

	"aegis-dashboard/internal/auth"
	"aegis-dashboard/internal/gateway"
	"aegis-dashboard/internal/web"
)

// RegisterRoutes sets up every route of the dashboard
func RegisterRoutes(e *echo.Echo, h *Handler, gw *gateway.Gateway) {
	requireLogin := auth.RequireLogin(h.auth)
	requireAuth := auth.RequireAuth(h.auth)
	optionalAuth := auth.OptionalAuth(h.auth)

	// Public
	e.GET("/healthz", healthCheck)
	e.GET("/static/*", web.StaticHandler())

	// Account pages; a logged in user is sent on to the dashboard
	e.GET("/", h.home, optionalAuth)
	e.GET("/login", h.loginPage, optionalAuth)
	e.POST("/login", h.login, h.limiter.Middleware(h.loginBlocked), optionalAuth)
	e.GET("/signup", h.signupPage, optionalAuth)
	e.POST("/signup", h.signup, optionalAuth)
	e.GET(logoutPath, h.logout, requireLogin)
	e.GET("/forgot-password", h.forgotPasswordPage)
	e.POST("/forgot-password", h.forgotPassword)
	e.GET("/reset-password/:token", h.resetPasswordPage)
	e.POST("/reset-password/:token", h.resetPassword)

	// Social login placeholders
	e.GET("/login/google", h.socialLogin("Google"))
	e.GET("/login/github", h.socialLogin("GitHub"))

	// Protected pages
	e.GET("/dashboard", h.dashboard, requireLogin)
	e.GET("/dlp-rules", h.dlpRules, requireLogin)
	e.GET("/profile", h.profile, requireLogin)
	e.GET("/integrations", h.integrations, requireLogin)
	e.GET("/settings", h.settings, requireLogin)
	e.GET("/activity-log", h.activityLog, requireLogin)

	// Account activity as JSON
	e.GET("/account/activity", h.accountActivity, requireAuth)

	// Backend proxy, JSON only
	gw.Register(e, requireAuth)
}
