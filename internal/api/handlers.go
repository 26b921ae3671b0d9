package api

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"aegis-dashboard/internal/auth"
	"aegis-dashboard/internal/models"
	"aegis-dashboard/internal/web"
)

// HealthChecker probes the backend and reports where it lives
type HealthChecker interface {
	HealthCheck(ctx context.Context) bool
	BaseURL() string
}

// Deps are the collaborators of the HTML and auth handlers
type Deps struct {
	Auth         *auth.Service
	Backend      HealthChecker
	Mailer       web.Mailer
	Limiter      *auth.RateLimiter
	Log          *zap.Logger
	PublicURL    string
	CookieSecure bool
}

const logoutPath = "/logout"

// Handler serves the browser facing routes
type Handler struct {
	auth         *auth.Service
	backend      HealthChecker
	mailer       web.Mailer
	limiter      *auth.RateLimiter
	log          *zap.Logger
	publicURL    string
	cookieSecure bool
	now          func() time.Time
}

// NewHandler creates a handler from d
func NewHandler(d Deps) *Handler {
	return &Handler{
		auth:         d.Auth,
		backend:      d.Backend,
		mailer:       d.Mailer,
		limiter:      d.Limiter,
		log:          d.Log,
		publicURL:    strings.TrimRight(d.PublicURL, "/"),
		cookieSecure: d.CookieSecure,
		now:          time.Now,
	}
}

// Health check
func healthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// render writes page with the common view data plus data
func (h *Handler) render(c echo.Context, status int, page string, data map[string]interface{}) error {
	if data == nil {
		data = map[string]interface{}{}
	}
	return c.Render(status, page, &models.PageData{
		User:       auth.GetUserFromContext(c),
		Flashes:    web.PopFlashes(c),
		APIBaseURL: h.backend.BaseURL(),
		Data:       data,
	})
}

// renderApp renders an authenticated page with backend health and the
// current time filled in
func (h *Handler) renderApp(c echo.Context, page string, data map[string]interface{}) error {
	if data == nil {
		data = map[string]interface{}{}
	}
	return c.Render(http.StatusOK, page, &models.PageData{
		User:        auth.GetUserFromContext(c),
		Flashes:     web.PopFlashes(c),
		APIHealthy:  h.backend.HealthCheck(c.Request().Context()),
		APIBaseURL:  h.backend.BaseURL(),
		CurrentTime: h.now().Format("15:04:05"),
		Data:        data,
	})
}

func (h *Handler) redirect(c echo.Context, path string) error {
	return c.Redirect(http.StatusFound, path)
}

// safeNext only accepts local absolute paths. /logout is refused so a login
// never ends in an immediate sign out.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	if strings.TrimRight(u.Path, "/") == logoutPath {
		return ""
	}
	return next
}
