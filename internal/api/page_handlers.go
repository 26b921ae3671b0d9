package api

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"aegis-dashboard/internal/auth"
)

const profileActivityLimit = 20

func (h *Handler) dashboard(c echo.Context) error {
	return h.renderApp(c, "dashboard", nil)
}

func (h *Handler) dlpRules(c echo.Context) error {
	return h.renderApp(c, "dlp_rules", nil)
}

// profile shows the account, its signed in browsers and recent history
func (h *Handler) profile(c echo.Context) error {
	ctx := c.Request().Context()
	user := auth.GetUserFromContext(c)

	activity, err := h.auth.RecentActivity(ctx, user.ID, profileActivityLimit)
	if err != nil {
		h.log.Error("failed to load account activity", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	sessions, err := h.auth.ActiveSessions(ctx, user.ID)
	if err != nil {
		h.log.Error("failed to load sessions", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	var currentSession int64
	if session := auth.GetSessionFromContext(c); session != nil {
		currentSession = session.ID
	}

	return h.renderApp(c, "profile", map[string]interface{}{
		"activity":        activity,
		"sessions":        sessions,
		"current_session": currentSession,
	})
}

func (h *Handler) integrations(c echo.Context) error {
	return h.renderApp(c, "integrations", nil)
}

func (h *Handler) settings(c echo.Context) error {
	return h.renderApp(c, "settings", nil)
}

func (h *Handler) activityLog(c echo.Context) error {
	return h.renderApp(c, "activity_log", nil)
}
