package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"aegis-dashboard/internal/auth"
	"aegis-dashboard/internal/models"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 500
)

// accountActivity handles GET /account/activity
func (h *Handler) accountActivity(c echo.Context) error {
	limit := defaultActivityLimit
	if raw := c.QueryParam("limit"); raw != "" {
		if l, err := strconv.Atoi(raw); err == nil && l > 0 && l <= maxActivityLimit {
			limit = l
		}
	}

	user := auth.GetUserFromContext(c)
	logs, err := h.auth.RecentActivity(c.Request().Context(), user.ID, limit)
	if err != nil {
		h.log.Error("list account activity error", zap.Int64("user_id", user.ID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "failed to list account activity",
		})
	}

	if logs == nil {
		logs = []*models.AuditLog{}
	}

	return c.JSON(http.StatusOK, models.AuditListResponse{
		Logs:  logs,
		Limit: limit,
	})
}
