package web

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"aegis-dashboard/internal/models"
)

const (
	flashCookieName = "aegis_flash"
	flashContextKey = "flashes"
)

// AddFlash queues a message for the next rendered page. Messages queued by
// earlier requests and not yet shown are kept.
func AddFlash(c echo.Context, category, message string) {
	flashes := pendingFlashes(c)
	flashes = append(flashes, models.Flash{Category: category, Message: message})
	c.Set(flashContextKey, flashes)

	b, err := json.Marshal(flashes)
	if err != nil {
		return
	}
	c.SetCookie(&http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(b),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// PopFlashes returns all queued messages and clears the queue. The cookie
// is expired whenever the request brought one or this response set one.
func PopFlashes(c echo.Context) []models.Flash {
	flashes := pendingFlashes(c)
	c.Set(flashContextKey, []models.Flash{})

	_, err := c.Cookie(flashCookieName)
	if err == nil || len(flashes) > 0 {
		c.SetCookie(&http.Cookie{
			Name:     flashCookieName,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			MaxAge:   -1,
		})
	}
	return flashes
}

func pendingFlashes(c echo.Context) []models.Flash {
	if flashes, ok := c.Get(flashContextKey).([]models.Flash); ok {
		return flashes
	}

	cookie, err := c.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	b, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}
	var flashes []models.Flash
	if err := json.Unmarshal(b, &flashes); err != nil {
		return nil
	}
	return flashes
}
