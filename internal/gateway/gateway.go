package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"aegis-dashboard/internal/backend"
	"aegis-dashboard/internal/observability"
)

const maxRequestBytes = 1 << 20

var (
	errNotJSON       = errors.New("unsupported media type: request body must be application/json")
	errInvalidBody   = errors.New("request body must be valid JSON")
	errBodyNotObject = errors.New("request body must be a JSON object")
)

// Backend is the part of the backend client the gateway needs
type Backend interface {
	Do(ctx context.Context, call backend.Call) (*backend.Response, error)
	HealthCheck(ctx context.Context) bool
}

// Gateway relays authenticated dashboard requests to the backend
type Gateway struct {
	backend Backend
	log     *zap.Logger
}

// New creates a gateway over b
func New(b Backend, log *zap.Logger) *Gateway {
	return &Gateway{backend: b, log: log}
}

// Register mounts every proxy endpoint and /api-status on e, each wrapped
// in m.
func (gw *Gateway) Register(e *echo.Echo, m ...echo.MiddlewareFunc) {
	for _, ep := range Endpoints() {
		e.Add(ep.Method, ep.Route, gw.Handler(ep), m...)
	}
	e.GET("/api-status", gw.APIStatus, m...)
}

// Handler builds the echo handler for one endpoint
func (gw *Gateway) Handler(ep Endpoint) echo.HandlerFunc {
	return func(c echo.Context) error {
		var body []byte
		if ep.ForwardBody {
			var err error
			body, err = readJSONBody(c)
			if err != nil {
				return gw.fail(c, ep, err)
			}
		}

		params := make(map[string]string, len(c.ParamNames()))
		for _, name := range c.ParamNames() {
			params[name] = c.Param(name)
		}

		path := expandRoute(ep.Route, params)
		if ep.Path != nil {
			var err error
			path, err = ep.Path(params, body)
			if err != nil {
				return gw.fail(c, ep, err)
			}
		}

		resp, err := gw.backend.Do(c.Request().Context(), backend.Call{
			Method:         ep.Method,
			Path:           path,
			Body:           body,
			Timeout:        ep.Timeout,
			RaiseForStatus: ep.RaiseForStatus,
		})
		if err != nil {
			return gw.fail(c, ep, err)
		}

		return c.JSONBlob(resp.StatusCode, resp.Body)
	}
}

// APIStatus reports backend liveness as {"healthy": bool}
func (gw *Gateway) APIStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{
		"healthy": gw.backend.HealthCheck(c.Request().Context()),
	})
}

// fail answers every proxy failure with the same 500 shape
func (gw *Gateway) fail(c echo.Context, ep Endpoint, err error) error {
	fields := []zap.Field{
		zap.String("method", ep.Method),
		zap.String("route", ep.Route),
		zap.Error(err),
	}

	var callErr *backend.CallError
	if errors.As(err, &callErr) {
		fields = append(fields, zap.String("kind", string(callErr.Kind)))
		if callErr.StatusCode != 0 {
			fields = append(fields, zap.Int("backend_status", callErr.StatusCode))
		}
		if callErr.Kind != backend.KindStatus {
			observability.CaptureError(err, map[string]string{
				"component": "gateway",
				"route":     ep.Route,
				"kind":      string(callErr.Kind),
			})
		}
	}
	gw.log.Warn("proxy request failed", fields...)

	return c.JSON(http.StatusInternalServerError, map[string]string{
		"error": err.Error(),
	})
}

func readJSONBody(c echo.Context) ([]byte, error) {
	if !isJSONContentType(c.Request().Header.Get(echo.HeaderContentType)) {
		return nil, errNotJSON
	}
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxRequestBytes))
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, errInvalidBody
	}
	return body, nil
}

// isJSONContentType accepts application/json and application/*+json
func isJSONContentType(header string) bool {
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return false
	}
	return mediaType == echo.MIMEApplicationJSON ||
		strings.HasPrefix(mediaType, "application/") && strings.HasSuffix(mediaType, "+json")
}

// expandRoute substitutes :name segments with their values as received
func expandRoute(route string, params map[string]string) string {
	segments := strings.Split(route, "/")
	for i, s := range segments {
		if strings.HasPrefix(s, ":") {
			segments[i] = params[s[1:]]
		}
	}
	return strings.Join(segments, "/")
}
