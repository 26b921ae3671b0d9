package gateway

import (
	"encoding/json"
	"net/http"
	"time"
)

// Endpoint maps one inbound route to one backend call
type Endpoint struct {
	// Method is used both inbound and outbound
	Method string
	// Route is the echo route pattern, also the outbound path template
	Route   string
	Timeout time.Duration
	// ForwardBody requires a JSON request body and relays it
	ForwardBody bool
	// RaiseForStatus turns any non-2xx backend answer into a 500
	RaiseForStatus bool
	// Path picks the outbound path. Nil means the route with its
	// parameters substituted.
	Path func(params map[string]string, body []byte) (string, error)
}

// Security profiles understood by the analyze endpoint
const (
	ProfileFast     = "fast"
	ProfileParanoid = "paranoid"
)

// Endpoints is the full proxy table
func Endpoints() []Endpoint {
	return []Endpoint{
		{Method: http.MethodPost, Route: "/analyze", Timeout: 15 * time.Second, ForwardBody: true, Path: analyzePath},
		{Method: http.MethodGet, Route: "/test-patterns", Timeout: 20 * time.Second},
		{Method: http.MethodGet, Route: "/integrations/slack", Timeout: 5 * time.Second, RaiseForStatus: true},
		{Method: http.MethodPost, Route: "/integrations/slack", Timeout: 10 * time.Second, ForwardBody: true, RaiseForStatus: true},
		{Method: http.MethodGet, Route: "/config", Timeout: 5 * time.Second, RaiseForStatus: true},
		{Method: http.MethodPut, Route: "/config/weights", Timeout: 10 * time.Second, ForwardBody: true, RaiseForStatus: true},
		{Method: http.MethodPut, Route: "/config/thresholds", Timeout: 10 * time.Second, ForwardBody: true, RaiseForStatus: true},
		{Method: http.MethodGet, Route: "/user/:id/role", Timeout: 5 * time.Second, RaiseForStatus: true},
		{Method: http.MethodPut, Route: "/user/:id/role", Timeout: 10 * time.Second, ForwardBody: true, RaiseForStatus: true},
		{Method: http.MethodGet, Route: "/stats", Timeout: 5 * time.Second, RaiseForStatus: true},
		{Method: http.MethodGet, Route: "/logs", Timeout: 5 * time.Second, RaiseForStatus: true},
	}
}

// analyzePath selects the analysis variant from the literal
// security_profile value. Anything else, including absent, is the default.
func analyzePath(_ map[string]string, body []byte) (string, error) {
	var req map[string]interface{}
	if err := json.Unmarshal(body, &req); err != nil {
		return "", errBodyNotObject
	}
	if req == nil {
		return "", errBodyNotObject
	}

	profile, _ := req["security_profile"].(string)
	switch profile {
	case ProfileFast:
		return "/analyze/fast", nil
	case ProfileParanoid:
		return "/analyze/paranoid", nil
	default:
		return "/analyze", nil
	}
}
