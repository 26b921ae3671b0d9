package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// HealthPath is probed by HealthCheck
	HealthPath = "/health"
	// HealthTimeout bounds a single health probe
	HealthTimeout = 5 * time.Second

	maxResponseBytes = 10 << 20
)

// Call describes one outbound request
type Call struct {
	Method string
	Path   string
	// Body is sent as application/json when non-nil
	Body    []byte
	Timeout time.Duration
	// RaiseForStatus turns any non-2xx answer into a KindStatus error
	RaiseForStatus bool
}

// Response is a decoded backend answer
type Response struct {
	StatusCode int
	Body       json.RawMessage
}

// Client talks to the threat intelligence backend
type Client struct {
	baseURL       string
	httpClient    *http.Client
	healthTimeout time.Duration
	log           *zap.Logger
}

// NewClient creates a client for the backend at baseURL. Per-call timeouts
// come from each Call; the http.Client itself has none.
func NewClient(baseURL string, log *zap.Logger) *Client {
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		httpClient:    &http.Client{},
		healthTimeout: HealthTimeout,
		log:           log,
	}
}

// BaseURL returns the backend base URL without trailing slash
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do performs exactly one request. It never retries.
func (c *Client) Do(ctx context.Context, call Call) (*Response, error) {
	fail := func(kind Kind, status int, err error) (*Response, error) {
		return nil, &CallError{Kind: kind, Method: call.Method, Path: call.Path, StatusCode: status, Err: err}
	}

	if call.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, call.Timeout)
		defer cancel()
	}

	var body io.Reader
	if call.Body != nil {
		body = bytes.NewReader(call.Body)
	}
	req, err := http.NewRequestWithContext(ctx, call.Method, c.baseURL+call.Path, body)
	if err != nil {
		return fail(KindRequest, 0, err)
	}
	req.Header.Set("Accept", "application/json")
	if call.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return fail(KindTimeout, 0, err)
		}
		return fail(KindTransport, 0, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if isTimeout(err) {
			return fail(KindTimeout, resp.StatusCode, err)
		}
		return fail(KindTransport, resp.StatusCode, err)
	}

	c.log.Debug("backend call",
		zap.String("method", call.Method),
		zap.String("path", call.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if call.RaiseForStatus && (resp.StatusCode < 200 || resp.StatusCode > 299) {
		return fail(KindStatus, resp.StatusCode, nil)
	}
	if !json.Valid(raw) {
		return fail(KindDecode, resp.StatusCode, nil)
	}

	return &Response{StatusCode: resp.StatusCode, Body: raw}, nil
}

// HealthCheck reports whether GET /health answers 200 within HealthTimeout.
// Failures are never propagated.
func (c *Client) HealthCheck(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+HealthPath, nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("backend health check failed", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))

	return resp.StatusCode == http.StatusOK
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
