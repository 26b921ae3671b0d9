package backend

import "fmt"

// Kind classifies why a backend call failed
type Kind string

const (
	// KindRequest means the outbound request could not be built
	KindRequest Kind = "request"
	// KindTransport covers connection refused, DNS and other network errors
	KindTransport Kind = "transport"
	// KindTimeout means the per-call deadline elapsed
	KindTimeout Kind = "timeout"
	// KindStatus is a non-2xx answer on a call that enforces success
	KindStatus Kind = "status"
	// KindDecode means the backend answered with something other than JSON
	KindDecode Kind = "decode"
)

// CallError is returned by Client.Do for every failed call
type CallError struct {
	Kind       Kind
	Method     string
	Path       string
	StatusCode int
	Err        error
}

func (e *CallError) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("backend returned status %d for %s %s", e.StatusCode, e.Method, e.Path)
	case KindTimeout:
		return fmt.Sprintf("backend request %s %s timed out: %v", e.Method, e.Path, e.Err)
	case KindDecode:
		return fmt.Sprintf("backend response for %s %s is not valid JSON", e.Method, e.Path)
	default:
		return fmt.Sprintf("backend request %s %s failed: %v", e.Method, e.Path, e.Err)
	}
}

func (e *CallError) Unwrap() error {
	return e.Err
}
