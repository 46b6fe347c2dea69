package model

import (
	"errors"
	"fmt"
)

// Transient backend failures. Both are handled inside the orchestrator and
// never reach callers.
var (
	ErrRateLimited        = errors.New("rate limited")
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// ErrMalformedResponse marks a backend reply with no usable text, such as an
// empty or whitespace-only completion. The orchestrator treats it as a failed
// attempt. Parsers never return it: unparseable text yields an empty slice.
var ErrMalformedResponse = errors.New("malformed response")

// ConfigurationError reports invalid process configuration. It is raised at
// startup only.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Reason)
}
