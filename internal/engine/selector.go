package engine

import (
	"strings"

	"github.com/yangwenmai/lexdraft/internal/model"
)

// Selector holds the primary and fallback backend identifiers. It is fixed at
// process start and carries no other state.
type Selector struct {
	primary  string
	fallback string
}

// NewSelector validates and returns a Selector. Empty identifiers are a
// configuration error.
func NewSelector(primary, fallback string) (Selector, error) {
	primary = strings.TrimSpace(primary)
	fallback = strings.TrimSpace(fallback)
	if primary == "" {
		return Selector{}, &model.ConfigurationError{Field: "primary backend", Reason: "must not be empty"}
	}
	if fallback == "" {
		return Selector{}, &model.ConfigurationError{Field: "fallback backend", Reason: "must not be empty"}
	}
	return Selector{primary: primary, fallback: fallback}, nil
}

// Primary returns the backend tried first.
func (s Selector) Primary() string { return s.primary }

// Fallback returns the backend tried after the primary gives up.
func (s Selector) Fallback() string { return s.fallback }
