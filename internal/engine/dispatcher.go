package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/time/rate"
)

// Provider names
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
	ProviderOllama = "ollama"
	ProviderStub   = "stub"
)

var knownProviders = map[string]bool{
	ProviderGemini: true,
	ProviderOpenAI: true,
	ProviderClaude: true,
	ProviderOllama: true,
	ProviderStub:   true,
}

// ResolveBackend splits a backend identifier into provider and model.
// Identifiers are either "provider:model" or a bare model name whose prefix
// names the provider (gemini-*, gpt-*, o1/o3/o4*, claude-*).
func ResolveBackend(id string) (provider, modelName string, err error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", "", errors.New("empty backend id")
	}
	if p, m, ok := strings.Cut(id, ":"); ok {
		p = strings.ToLower(strings.TrimSpace(p))
		if !knownProviders[p] {
			return "", "", fmt.Errorf("unknown provider %q in backend id %q", p, id)
		}
		return p, strings.TrimSpace(m), nil
	}

	lower := strings.ToLower(id)
	switch {
	case strings.HasPrefix(lower, "gemini-"):
		return ProviderGemini, id, nil
	case strings.HasPrefix(lower, "gpt-"), strings.HasPrefix(lower, "chatgpt-"),
		strings.HasPrefix(lower, "o1"), strings.HasPrefix(lower, "o3"), strings.HasPrefix(lower, "o4"):
		return ProviderOpenAI, id, nil
	case strings.HasPrefix(lower, "claude-"):
		return ProviderClaude, id, nil
	}
	return "", "", fmt.Errorf("cannot infer provider for backend id %q", id)
}

// Dispatcher implements Backend by routing each backend id to the provider
// client registered for it.
type Dispatcher struct {
	providers map[string]ModelClient
	limiters  map[string]*rate.Limiter
	rps       float64
	burst     int
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithProvider registers the client serving provider name.
func WithProvider(name string, c ModelClient) DispatcherOption {
	return func(d *Dispatcher) { d.providers[strings.ToLower(name)] = c }
}

// WithRateLimit caps calls per provider to rps with the given burst. Zero rps
// disables limiting.
func WithRateLimit(rps float64, burst int) DispatcherOption {
	return func(d *Dispatcher) {
		d.rps = rps
		d.burst = burst
	}
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		providers: make(map[string]ModelClient),
		limiters:  make(map[string]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.rps > 0 {
		burst := d.burst
		if burst < 1 {
			burst = 1
		}
		for name := range d.providers {
			d.limiters[name] = rate.NewLimiter(rate.Limit(d.rps), burst)
		}
	}
	return d
}

// Has reports whether a client is registered for provider name.
func (d *Dispatcher) Has(name string) bool {
	_, ok := d.providers[name]
	return ok
}

// Invoke resolves backendID and sends prompt to the matching provider.
func (d *Dispatcher) Invoke(ctx context.Context, backendID, prompt string) (string, error) {
	provider, modelName, err := ResolveBackend(backendID)
	if err != nil {
		return "", &BackendError{BackendID: backendID, Err: err}
	}
	client, ok := d.providers[provider]
	if !ok {
		return "", &BackendError{BackendID: backendID, Err: fmt.Errorf("no client registered for provider %q", provider)}
	}

	if lim := d.limiters[provider]; lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return "", &BackendError{BackendID: backendID, Err: fmt.Errorf("rate limiter: %w", err)}
		}
	}

	text, err := client.Complete(ctx, modelName, prompt)
	if err != nil {
		var be *BackendError
		if errors.As(err, &be) {
			if be.BackendID == "" {
				be.BackendID = backendID
			}
			return "", be
		}
		return "", &BackendError{BackendID: backendID, Err: err}
	}
	return text, nil
}
