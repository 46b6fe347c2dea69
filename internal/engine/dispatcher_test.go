package engine

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yangwenmai/lexdraft/internal/model"
)

// recordingClient remembers the model names it was asked for.
type recordingClient struct {
	models []string
	reply  string
	err    error
}

func (c *recordingClient) Complete(_ context.Context, model, _ string) (string, error) {
	c.models = append(c.models, model)
	return c.reply, c.err
}

func TestResolveBackend(t *testing.T) {
	tests := []struct {
		id           string
		wantProvider string
		wantModel    string
		wantErr      bool
	}{
		{"gemini-2.5-flash", ProviderGemini, "gemini-2.5-flash", false},
		{"gpt-4o-mini", ProviderOpenAI, "gpt-4o-mini", false},
		{"o3-mini", ProviderOpenAI, "o3-mini", false},
		{"claude-sonnet-4-20250514", ProviderClaude, "claude-sonnet-4-20250514", false},
		{"ollama:llama3", ProviderOllama, "llama3", false},
		{"OpenAI:google/gemini-2.5-flash", ProviderOpenAI, "google/gemini-2.5-flash", false},
		{"stub:primary", ProviderStub, "primary", false},
		{"mystery:model", "", "", true},
		{"llama3", "", "", true},
		{"", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			p, m, err := ResolveBackend(tt.id)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantProvider, p)
			assert.Equal(t, tt.wantModel, m)
		})
	}
}

func TestDispatcher_RoutesByProvider(t *testing.T) {
	gem := &recordingClient{reply: "from gemini"}
	oai := &recordingClient{reply: "from openai"}
	d := NewDispatcher(WithProvider(ProviderGemini, gem), WithProvider(ProviderOpenAI, oai))

	got, err := d.Invoke(context.Background(), "gemini-2.0-flash", "p")
	require.NoError(t, err)
	assert.Equal(t, "from gemini", got)

	got, err = d.Invoke(context.Background(), "openai:gpt-4o", "p")
	require.NoError(t, err)
	assert.Equal(t, "from openai", got)

	assert.Equal(t, []string{"gemini-2.0-flash"}, gem.models)
	assert.Equal(t, []string{"gpt-4o"}, oai.models)
}

func TestDispatcher_UnregisteredProvider(t *testing.T) {
	d := NewDispatcher()
	_, err := d.Invoke(context.Background(), "claude-3-haiku", "p")

	var be *BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "claude-3-haiku", be.BackendID)
	assert.ErrorIs(t, err, model.ErrBackendUnavailable)
}

func TestDispatcher_StampsBackendID(t *testing.T) {
	failing := &recordingClient{err: newStatusError(http.StatusTooManyRequests, `"retryDelay": "1s"`)}
	d := NewDispatcher(WithProvider(ProviderGemini, failing))

	_, err := d.Invoke(context.Background(), "gemini-2.5-flash", "p")
	var be *BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "gemini-2.5-flash", be.BackendID)
	assert.ErrorIs(t, err, model.ErrRateLimited)

	d2 := NewDispatcher(WithProvider(ProviderGemini, &recordingClient{err: errors.New("boom")}))
	_, err = d2.Invoke(context.Background(), "gemini-2.5-flash", "p")
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "boom", errors.Unwrap(err).Error())
}

func TestDispatcher_RateLimitHonoursContext(t *testing.T) {
	d := NewDispatcher(WithProvider(ProviderStub, &StubClient{}), WithRateLimit(0.001, 1))

	_, err := d.Invoke(context.Background(), "stub:a", "hello")
	require.NoError(t, err, "first call consumes the burst")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err = d.Invoke(ctx, "stub:a", "hello")
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}
