package claude

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/EldestGruff/personal-ai-assistant-sub000/services/analysis"
)

func newRequest(t *testing.T, content string) *analysis.AnalysisRequest {
	t.Helper()
	req, err := analysis.NewRequest("req-1", content)
	require.NoError(t, err)
	return req
}

func newTestAdapter(t *testing.T, handler http.HandlerFunc) (*Adapter, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	adapter := New(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "claude-test",
		Timeout: 10 * time.Second,
	}, zap.NewNop())

	return adapter, server
}

const successBody = `{
	"content": [{"type": "text", "text": "This thought is about email workflows. I recommend setting up filters to triage the inbox."}],
	"usage": {"input_tokens": 25, "output_tokens": 40}
}`

func TestAnalyze_Success(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, apiVersion, r.Header.Get("anthropic-version"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(successBody))
	})

	result, aerr := adapter.Analyze(context.Background(), newRequest(t, "Should improve email system"))
	require.Nil(t, aerr)

	assert.Equal(t, "req-1", result.RequestID)
	assert.Equal(t, "claude", result.Provider)
	assert.NoError(t, result.Validate())
	assert.Equal(t, 65, result.Metadata.TokensUsed)
	assert.Equal(t, "claude-test", result.Metadata.ModelVersion)

	// The completion contains "recommend" so exactly one action is derived
	require.Len(t, result.SuggestedActions, 1)
	assert.Contains(t, result.SuggestedActions[0].Action, "recommend")

	names := make([]string, len(result.Themes))
	for i, theme := range result.Themes {
		names[i] = theme.Name
	}
	assert.Contains(t, names, "email")
}

func TestAnalyze_RateLimited(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"type": "rate_limit_error", "message": "rate limit reached"}}`))
	})

	result, aerr := adapter.Analyze(context.Background(), newRequest(t, "anything"))

	assert.Nil(t, result)
	require.NotNil(t, aerr)
	assert.Equal(t, analysis.KindRateLimited, aerr.Kind)
	assert.Equal(t, "rate limit reached", aerr.Message)
	assert.NotEmpty(t, aerr.Suggestion)
}

func TestAnalyze_ContextOverflow(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"type": "invalid_request_error", "message": "prompt is too long: 210000 tokens"}}`))
	})

	_, aerr := adapter.Analyze(context.Background(), newRequest(t, "anything"))

	require.NotNil(t, aerr)
	assert.Equal(t, analysis.KindContextOverflow, aerr.Kind)
	assert.False(t, aerr.Kind.Recoverable())
}

func TestAnalyze_InvalidInput(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"type": "invalid_request_error", "message": "messages: text content blocks must be non-empty"}}`))
	})

	_, aerr := adapter.Analyze(context.Background(), newRequest(t, "anything"))

	require.NotNil(t, aerr)
	assert.Equal(t, analysis.KindInvalidInput, aerr.Kind)
}

func TestAnalyze_ServerError(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"type": "api_error", "message": "internal server error"}}`))
	})

	_, aerr := adapter.Analyze(context.Background(), newRequest(t, "anything"))

	require.NotNil(t, aerr)
	assert.Equal(t, analysis.KindUnavailable, aerr.Kind)
	assert.True(t, aerr.Kind.Recoverable())
}

func TestAnalyze_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse all connections

	adapter := New(Config{APIKey: "k", BaseURL: server.URL}, zap.NewNop())

	_, aerr := adapter.Analyze(context.Background(), newRequest(t, "anything"))

	require.NotNil(t, aerr)
	assert.Equal(t, analysis.KindUnavailable, aerr.Kind)
}

func TestAnalyze_Timeout(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(30 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, aerr := adapter.Analyze(ctx, newRequest(t, "anything"))

	require.NotNil(t, aerr)
	assert.Equal(t, analysis.KindTimeout, aerr.Kind)
}

func TestAnalyze_MalformedSuccessBody(t *testing.T) {
	adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content": [], "usage": {}}`))
	})

	_, aerr := adapter.Analyze(context.Background(), newRequest(t, "anything"))

	// An empty completion counts as an unusable 200 response
	require.NotNil(t, aerr)
	assert.Equal(t, analysis.KindMalformedResponse, aerr.Kind)
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy endpoint", func(t *testing.T) {
		adapter, _ := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/models", r.URL.Path)
			w.WriteHeader(http.StatusOK)
		})
		assert.True(t, adapter.HealthCheck(context.Background()))
	})

	t.Run("missing api key", func(t *testing.T) {
		adapter := New(Config{}, zap.NewNop())
		assert.False(t, adapter.HealthCheck(context.Background()))
	})

	t.Run("unreachable endpoint", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()
		adapter := New(Config{APIKey: "k", BaseURL: server.URL}, zap.NewNop())
		assert.False(t, adapter.HealthCheck(context.Background()))
	})
}

func TestName(t *testing.T) {
	assert.Equal(t, "claude", New(Config{}, zap.NewNop()).Name())
}

func TestNew_Defaults(t *testing.T) {
	adapter := New(Config{APIKey: "k"}, nil)
	assert.Equal(t, defaultBaseURL, adapter.config.BaseURL)
	assert.Equal(t, defaultModel, adapter.config.Model)
	assert.Equal(t, 30*time.Second, adapter.config.Timeout)
}
