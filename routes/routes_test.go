package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/EldestGruff/personal-ai-assistant-sub000/app"
	"github.com/EldestGruff/personal-ai-assistant-sub000/config"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	cfg := &config.Config{
		Environment: "development",
		Server:      config.ServerConfig{Host: "127.0.0.1", Port: 8080},
		Providers: config.ProvidersConfig{
			Mock: config.MockConfig{Enabled: true},
		},
		Selection: config.SelectionConfig{Primary: "mock"},
		Observability: config.ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}

	deps, err := app.NewDependencies(cfg, zap.NewNop())
	require.NoError(t, err)

	return SetupRoutes(deps)
}

func TestRoutes_Health(t *testing.T) {
	router := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoutes_Readiness(t *testing.T) {
	router := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRoutes_AnalyzeEndToEnd(t *testing.T) {
	router := newTestServer(t)

	body := `{"content": "Should improve email system"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

	data := response["data"].(map[string]interface{})
	assert.Equal(t, "mock", data["provider"])
	assert.NotEmpty(t, data["request_id"])

	themes := data["themes"].([]interface{})
	names := make([]string, 0, len(themes))
	for _, raw := range themes {
		theme := raw.(map[string]interface{})
		names = append(names, theme["name"].(string))
	}
	assert.Contains(t, names, "email")
	assert.Contains(t, names, "optimization")
}

func TestRoutes_MetricsAfterAnalyze(t *testing.T) {
	router := newTestServer(t)

	body := `{"content": "Plan tomorrow's meeting"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/metrics/providers/mock", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))

	data := response["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["successes"])
	assert.Equal(t, float64(1), data["success_rate"])
}

func TestRoutes_ListProviders(t *testing.T) {
	router := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/providers", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Data []struct {
			Name    string `json:"name"`
			Default bool   `json:"default"`
			Healthy bool   `json:"healthy"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	require.Len(t, response.Data, 1)
	assert.Equal(t, "mock", response.Data[0].Name)
	assert.True(t, response.Data[0].Default)
	assert.True(t, response.Data[0].Healthy)
}

func TestRoutes_NotFound(t *testing.T) {
	router := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "endpoint not found")
}
