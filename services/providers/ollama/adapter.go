// Package ollama implements the local-inference analysis provider against
// a self-hosted Ollama endpoint. A process-wide concurrency gate keeps at
// most one call in flight so a shared local accelerator is never
// overwhelmed.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/EldestGruff/personal-ai-assistant-sub000/services/analysis"
)

const (
	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "llama3.2"
)

// Config holds the adapter configuration resolved by the application
type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Adapter is the local-inference provider. The permit channel holds
// exactly one token: concurrent callers block on acquisition until the
// in-flight call releases it.
type Adapter struct {
	config     Config
	httpClient *http.Client
	permit     chan struct{}
	logger     *zap.Logger
}

// New creates an Ollama adapter with a single-permit concurrency gate
func New(cfg Config, logger *zap.Logger) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	permit := make(chan struct{}, 1)
	permit <- struct{}{}

	return &Adapter{
		config:     cfg,
		httpClient: &http.Client{},
		permit:     permit,
		logger:     logger,
	}
}

// Name implements providers.Provider
func (a *Adapter) Name() string {
	return "ollama"
}

// Analyze implements providers.Provider. The caller blocks until the
// single in-flight permit is acquired or the context deadline elapses.
func (a *Adapter) Analyze(ctx context.Context, req *analysis.AnalysisRequest) (result *analysis.AnalysisResult, aerr *analysis.AnalysisError) {
	defer func() {
		if rec := recover(); rec != nil {
			a.logger.Error("ollama adapter panicked", zap.Any("panic", rec))
			result = nil
			aerr = analysis.NewAnalysisError(req.ID, a.Name(), analysis.KindInternalError,
				fmt.Sprintf("unexpected failure: %v", rec))
		}
	}()

	startTime := time.Now()

	callCtx, cancel := context.WithTimeout(ctx, analysis.ClampTimeout(req.Timeout))
	defer cancel()

	select {
	case <-a.permit:
		defer func() { a.permit <- struct{}{} }()
	case <-callCtx.Done():
		return nil, analysis.NewAnalysisError(req.ID, a.Name(), analysis.KindTimeout,
			"timed out waiting for the local inference slot").
			WithSuggestion("retry later or fall back to a hosted provider")
	}

	raw, err := a.generate(callCtx, req)
	if err != nil {
		return nil, a.classifyError(req.ID, err)
	}

	result = a.parseResponse(req, raw)
	result.Metadata.ProcessingTimeMs = time.Since(startTime).Milliseconds()
	return result, nil
}

// HealthCheck implements providers.Provider; a tag listing is cheap and
// does not occupy the inference slot
func (a *Adapter) HealthCheck(ctx context.Context) bool {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.config.BaseURL+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

const promptTemplate = `Analyze the following personal thought or task and answer ONLY with JSON in exactly this shape:
{"summary": "...", "themes": [{"name": "...", "confidence": 0.0}], "actions": [{"action": "...", "priority": "low|medium|high|critical", "confidence": 0.0}]}

Thought:
%s`

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response  string `json:"response"`
	EvalCount int    `json:"eval_count"`
}

// generate calls the /api/generate endpoint and returns the raw model text
func (a *Adapter) generate(ctx context.Context, req *analysis.AnalysisRequest) (*generateResponse, error) {
	body := generateRequest{
		Model:  a.config.Model,
		Prompt: fmt.Sprintf(promptTemplate, req.Content),
		Stream: false,
	}

	reqBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.config.BaseURL+"/api/generate", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned status %d: %s",
			httpResp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("unparseable ollama response: %w", err)
	}

	return &parsed, nil
}

// parseResponse turns the raw model text into an AnalysisResult. Local
// models often wrap their JSON in prose, so the first balanced {...} block
// is extracted and parsed; when that fails the adapter degrades gracefully
// to a truncated-text summary rather than failing the request.
func (a *Adapter) parseResponse(req *analysis.AnalysisRequest, raw *generateResponse) *analysis.AnalysisResult {
	result := &analysis.AnalysisResult{
		RequestID: req.ID,
		Provider:  a.Name(),
		Metadata: analysis.ResultMetadata{
			TokensUsed:   raw.EvalCount,
			ModelVersion: a.config.Model,
			Timestamp:    time.Now().UTC().Format(time.RFC3339),
		},
	}

	block := extractJSONBlock(raw.Response)
	if block == "" || !gjson.Valid(block) {
		a.logger.Warn("ollama response not parseable, degrading to text summary",
			zap.String("request_id", req.ID))
		result.Summary = fallbackSummary(raw.Response, req.Content)
		// Degraded results are still successes; the marker lets operators
		// tell them apart without breaking the contract
		result.Metadata.ModelVersion = a.config.Model + "-degraded"
		return result
	}

	parsed := gjson.Parse(block)

	result.Summary = strings.TrimSpace(parsed.Get("summary").String())
	if result.Summary == "" {
		result.Summary = fallbackSummary(raw.Response, req.Content)
	}
	result.Summary = analysis.TruncateSummary(result.Summary)

	for _, theme := range parsed.Get("themes").Array() {
		name := strings.TrimSpace(theme.Get("name").String())
		if name == "" {
			continue
		}
		result.Themes = append(result.Themes, analysis.Theme{
			Name:       name,
			Confidence: clampConfidence(theme.Get("confidence").Float()),
		})
	}

	for _, action := range parsed.Get("actions").Array() {
		text := strings.TrimSpace(action.Get("action").String())
		if text == "" {
			continue
		}
		priority := analysis.Priority(action.Get("priority").String())
		if !priority.Valid() {
			priority = analysis.PriorityMedium
		}
		result.SuggestedActions = append(result.SuggestedActions, analysis.SuggestedAction{
			Action:     text,
			Priority:   priority,
			Confidence: clampConfidence(action.Get("confidence").Float()),
		})
	}

	return result
}

// classifyError maps transport failures onto the error-kind taxonomy
func (a *Adapter) classifyError(requestID string, err error) *analysis.AnalysisError {
	if errors.Is(err, context.DeadlineExceeded) {
		return analysis.NewAnalysisError(requestID, a.Name(), analysis.KindTimeout,
			"request exceeded its deadline").
			WithSuggestion("large local models are slow; retry with a longer timeout")
	}
	if errors.Is(err, context.Canceled) {
		return analysis.NewAnalysisError(requestID, a.Name(), analysis.KindTimeout, "request canceled")
	}

	return analysis.NewAnalysisError(requestID, a.Name(), analysis.KindUnavailable,
		err.Error()).WithSuggestion("check that the inference server is running")
}

// extractJSONBlock returns the first balanced {...} substring of s, or ""
func extractJSONBlock(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = inString
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}

func fallbackSummary(response, content string) string {
	text := strings.TrimSpace(response)
	if text == "" {
		text = content
	}
	return analysis.TruncateSummary(text)
}

func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}
