// Package claude implements the hosted-API analysis provider on top of the
// Anthropic messages API.
package claude

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
	defaultBaseURL = "https://api.anthropic.com"
	defaultModel   = "claude-3-5-haiku-latest"
	apiVersion     = "2023-06-01"
	maxTokens      = 1024
)

// Config holds the adapter configuration resolved by the application
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Adapter is the hosted-API provider. Safe for concurrent use; the
// underlying http.Client handles connection pooling.
type Adapter struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

// New creates a Claude adapter
func New(cfg Config, logger *zap.Logger) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Adapter{
		config: cfg,
		// No client-level timeout: the per-request context deadline governs
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Name implements providers.Provider
func (a *Adapter) Name() string {
	return "claude"
}

// Analyze implements providers.Provider. Every failure path, including a
// panic inside the adapter, is converted to an *analysis.AnalysisError.
func (a *Adapter) Analyze(ctx context.Context, req *analysis.AnalysisRequest) (result *analysis.AnalysisResult, aerr *analysis.AnalysisError) {
	defer func() {
		if rec := recover(); rec != nil {
			a.logger.Error("claude adapter panicked", zap.Any("panic", rec))
			result = nil
			aerr = analysis.NewAnalysisError(req.ID, a.Name(), analysis.KindInternalError,
				fmt.Sprintf("unexpected failure: %v", rec))
		}
	}()

	startTime := time.Now()

	callCtx, cancel := context.WithTimeout(ctx, analysis.ClampTimeout(req.Timeout))
	defer cancel()

	raw, usage, err := a.complete(callCtx, req)
	if err != nil {
		return nil, a.classifyError(req.ID, err)
	}

	result = &analysis.AnalysisResult{
		RequestID:        req.ID,
		Provider:         a.Name(),
		Summary:          summarize(raw, req.Content),
		Themes:           detectThemes(raw, req.Content),
		SuggestedActions: detectActions(raw),
		Metadata: analysis.ResultMetadata{
			TokensUsed:       usage,
			ProcessingTimeMs: time.Since(startTime).Milliseconds(),
			ModelVersion:     a.config.Model,
			Timestamp:        time.Now().UTC().Format(time.RFC3339),
		},
	}

	return result, nil
}

// HealthCheck implements providers.Provider. A key presence check plus a
// cheap GET avoids burning completion quota.
func (a *Adapter) HealthCheck(ctx context.Context) bool {
	if a.config.APIKey == "" {
		return false
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.config.BaseURL+"/v1/models", nil)
	if err != nil {
		return false
	}
	httpReq.Header.Set("x-api-key", a.config.APIKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

// messagesRequest is the Anthropic messages API request shape
type messagesRequest struct {
	Model     string           `json:"model"`
	MaxTokens int              `json:"max_tokens"`
	System    string           `json:"system,omitempty"`
	Messages  []messageContent `json:"messages"`
}

type messageContent struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// apiError carries enough of the HTTP failure to classify it
type apiError struct {
	statusCode int
	message    string
	cause      error
	malformed  bool
}

func (e *apiError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("claude api: %s: %v", e.message, e.cause)
	}
	return fmt.Sprintf("claude api: status %d: %s", e.statusCode, e.message)
}

const systemPrompt = "You are an assistant that analyzes a personal thought or task. " +
	"Summarize it in one or two sentences, name its main themes, and, when the " +
	"text implies a follow-up, recommend exactly one concrete action."

// complete sends the content to the messages endpoint and returns the raw
// completion text and total token usage
func (a *Adapter) complete(ctx context.Context, req *analysis.AnalysisRequest) (string, int, error) {
	body := messagesRequest{
		Model:     a.config.Model,
		MaxTokens: maxTokens,
		System:    systemPrompt,
		Messages:  []messageContent{{Role: "user", Content: req.Content}},
	}

	reqBody, err := json.Marshal(body)
	if err != nil {
		return "", 0, &apiError{message: "failed to marshal request", cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.config.BaseURL+"/v1/messages", bytes.NewReader(reqBody))
	if err != nil {
		return "", 0, &apiError{message: "failed to create request", cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", a.config.APIKey)
	httpReq.Header.Set("anthropic-version", apiVersion)

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return "", 0, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return "", 0, &apiError{statusCode: httpResp.StatusCode, message: "failed to read response", cause: err}
	}

	if httpResp.StatusCode != http.StatusOK {
		msg := gjson.GetBytes(respBody, "error.message").String()
		if msg == "" {
			msg = strings.TrimSpace(string(respBody))
		}
		return "", 0, &apiError{statusCode: httpResp.StatusCode, message: msg}
	}

	var parsed messagesResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", 0, &apiError{statusCode: httpResp.StatusCode, message: "unparseable response body", cause: err, malformed: true}
	}

	var text strings.Builder
	for _, block := range parsed.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", 0, &apiError{statusCode: httpResp.StatusCode, message: "response contained no text content", malformed: true}
	}

	return text.String(), parsed.Usage.InputTokens + parsed.Usage.OutputTokens, nil
}

// classifyError maps transport and API failures onto the closed error-kind
// taxonomy
func (a *Adapter) classifyError(requestID string, err error) *analysis.AnalysisError {
	if errors.Is(err, context.DeadlineExceeded) {
		return analysis.NewAnalysisError(requestID, a.Name(), analysis.KindTimeout,
			"request exceeded its deadline").WithSuggestion("retry with a longer timeout or a faster provider")
	}
	if errors.Is(err, context.Canceled) {
		return analysis.NewAnalysisError(requestID, a.Name(), analysis.KindTimeout, "request canceled")
	}

	var apiErr *apiError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.malformed:
			return analysis.NewAnalysisError(requestID, a.Name(), analysis.KindMalformedResponse,
				apiErr.message).WithSuggestion("retry against another provider")
		case apiErr.statusCode == http.StatusTooManyRequests:
			return analysis.NewAnalysisError(requestID, a.Name(), analysis.KindRateLimited,
				apiErr.message).WithSuggestion("back off and retry, or fall back to a local provider")
		case apiErr.statusCode == http.StatusRequestEntityTooLarge ||
			strings.Contains(apiErr.message, "prompt is too long"):
			return analysis.NewAnalysisError(requestID, a.Name(), analysis.KindContextOverflow,
				apiErr.message).WithSuggestion("shorten the content")
		case apiErr.statusCode == http.StatusBadRequest:
			return analysis.NewAnalysisError(requestID, a.Name(), analysis.KindInvalidInput, apiErr.message)
		case apiErr.statusCode >= 400:
			return analysis.NewAnalysisError(requestID, a.Name(), analysis.KindUnavailable,
				apiErr.message).WithSuggestion("retry against another provider")
		default:
			return analysis.NewAnalysisError(requestID, a.Name(), analysis.KindInternalError, apiErr.Error())
		}
	}

	// Transport-level failure: connection refused, DNS, TLS
	return analysis.NewAnalysisError(requestID, a.Name(), analysis.KindUnavailable,
		err.Error()).WithSuggestion("retry against another provider")
}

// summarize extracts the first sentence or two of the completion; falls
// back to the original content when the completion is unusable
func summarize(raw, content string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return analysis.TruncateSummary(content)
	}

	if idx := strings.Index(raw, "\n\n"); idx > 0 {
		raw = raw[:idx]
	}
	return analysis.TruncateSummary(raw)
}

// themeKeywords drive the lightweight theme heuristic over the completion
// and the original content
var themeKeywords = []struct {
	keyword string
	theme   string
}{
	{"email", "email"},
	{"improve", "optimization"},
	{"optimiz", "optimization"},
	{"task", "productivity"},
	{"schedule", "planning"},
	{"meeting", "meetings"},
	{"idea", "ideas"},
}

func detectThemes(raw, content string) []analysis.Theme {
	haystack := strings.ToLower(raw + " " + content)

	var themes []analysis.Theme
	seen := make(map[string]bool)
	for _, tk := range themeKeywords {
		if !strings.Contains(haystack, tk.keyword) || seen[tk.theme] {
			continue
		}
		seen[tk.theme] = true
		themes = append(themes, analysis.Theme{Name: tk.theme, Confidence: 0.8})
	}

	if len(themes) == 0 {
		themes = append(themes, analysis.Theme{Name: "general", Confidence: 0.5})
	}
	return themes
}

// actionCues signal the completion contains an actionable suggestion;
// their presence yields exactly one SuggestedAction
var actionCues = []string{"recommend", "suggest", "you should", "next step"}

func detectActions(raw string) []analysis.SuggestedAction {
	lower := strings.ToLower(raw)
	for _, cue := range actionCues {
		if strings.Contains(lower, cue) {
			return []analysis.SuggestedAction{{
				Action:     extractActionLine(raw),
				Priority:   analysis.PriorityMedium,
				Confidence: 0.75,
			}}
		}
	}
	return nil
}

// extractActionLine returns the line of the completion carrying the cue,
// or a truncated completion when no single line stands out
func extractActionLine(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		lower := strings.ToLower(line)
		for _, cue := range actionCues {
			if strings.Contains(lower, cue) {
				return analysis.TruncateSummary(strings.TrimSpace(line))
			}
		}
	}
	return analysis.TruncateSummary(strings.TrimSpace(raw))
}
