package analysis

import (
	"fmt"
	"strings"
	"time"
)

const (
	// MinContentLength is the shortest content Analyze accepts
	MinContentLength = 1

	// MaxContentLength is the longest content Analyze accepts
	MaxContentLength = 5000

	// MinTimeout is the floor for per-request timeouts
	MinTimeout = 5 * time.Second

	// MaxTimeout is the ceiling for per-request timeouts
	MaxTimeout = 60 * time.Second

	// DefaultTimeout applies when the caller does not supply one
	DefaultTimeout = 30 * time.Second

	// MaxSummaryLength caps the summary text a provider may return
	MaxSummaryLength = 1000
)

// ModelHint expresses a caller preference for how the analysis is produced
type ModelHint string

const (
	HintFast    ModelHint = "fast"
	HintQuality ModelHint = "quality"
	HintCheap   ModelHint = "cheap"
)

// Valid reports whether the hint is one of the known values
func (h ModelHint) Valid() bool {
	switch h {
	case "", HintFast, HintQuality, HintCheap:
		return true
	}
	return false
}

// Priority ranks a suggested action
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Valid reports whether the priority is one of the known values
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// AnalysisRequest is the unit of work submitted to a provider.
// Build one with NewRequest; treat it as immutable afterwards.
type AnalysisRequest struct {
	// ID is the caller-supplied identifier used for tracing and idempotency
	ID string `json:"id"`

	// Content is the trimmed thought/task text to analyze
	Content string `json:"content"`

	// Context carries optional free-form key/value hints for the provider
	Context map[string]string `json:"context,omitempty"`

	// Timeout bounds the provider call (5s to 60s)
	Timeout time.Duration `json:"-"`

	// ModelHint is an optional preference: fast, quality, or cheap
	ModelHint ModelHint `json:"model_hint,omitempty"`

	// IncludeConfidence asks the provider to populate confidence scores
	IncludeConfidence bool `json:"include_confidence,omitempty"`
}

// NewRequest validates and normalizes the inputs into an AnalysisRequest.
// Content is trimmed, an empty-after-trim content is rejected, and the
// timeout is clamped into the [MinTimeout, MaxTimeout] window.
func NewRequest(id, content string, opts ...RequestOption) (*AnalysisRequest, error) {
	if id == "" {
		return nil, fmt.Errorf("request id cannot be empty")
	}

	content = strings.TrimSpace(content)
	if len(content) < MinContentLength {
		return nil, fmt.Errorf("content cannot be empty after trimming")
	}
	if len(content) > MaxContentLength {
		return nil, fmt.Errorf("content exceeds %d characters", MaxContentLength)
	}

	req := &AnalysisRequest{
		ID:      id,
		Content: content,
		Timeout: DefaultTimeout,
	}

	for _, opt := range opts {
		opt(req)
	}

	if !req.ModelHint.Valid() {
		return nil, fmt.Errorf("unknown model hint %q", req.ModelHint)
	}

	req.Timeout = ClampTimeout(req.Timeout)

	return req, nil
}

// RequestOption customizes an AnalysisRequest during construction
type RequestOption func(*AnalysisRequest)

// WithContext attaches free-form context to the request
func WithContext(ctx map[string]string) RequestOption {
	return func(r *AnalysisRequest) { r.Context = ctx }
}

// WithTimeout overrides the default timeout (clamped during construction)
func WithTimeout(d time.Duration) RequestOption {
	return func(r *AnalysisRequest) { r.Timeout = d }
}

// WithModelHint sets the caller's model preference
func WithModelHint(h ModelHint) RequestOption {
	return func(r *AnalysisRequest) { r.ModelHint = h }
}

// WithConfidence asks providers to report confidence scores
func WithConfidence() RequestOption {
	return func(r *AnalysisRequest) { r.IncludeConfidence = true }
}

// WithOverrideTimeout returns a shallow copy of the request carrying a
// different timeout. The original request is left untouched; the
// orchestrator uses this to apply per-attempt timeouts from the selection
// decision.
func (r *AnalysisRequest) WithOverrideTimeout(d time.Duration) *AnalysisRequest {
	clone := *r
	clone.Timeout = ClampTimeout(d)
	return &clone
}

// ClampTimeout forces d into the [MinTimeout, MaxTimeout] window
func ClampTimeout(d time.Duration) time.Duration {
	if d < MinTimeout {
		return MinTimeout
	}
	if d > MaxTimeout {
		return MaxTimeout
	}
	return d
}

// Theme is a single topic detected in the content
type Theme struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// SuggestedAction is a follow-up the analysis recommends
type SuggestedAction struct {
	Action     string   `json:"action"`
	Priority   Priority `json:"priority"`
	Confidence float64  `json:"confidence"`
}

// ResultMetadata carries provider bookkeeping for a successful analysis
type ResultMetadata struct {
	TokensUsed       int    `json:"tokens_used"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
	ModelVersion     string `json:"model_version"`
	Timestamp        string `json:"timestamp"`
}

// AnalysisResult is a successful provider response
type AnalysisResult struct {
	// RequestID echoes the id of the request that produced this result
	RequestID string `json:"request_id"`

	// Provider is the name of the provider that produced the result
	Provider string `json:"provider"`

	// Summary is a short restatement of the content (1-1000 chars)
	Summary string `json:"summary"`

	// Themes are detected topics, in provider order
	Themes []Theme `json:"themes"`

	// SuggestedActions are recommended follow-ups, in provider order
	SuggestedActions []SuggestedAction `json:"suggested_actions"`

	// RelatedIDs reference other thoughts the provider linked
	RelatedIDs []string `json:"related_ids,omitempty"`

	// Metadata carries token usage, timing, and version information
	Metadata ResultMetadata `json:"metadata"`
}

// Validate checks the result against the contract invariants
func (r *AnalysisResult) Validate() error {
	if r.RequestID == "" {
		return fmt.Errorf("result missing request id")
	}
	if r.Provider == "" {
		return fmt.Errorf("result missing provider name")
	}
	if len(r.Summary) < 1 || len(r.Summary) > MaxSummaryLength {
		return fmt.Errorf("summary length %d outside 1-%d", len(r.Summary), MaxSummaryLength)
	}
	for _, t := range r.Themes {
		if t.Confidence < 0 || t.Confidence > 1 {
			return fmt.Errorf("theme %q confidence %f outside 0-1", t.Name, t.Confidence)
		}
	}
	for _, a := range r.SuggestedActions {
		if !a.Priority.Valid() {
			return fmt.Errorf("action %q has unknown priority %q", a.Action, a.Priority)
		}
	}
	return nil
}

// TruncateSummary shortens s to fit the summary length contract
func TruncateSummary(s string) string {
	if len(s) <= MaxSummaryLength {
		return s
	}
	return s[:MaxSummaryLength-3] + "..."
}
