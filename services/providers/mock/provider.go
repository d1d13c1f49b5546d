// Package mock provides a deterministic analysis provider for exercising
// orchestrator and registry behavior without network calls or flakiness.
package mock

import (
	"context"
	"strings"
	"time"

	"github.com/EldestGruff/personal-ai-assistant-sub000/services/analysis"
)

// Mode selects the deterministic behavior of the provider
type Mode string

const (
	// ModeSuccess returns a keyword-derived analysis result
	ModeSuccess Mode = "success"

	// ModeTimeout returns a TIMEOUT error without waiting
	ModeTimeout Mode = "timeout"

	// ModeUnavailable returns an UNAVAILABLE error
	ModeUnavailable Mode = "unavailable"

	// ModeRateLimited returns a RATE_LIMITED error
	ModeRateLimited Mode = "rate-limited"

	// ModeMalformed returns a MALFORMED_RESPONSE error
	ModeMalformed Mode = "malformed"
)

// keywordThemes maps content substrings to the theme they imply. Order
// matters: themes are emitted in this order for identical output across
// calls.
var keywordThemes = []struct {
	keyword    string
	theme      string
	confidence float64
}{
	{"email", "email", 0.9},
	{"improve", "optimization", 0.85},
	{"optimiz", "optimization", 0.85},
	{"task", "productivity", 0.8},
	{"meeting", "meetings", 0.8},
	{"idea", "ideas", 0.75},
}

// actionMarkers make the provider emit exactly one suggested action
var actionMarkers = []string{"should", "need to"}

// Provider is the deterministic test double. The zero value is a
// success-mode provider named "mock".
type Provider struct {
	name string
	mode Mode
}

// New creates a success-mode provider named "mock"
func New() *Provider {
	return &Provider{name: "mock", mode: ModeSuccess}
}

// NewWithMode creates a provider with a fixed failure-injection mode
func NewWithMode(mode Mode) *Provider {
	return &Provider{name: "mock", mode: mode}
}

// NewNamed creates a provider with a custom name and mode; useful when a
// test registers several mocks side by side
func NewNamed(name string, mode Mode) *Provider {
	return &Provider{name: name, mode: mode}
}

// Name implements providers.Provider
func (p *Provider) Name() string {
	if p.name == "" {
		return "mock"
	}
	return p.name
}

// Mode returns the configured behavior
func (p *Provider) Mode() Mode {
	if p.mode == "" {
		return ModeSuccess
	}
	return p.mode
}

// Analyze implements providers.Provider. Identical id+content always
// yields byte-identical summary and theme output.
func (p *Provider) Analyze(ctx context.Context, req *analysis.AnalysisRequest) (*analysis.AnalysisResult, *analysis.AnalysisError) {
	switch p.Mode() {
	case ModeTimeout:
		return nil, analysis.NewAnalysisError(req.ID, p.Name(), analysis.KindTimeout,
			"injected timeout").WithSuggestion("retry against another provider")
	case ModeUnavailable:
		return nil, analysis.NewAnalysisError(req.ID, p.Name(), analysis.KindUnavailable,
			"injected unavailability").WithSuggestion("retry against another provider")
	case ModeRateLimited:
		return nil, analysis.NewAnalysisError(req.ID, p.Name(), analysis.KindRateLimited,
			"injected rate limit").WithSuggestion("back off and retry")
	case ModeMalformed:
		return nil, analysis.NewAnalysisError(req.ID, p.Name(), analysis.KindMalformedResponse,
			"injected malformed response")
	}

	if err := ctx.Err(); err != nil {
		return nil, analysis.NewAnalysisError(req.ID, p.Name(), analysis.KindTimeout, err.Error())
	}

	result := &analysis.AnalysisResult{
		RequestID:        req.ID,
		Provider:         p.Name(),
		Summary:          buildSummary(req.Content),
		Themes:           detectThemes(req.Content),
		SuggestedActions: detectActions(req.Content),
		Metadata: analysis.ResultMetadata{
			TokensUsed:       len(req.Content) / 4,
			ProcessingTimeMs: 0,
			ModelVersion:     "mock-1.0",
			Timestamp:        time.Now().UTC().Format(time.RFC3339),
		},
	}

	return result, nil
}

// HealthCheck implements providers.Provider; failure modes other than
// success report unhealthy so selection tests can exercise availability.
func (p *Provider) HealthCheck(ctx context.Context) bool {
	return p.Mode() == ModeSuccess || p.Mode() == ModeMalformed
}

func buildSummary(content string) string {
	return analysis.TruncateSummary("Analysis of: " + content)
}

func detectThemes(content string) []analysis.Theme {
	lower := strings.ToLower(content)

	var themes []analysis.Theme
	seen := make(map[string]bool)
	for _, kt := range keywordThemes {
		if !strings.Contains(lower, kt.keyword) || seen[kt.theme] {
			continue
		}
		seen[kt.theme] = true
		themes = append(themes, analysis.Theme{Name: kt.theme, Confidence: kt.confidence})
	}

	if len(themes) == 0 {
		themes = append(themes, analysis.Theme{Name: "general", Confidence: 0.5})
	}
	return themes
}

func detectActions(content string) []analysis.SuggestedAction {
	lower := strings.ToLower(content)
	for _, marker := range actionMarkers {
		if strings.Contains(lower, marker) {
			return []analysis.SuggestedAction{{
				Action:     "Follow up on: " + analysis.TruncateSummary(content),
				Priority:   analysis.PriorityMedium,
				Confidence: 0.7,
			}}
		}
	}
	return nil
}
