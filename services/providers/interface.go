package providers

import (
	"context"

	"github.com/EldestGruff/personal-ai-assistant-sub000/services/analysis"
)

// Provider is the capability contract every analysis backend implements.
// Implementations must be safe for concurrent use, must respect the
// request timeout via the context deadline, and must never panic out of
// Analyze: every failure mode is converted to an *analysis.AnalysisError.
type Provider interface {
	// Name returns the stable, lowercase identifier used for registry
	// keys, logging, and metrics
	Name() string

	// Analyze runs the request against the backend. Exactly one of the
	// return values is non-nil.
	Analyze(ctx context.Context, req *analysis.AnalysisRequest) (*analysis.AnalysisResult, *analysis.AnalysisError)

	// HealthCheck reports whether the backend is currently reachable.
	// It should be cheap (target under 2s) and must never panic.
	HealthCheck(ctx context.Context) bool
}
