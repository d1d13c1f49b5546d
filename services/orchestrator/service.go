// Package orchestrator executes selection decisions against the provider
// registry: it tries candidates strictly in order, falls back on
// recoverable failures, stops early on non-recoverable ones, and records
// every attempt in the metrics collector.
package orchestrator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/EldestGruff/personal-ai-assistant-sub000/services/analysis"
	"github.com/EldestGruff/personal-ai-assistant-sub000/services/metrics"
	"github.com/EldestGruff/personal-ai-assistant-sub000/services/providers"
	"github.com/EldestGruff/personal-ai-assistant-sub000/services/selection"
)

// Service coordinates policy, registry, and metrics for one analysis call
type Service struct {
	registry  *providers.Registry
	policy    selection.Policy
	collector *metrics.Collector
	logger    *zap.Logger
}

// NewService creates an orchestrator with all dependencies injected
func NewService(
	registry *providers.Registry,
	policy selection.Policy,
	collector *metrics.Collector,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		registry:  registry,
		policy:    policy,
		collector: collector,
		logger:    logger,
	}
}

// AnalyzeWithFallback runs the request through the selection plan.
// Providers are invoked one at a time: a later candidate is only tried
// after observing the earlier one's definitive recoverable failure. The
// error return is either an *analysis.AnalysisError (last provider
// failure) or an *analysis.ConfigError (selection misconfiguration).
func (s *Service) AnalyzeWithFallback(ctx context.Context, req *analysis.AnalysisRequest) (*analysis.AnalysisResult, error) {
	available := s.registry.ListAvailable()

	decision, err := s.policy.Select(ctx, &selection.RequestContext{
		Available:     available,
		ContentLength: len(req.Content),
		Hint:          req.ModelHint,
	})
	if err != nil {
		s.logger.Error("provider selection failed",
			zap.String("request_id", req.ID),
			zap.Strings("available", available),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("selection decided",
		zap.String("request_id", req.ID),
		zap.String("strategy", decision.Strategy),
		zap.String("reasoning", decision.Reasoning))

	var lastErr *analysis.AnalysisError

	for _, choice := range decision.Choices() {
		result, aerr := s.attempt(ctx, req, choice)
		if aerr == nil {
			return result, nil
		}

		lastErr = aerr

		if !aerr.Kind.Recoverable() {
			s.logger.Warn("non-recoverable failure, stopping fallback chain",
				zap.String("request_id", req.ID),
				zap.String("provider", choice.Provider),
				zap.String("kind", aerr.Kind.String()))
			return nil, aerr
		}

		s.logger.Warn("recoverable failure, trying next candidate",
			zap.String("request_id", req.ID),
			zap.String("provider", choice.Provider),
			zap.String("kind", aerr.Kind.String()))
	}

	s.logger.Error("all candidates exhausted",
		zap.String("request_id", req.ID),
		zap.String("last_provider", lastErr.Provider),
		zap.String("last_kind", lastErr.Kind.String()))

	return nil, lastErr
}

// attempt executes one choice: resolve the provider, apply the choice's
// timeout, invoke Analyze, and record the outcome in the collector
// regardless of what it was.
func (s *Service) attempt(ctx context.Context, req *analysis.AnalysisRequest, choice selection.Choice) (*analysis.AnalysisResult, *analysis.AnalysisError) {
	provider, err := s.registry.Get(choice.Provider)
	if err != nil {
		// The provider disappeared between listing and resolution
		aerr := analysis.NewAnalysisError(req.ID, choice.Provider, analysis.KindUnavailable,
			"provider no longer registered")
		s.collector.RecordFailure(choice.Provider, aerr.Kind)
		return nil, aerr
	}

	attemptReq := req.WithOverrideTimeout(choice.Timeout)

	s.logger.Debug("invoking provider",
		zap.String("request_id", req.ID),
		zap.String("provider", choice.Provider),
		zap.String("role", string(choice.Role)),
		zap.Duration("timeout", attemptReq.Timeout))

	startTime := time.Now()
	result, aerr := provider.Analyze(ctx, attemptReq)
	latencyMs := time.Since(startTime).Milliseconds()

	if aerr != nil {
		s.collector.RecordFailure(choice.Provider, aerr.Kind)
		return nil, aerr
	}

	s.collector.RecordSuccess(choice.Provider, latencyMs, result.Metadata.TokensUsed)

	s.logger.Info("analysis succeeded",
		zap.String("request_id", req.ID),
		zap.String("provider", choice.Provider),
		zap.Int64("latency_ms", latencyMs),
		zap.Int("tokens", result.Metadata.TokensUsed))

	return result, nil
}

// HealthCheckAll reports the health of every registered provider
func (s *Service) HealthCheckAll(ctx context.Context) map[string]bool {
	return s.registry.HealthCheckAll(ctx)
}

// Stats returns the per-provider metrics snapshot
func (s *Service) Stats() map[string]metrics.ProviderStats {
	return s.collector.GetAllStats()
}
