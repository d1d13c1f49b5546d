// Package selection decides which providers to try for a request, in what
// order, and with what per-attempt timeout.
package selection

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/EldestGruff/personal-ai-assistant-sub000/services/analysis"
)

// Role describes the part a provider plays in a decision
type Role string

const (
	RolePrimary  Role = "primary"
	RoleFallback Role = "fallback"
	RoleParallel Role = "parallel"
)

// StrategySequential is the only strategy currently implemented: try the
// primary chain in order, then the fallback chain
const StrategySequential = "sequential"

// Choice is one provider attempt inside a decision
type Choice struct {
	// Provider is the registry name to resolve
	Provider string `json:"provider"`

	// Role is primary, fallback, or parallel
	Role Role `json:"role"`

	// Timeout bounds this specific attempt (clamped 5-60s)
	Timeout time.Duration `json:"timeout"`
}

// Decision is the ordered plan the orchestrator executes. Computed fresh
// per request and never persisted.
type Decision struct {
	// Strategy tags how the plan was computed
	Strategy string `json:"strategy"`

	// Primary choices are attempted first, in order
	Primary []Choice `json:"primary"`

	// Fallback choices are attempted after the primaries, in order
	Fallback []Choice `json:"fallback"`

	// Reasoning explains which provider plays which role and why
	Reasoning string `json:"reasoning"`

	// DecidedAt is when the plan was computed
	DecidedAt time.Time `json:"decided_at"`
}

// Choices returns the full attempt order: primaries then fallbacks
func (d *Decision) Choices() []Choice {
	out := make([]Choice, 0, len(d.Primary)+len(d.Fallback))
	out = append(out, d.Primary...)
	out = append(out, d.Fallback...)
	return out
}

// RequestContext carries what the policy needs to decide
type RequestContext struct {
	// Available is the set of currently registered provider names
	Available []string

	// ContentLength is the length of the content to analyze
	ContentLength int

	// Hint is the caller's model preference, when any
	Hint analysis.ModelHint
}

// Policy produces an ordered plan for a request
type Policy interface {
	Select(ctx context.Context, reqCtx *RequestContext) (*Decision, error)
}

// defaultTimeouts is the per-provider-class timeout table. Large local
// models need far more headroom than a hosted API; the request-level clamp
// still caps every attempt at analysis.MaxTimeout.
var defaultTimeouts = map[string]time.Duration{
	"claude": 30 * time.Second,
	"ollama": 60 * time.Second,
	"mock":   5 * time.Second,
}

// Config is the static configuration the sequential policy reads
type Config struct {
	// Primary is the preferred provider name
	Primary string

	// Secondary is the provider to prefer when Primary is unavailable,
	// and the fallback otherwise
	Secondary string

	// Timeouts overrides the per-provider timeout table
	Timeouts map[string]time.Duration
}

// SequentialPolicy implements the default ordering: configured primary,
// then configured secondary as fallback
type SequentialPolicy struct {
	config Config
	logger *zap.Logger
}

// NewSequentialPolicy creates the default policy
func NewSequentialPolicy(cfg Config, logger *zap.Logger) *SequentialPolicy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SequentialPolicy{config: cfg, logger: logger}
}

// Select computes the plan. When neither configured provider is available
// it returns an *analysis.ConfigError rather than an empty decision: an
// unusable configuration is an operational fault, not a provider fault.
func (p *SequentialPolicy) Select(ctx context.Context, reqCtx *RequestContext) (*Decision, error) {
	available := make(map[string]bool, len(reqCtx.Available))
	for _, name := range reqCtx.Available {
		available[name] = true
	}

	var primary string
	var reasoning strings.Builder

	switch {
	case p.config.Primary != "" && available[p.config.Primary]:
		primary = p.config.Primary
		fmt.Fprintf(&reasoning, "primary %q selected as the configured first choice", primary)
	case p.config.Secondary != "" && available[p.config.Secondary]:
		primary = p.config.Secondary
		fmt.Fprintf(&reasoning, "primary %q promoted because configured primary %q is not available",
			primary, p.config.Primary)
	default:
		return nil, &analysis.ConfigError{
			Message:   "no configured provider is available",
			Primary:   p.config.Primary,
			Secondary: p.config.Secondary,
			Available: reqCtx.Available,
		}
	}

	decision := &Decision{
		Strategy:  StrategySequential,
		Primary:   []Choice{{Provider: primary, Role: RolePrimary, Timeout: p.timeoutFor(primary)}},
		DecidedAt: time.Now().UTC(),
	}

	if p.config.Secondary != "" && p.config.Secondary != primary && available[p.config.Secondary] {
		decision.Fallback = []Choice{{
			Provider: p.config.Secondary,
			Role:     RoleFallback,
			Timeout:  p.timeoutFor(p.config.Secondary),
		}}
		fmt.Fprintf(&reasoning, "; fallback %q will be tried on recoverable failure", p.config.Secondary)
	} else {
		reasoning.WriteString("; no distinct fallback is available")
	}

	decision.Reasoning = reasoning.String()

	p.logger.Debug("selection decided",
		zap.String("strategy", decision.Strategy),
		zap.String("primary", primary),
		zap.Int("fallbacks", len(decision.Fallback)),
		zap.String("reasoning", decision.Reasoning))

	return decision, nil
}

// timeoutFor resolves the per-attempt timeout: explicit configuration
// first, then the class table, then the request default
func (p *SequentialPolicy) timeoutFor(provider string) time.Duration {
	if d, ok := p.config.Timeouts[provider]; ok {
		return analysis.ClampTimeout(d)
	}
	if d, ok := defaultTimeouts[provider]; ok {
		return analysis.ClampTimeout(d)
	}
	return analysis.DefaultTimeout
}
