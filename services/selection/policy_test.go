package selection

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/EldestGruff/personal-ai-assistant-sub000/services/analysis"
)

func TestSelect_PrimaryAvailable(t *testing.T) {
	policy := NewSequentialPolicy(Config{Primary: "claude", Secondary: "ollama"}, zap.NewNop())

	decision, err := policy.Select(context.Background(), &RequestContext{
		Available: []string{"claude", "ollama", "mock"},
	})
	require.NoError(t, err)

	assert.Equal(t, StrategySequential, decision.Strategy)
	require.Len(t, decision.Primary, 1)
	assert.Equal(t, "claude", decision.Primary[0].Provider)
	assert.Equal(t, RolePrimary, decision.Primary[0].Role)
	require.Len(t, decision.Fallback, 1)
	assert.Equal(t, "ollama", decision.Fallback[0].Provider)
	assert.Equal(t, RoleFallback, decision.Fallback[0].Role)
	assert.False(t, decision.DecidedAt.IsZero())
}

func TestSelect_SecondaryPromotedWhenPrimaryUnavailable(t *testing.T) {
	policy := NewSequentialPolicy(Config{Primary: "claude", Secondary: "ollama"}, zap.NewNop())

	decision, err := policy.Select(context.Background(), &RequestContext{
		Available: []string{"ollama", "mock"},
	})
	require.NoError(t, err)

	require.Len(t, decision.Primary, 1)
	assert.Equal(t, "ollama", decision.Primary[0].Provider)

	// The promoted secondary cannot also be the fallback
	assert.Empty(t, decision.Fallback)
	assert.Contains(t, decision.Reasoning, "promoted")
}

func TestSelect_Misconfiguration(t *testing.T) {
	policy := NewSequentialPolicy(Config{Primary: "claude", Secondary: "ollama"}, zap.NewNop())

	decision, err := policy.Select(context.Background(), &RequestContext{
		Available: []string{"mock"},
	})

	// A configuration error, never an empty decision or a provider error
	assert.Nil(t, decision)
	require.Error(t, err)
	assert.True(t, analysis.IsConfigError(err))

	ce, ok := err.(*analysis.ConfigError)
	require.True(t, ok)
	assert.Equal(t, "claude", ce.Primary)
	assert.Equal(t, "ollama", ce.Secondary)
	assert.Equal(t, []string{"mock"}, ce.Available)
}

func TestSelect_NoProvidersAtAll(t *testing.T) {
	policy := NewSequentialPolicy(Config{Primary: "claude"}, zap.NewNop())

	_, err := policy.Select(context.Background(), &RequestContext{Available: nil})
	assert.True(t, analysis.IsConfigError(err))
}

func TestSelect_ReasoningIsNonTrivial(t *testing.T) {
	policy := NewSequentialPolicy(Config{Primary: "claude", Secondary: "ollama"}, zap.NewNop())

	tests := []struct {
		name      string
		available []string
	}{
		{"with fallback", []string{"claude", "ollama"}},
		{"without fallback", []string{"claude"}},
		{"promoted secondary", []string{"ollama"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, err := policy.Select(context.Background(), &RequestContext{Available: tt.available})
			require.NoError(t, err)
			assert.GreaterOrEqual(t, len(decision.Reasoning), 10)
			assert.Contains(t, decision.Reasoning, decision.Primary[0].Provider)
		})
	}
}

func TestSelect_TimeoutTable(t *testing.T) {
	policy := NewSequentialPolicy(Config{Primary: "claude", Secondary: "mock"}, zap.NewNop())

	decision, err := policy.Select(context.Background(), &RequestContext{
		Available: []string{"claude", "mock"},
	})
	require.NoError(t, err)

	assert.Equal(t, 30*time.Second, decision.Primary[0].Timeout)
	assert.Equal(t, 5*time.Second, decision.Fallback[0].Timeout)
}

func TestSelect_TimeoutOverride(t *testing.T) {
	policy := NewSequentialPolicy(Config{
		Primary:  "claude",
		Timeouts: map[string]time.Duration{"claude": 45 * time.Second},
	}, zap.NewNop())

	decision, err := policy.Select(context.Background(), &RequestContext{Available: []string{"claude"}})
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, decision.Primary[0].Timeout)
}

func TestSelect_TimeoutsAreClamped(t *testing.T) {
	policy := NewSequentialPolicy(Config{
		Primary:  "ollama",
		Timeouts: map[string]time.Duration{"ollama": 5 * time.Minute},
	}, zap.NewNop())

	decision, err := policy.Select(context.Background(), &RequestContext{Available: []string{"ollama"}})
	require.NoError(t, err)
	assert.Equal(t, analysis.MaxTimeout, decision.Primary[0].Timeout)
}

func TestSelect_UnknownProviderGetsDefaultTimeout(t *testing.T) {
	policy := NewSequentialPolicy(Config{Primary: "custom"}, zap.NewNop())

	decision, err := policy.Select(context.Background(), &RequestContext{Available: []string{"custom"}})
	require.NoError(t, err)
	assert.Equal(t, analysis.DefaultTimeout, decision.Primary[0].Timeout)
}

func TestDecision_Choices(t *testing.T) {
	d := &Decision{
		Primary:  []Choice{{Provider: "claude", Role: RolePrimary}},
		Fallback: []Choice{{Provider: "ollama", Role: RoleFallback}},
	}

	choices := d.Choices()
	require.Len(t, choices, 2)
	assert.Equal(t, "claude", choices[0].Provider)
	assert.Equal(t, "ollama", choices[1].Provider)
}
