package analysis

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequest(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		content string
		opts    []RequestOption
		wantErr bool
	}{
		{
			name:    "valid request",
			id:      "req-1",
			content: "Should improve email system",
		},
		{
			name:    "empty id",
			id:      "",
			content: "some thought",
			wantErr: true,
		},
		{
			name:    "empty content",
			id:      "req-2",
			content: "",
			wantErr: true,
		},
		{
			name:    "whitespace-only content",
			id:      "req-3",
			content: "   \t\n  ",
			wantErr: true,
		},
		{
			name:    "content too long",
			id:      "req-4",
			content: strings.Repeat("a", MaxContentLength+1),
			wantErr: true,
		},
		{
			name:    "content at limit",
			id:      "req-5",
			content: strings.Repeat("a", MaxContentLength),
		},
		{
			name:    "unknown model hint",
			id:      "req-6",
			content: "a thought",
			opts:    []RequestOption{WithModelHint("premium")},
			wantErr: true,
		},
		{
			name:    "valid model hint",
			id:      "req-7",
			content: "a thought",
			opts:    []RequestOption{WithModelHint(HintFast)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := NewRequest(tt.id, tt.content, tt.opts...)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, req)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.id, req.ID)
			assert.Equal(t, strings.TrimSpace(tt.content), req.Content)
		})
	}
}

func TestNewRequest_TrimsContent(t *testing.T) {
	req, err := NewRequest("req-1", "  hello world  ")
	require.NoError(t, err)
	assert.Equal(t, "hello world", req.Content)
}

func TestNewRequest_DefaultTimeout(t *testing.T) {
	req, err := NewRequest("req-1", "hello")
	require.NoError(t, err)
	assert.Equal(t, DefaultTimeout, req.Timeout)
}

func TestNewRequest_ClampsTimeout(t *testing.T) {
	tests := []struct {
		name     string
		timeout  time.Duration
		expected time.Duration
	}{
		{"below floor", 1 * time.Second, MinTimeout},
		{"above ceiling", 5 * time.Minute, MaxTimeout},
		{"within window", 45 * time.Second, 45 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := NewRequest("req-1", "hello", WithTimeout(tt.timeout))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, req.Timeout)
		})
	}
}

func TestWithOverrideTimeout_DoesNotMutateOriginal(t *testing.T) {
	req, err := NewRequest("req-1", "hello")
	require.NoError(t, err)

	clone := req.WithOverrideTimeout(10 * time.Second)

	assert.Equal(t, DefaultTimeout, req.Timeout)
	assert.Equal(t, 10*time.Second, clone.Timeout)
	assert.Equal(t, req.ID, clone.ID)
	assert.Equal(t, req.Content, clone.Content)
}

func TestWithOverrideTimeout_Clamps(t *testing.T) {
	req, err := NewRequest("req-1", "hello")
	require.NoError(t, err)

	assert.Equal(t, MinTimeout, req.WithOverrideTimeout(time.Second).Timeout)
	assert.Equal(t, MaxTimeout, req.WithOverrideTimeout(time.Hour).Timeout)
}

func TestAnalysisResult_Validate(t *testing.T) {
	valid := func() *AnalysisResult {
		return &AnalysisResult{
			RequestID: "req-1",
			Provider:  "mock",
			Summary:   "a summary",
			Themes:    []Theme{{Name: "email", Confidence: 0.9}},
			SuggestedActions: []SuggestedAction{
				{Action: "do the thing", Priority: PriorityMedium, Confidence: 0.7},
			},
		}
	}

	t.Run("valid result", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("missing request id", func(t *testing.T) {
		r := valid()
		r.RequestID = ""
		assert.Error(t, r.Validate())
	})

	t.Run("missing provider", func(t *testing.T) {
		r := valid()
		r.Provider = ""
		assert.Error(t, r.Validate())
	})

	t.Run("empty summary", func(t *testing.T) {
		r := valid()
		r.Summary = ""
		assert.Error(t, r.Validate())
	})

	t.Run("summary too long", func(t *testing.T) {
		r := valid()
		r.Summary = strings.Repeat("x", MaxSummaryLength+1)
		assert.Error(t, r.Validate())
	})

	t.Run("confidence out of range", func(t *testing.T) {
		r := valid()
		r.Themes[0].Confidence = 1.5
		assert.Error(t, r.Validate())
	})

	t.Run("unknown priority", func(t *testing.T) {
		r := valid()
		r.SuggestedActions[0].Priority = "urgent"
		assert.Error(t, r.Validate())
	})
}

func TestTruncateSummary(t *testing.T) {
	short := "short summary"
	assert.Equal(t, short, TruncateSummary(short))

	long := strings.Repeat("x", MaxSummaryLength*2)
	truncated := TruncateSummary(long)
	assert.Len(t, truncated, MaxSummaryLength)
	assert.True(t, strings.HasSuffix(truncated, "..."))
}

func TestPriority_Valid(t *testing.T) {
	for _, p := range []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical} {
		assert.True(t, p.Valid(), string(p))
	}
	assert.False(t, Priority("urgent").Valid())
}
