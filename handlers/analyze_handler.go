package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/EldestGruff/personal-ai-assistant-sub000/services/analysis"
	"github.com/EldestGruff/personal-ai-assistant-sub000/utils"
)

// AnalyzeRequest represents the analyze API request body
type AnalyzeRequest struct {
	ID                string            `json:"id,omitempty" validate:"omitempty,max=128"`
	Content           string            `json:"content" validate:"required,max=5000"`
	Context           map[string]string `json:"context,omitempty"`
	TimeoutSeconds    int               `json:"timeout_seconds,omitempty" validate:"omitempty,gte=1,lte=60"`
	ModelHint         string            `json:"model_hint,omitempty" validate:"omitempty,oneof=fast quality cheap"`
	IncludeConfidence bool              `json:"include_confidence,omitempty"`
}

// AnalyzeResponse represents the analyze API response body
type AnalyzeResponse struct {
	RequestID        string                     `json:"request_id"`
	Provider         string                     `json:"provider"`
	Summary          string                     `json:"summary"`
	Themes           []analysis.Theme           `json:"themes"`
	SuggestedActions []analysis.SuggestedAction `json:"suggested_actions"`
	Metadata         analysis.ResultMetadata    `json:"metadata"`
}

// AnalysisService defines the interface for analysis orchestration
type AnalysisService interface {
	AnalyzeWithFallback(ctx context.Context, req *analysis.AnalysisRequest) (*analysis.AnalysisResult, error)
}

// AnalyzeHandler handles content analysis HTTP requests
type AnalyzeHandler struct {
	service AnalysisService
	logger  *zap.Logger
}

// NewAnalyzeHandler creates a new AnalyzeHandler
func NewAnalyzeHandler(service AnalysisService, logger *zap.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{
		service: service,
		logger:  logger,
	}
}

// HandleAnalyze handles POST /v1/analyze
func (h *AnalyzeHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var apiReq AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&apiReq); err != nil {
		h.logger.Warn("failed to parse request body", zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&apiReq); err != nil {
		h.logger.Warn("request validation failed", zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return
	}

	requestID := apiReq.ID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	opts := make([]analysis.RequestOption, 0, 4)
	if len(apiReq.Context) > 0 {
		opts = append(opts, analysis.WithContext(apiReq.Context))
	}
	if apiReq.TimeoutSeconds > 0 {
		opts = append(opts, analysis.WithTimeout(time.Duration(apiReq.TimeoutSeconds)*time.Second))
	}
	if apiReq.ModelHint != "" {
		opts = append(opts, analysis.WithModelHint(analysis.ModelHint(apiReq.ModelHint)))
	}
	if apiReq.IncludeConfidence {
		opts = append(opts, analysis.WithConfidence())
	}

	serviceReq, err := analysis.NewRequest(requestID, apiReq.Content, opts...)
	if err != nil {
		h.logger.Warn("invalid analysis request",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	h.logger.Debug("processing analysis request",
		zap.String("request_id", requestID),
		zap.Int("content_length", len(serviceReq.Content)),
		zap.String("model_hint", string(serviceReq.ModelHint)))

	result, err := h.service.AnalyzeWithFallback(ctx, serviceReq)
	if err != nil {
		h.logger.Error("analysis failed",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	response := AnalyzeResponse{
		RequestID:        result.RequestID,
		Provider:         result.Provider,
		Summary:          result.Summary,
		Themes:           result.Themes,
		SuggestedActions: result.SuggestedActions,
		Metadata:         result.Metadata,
	}

	h.logger.Info("analysis request successful",
		zap.String("request_id", requestID),
		zap.String("provider", result.Provider),
		zap.Int("themes", len(result.Themes)),
		zap.Int("suggested_actions", len(result.SuggestedActions)),
		zap.Int("tokens_used", result.Metadata.TokensUsed))

	if err := utils.WriteOK(w, response); err != nil {
		h.logger.Error("failed to write response",
			zap.String("request_id", requestID),
			zap.Error(err))
	}
}
