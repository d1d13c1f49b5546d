package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/EldestGruff/personal-ai-assistant-sub000/services/analysis"
	"github.com/EldestGruff/personal-ai-assistant-sub000/utils"
)

// HandleServiceError maps domain errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	if analysis.IsConfigError(err) {
		logger.Error("selection misconfiguration", zap.Error(err))
		if werr := utils.WriteError(w, http.StatusServiceUnavailable,
			"No configured analysis provider is available", nil); werr != nil {
			logger.Error("failed to write service unavailable response", zap.Error(werr))
		}
		return
	}

	aerr, ok := analysis.AsAnalysisError(err)
	if !ok {
		logger.Error("unhandled error type", zap.Error(err))
		if werr := utils.WriteInternalServerError(w, "An unexpected error occurred"); werr != nil {
			logger.Error("failed to write internal error response", zap.Error(werr))
		}
		return
	}

	details := map[string]interface{}{
		"provider": aerr.Provider,
		"kind":     aerr.Kind.String(),
	}
	if aerr.Suggestion != "" {
		details["suggestion"] = aerr.Suggestion
	}

	var werr error
	switch aerr.Kind {
	case analysis.KindInvalidInput:
		werr = utils.WriteBadRequest(w, aerr.Message, details)

	case analysis.KindContextOverflow:
		werr = utils.WriteError(w, http.StatusRequestEntityTooLarge, aerr.Message, details)

	case analysis.KindTimeout:
		werr = utils.WriteError(w, http.StatusGatewayTimeout, aerr.Message, details)

	case analysis.KindRateLimited:
		werr = utils.WriteTooManyRequests(w, aerr.Message, details)

	case analysis.KindUnavailable, analysis.KindMalformedResponse:
		werr = utils.WriteError(w, http.StatusBadGateway, aerr.Message, details)

	default:
		// Internal adapter failures stay generic on the wire
		logger.Error("internal provider error",
			zap.String("provider", aerr.Provider),
			zap.Error(aerr))
		werr = utils.WriteInternalServerError(w, "An internal error occurred")
	}

	if werr != nil {
		logger.Error("failed to write error response", zap.Error(werr))
	}
}

// HandleValidationError handles validation errors from request parsing
func HandleValidationError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if utils.IsValidationError(err) {
		fields := utils.GetValidationFields(err)
		details := make(map[string]interface{})
		for k, v := range fields {
			details[k] = v
		}
		if werr := utils.WriteBadRequest(w, "Validation failed", details); werr != nil {
			logger.Error("failed to write validation error response", zap.Error(werr))
		}
		return
	}

	if werr := utils.WriteBadRequest(w, err.Error(), nil); werr != nil {
		logger.Error("failed to write validation error response", zap.Error(werr))
	}
}
