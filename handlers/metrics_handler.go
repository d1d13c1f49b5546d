package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/EldestGruff/personal-ai-assistant-sub000/services/metrics"
	"github.com/EldestGruff/personal-ai-assistant-sub000/utils"
)

// MetricsHandler exposes the per-provider counters over HTTP
type MetricsHandler struct {
	collector *metrics.Collector
	logger    *zap.Logger
}

// NewMetricsHandler creates a new MetricsHandler
func NewMetricsHandler(collector *metrics.Collector, logger *zap.Logger) *MetricsHandler {
	return &MetricsHandler{
		collector: collector,
		logger:    logger,
	}
}

// HandleGetAllStats handles GET /v1/metrics/providers
func (h *MetricsHandler) HandleGetAllStats(w http.ResponseWriter, r *http.Request) {
	stats := h.collector.GetAllStats()

	if err := utils.WriteOK(w, stats); err != nil {
		h.logger.Error("failed to write metrics response", zap.Error(err))
	}
}

// HandleGetProviderStats handles GET /v1/metrics/providers/{name}.
// Unknown providers return zero-valued stats, not 404: a provider with no
// traffic yet is not an error.
func (h *MetricsHandler) HandleGetProviderStats(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		_ = utils.WriteBadRequest(w, "provider name is required", nil)
		return
	}

	stats := h.collector.GetStats(name)

	if err := utils.WriteOK(w, stats); err != nil {
		h.logger.Error("failed to write metrics response",
			zap.String("provider", name),
			zap.Error(err))
	}
}

// HandleResetProviderStats handles DELETE /v1/metrics/providers/{name}
func (h *MetricsHandler) HandleResetProviderStats(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		_ = utils.WriteBadRequest(w, "provider name is required", nil)
		return
	}

	h.collector.Reset(name)
	h.logger.Info("provider metrics reset", zap.String("provider", name))

	utils.WriteNoContent(w)
}

// HandleResetAllStats handles DELETE /v1/metrics/providers
func (h *MetricsHandler) HandleResetAllStats(w http.ResponseWriter, r *http.Request) {
	h.collector.ResetAll()
	h.logger.Info("all provider metrics reset")

	utils.WriteNoContent(w)
}
