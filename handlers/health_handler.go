package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/EldestGruff/personal-ai-assistant-sub000/utils"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// HealthChecker probes every registered provider
type HealthChecker interface {
	HealthCheckAll(ctx context.Context) map[string]bool
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	checker HealthChecker
	logger  *zap.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(checker HealthChecker, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		checker: checker,
		logger:  logger,
	}
}

// HandleHealth handles GET /healthz.
// Liveness only: returns 200 whenever the process is serving.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	_ = utils.WriteOK(w, response)
}

// HandleReadiness handles GET /readyz.
// Ready when at least one registered provider reports healthy.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := h.checker.HealthCheckAll(ctx)

	checks := make(map[string]string, len(health))
	anyHealthy := false
	for name, healthy := range health {
		if healthy {
			checks[name] = "healthy"
			anyHealthy = true
		} else {
			checks[name] = "unhealthy"
		}
	}

	status := "ready"
	httpStatus := http.StatusOK
	if !anyHealthy {
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
		h.logger.Warn("no healthy providers", zap.Int("providers", len(health)))
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	if err := utils.WriteJSON(w, httpStatus, utils.SuccessResponse{Data: response}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}
