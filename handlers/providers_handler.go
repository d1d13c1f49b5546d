package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/EldestGruff/personal-ai-assistant-sub000/utils"
)

// ProviderDirectory is the read-only registry view the handler needs
type ProviderDirectory interface {
	ListAvailable() []string
	DefaultName() string
	HealthCheckAll(ctx context.Context) map[string]bool
}

// ProviderInfo describes one registered provider
type ProviderInfo struct {
	Name    string `json:"name"`
	Default bool   `json:"default"`
	Healthy bool   `json:"healthy"`
}

// ProvidersHandler lists registered providers and their health
type ProvidersHandler struct {
	directory ProviderDirectory
	logger    *zap.Logger
}

// NewProvidersHandler creates a new ProvidersHandler
func NewProvidersHandler(directory ProviderDirectory, logger *zap.Logger) *ProvidersHandler {
	return &ProvidersHandler{
		directory: directory,
		logger:    logger,
	}
}

// HandleListProviders handles GET /v1/providers
func (h *ProvidersHandler) HandleListProviders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	names := h.directory.ListAvailable()
	health := h.directory.HealthCheckAll(ctx)
	defaultName := h.directory.DefaultName()

	infos := make([]ProviderInfo, 0, len(names))
	for _, name := range names {
		infos = append(infos, ProviderInfo{
			Name:    name,
			Default: name == defaultName,
			Healthy: health[name],
		})
	}

	if err := utils.WriteOK(w, infos); err != nil {
		h.logger.Error("failed to write providers response", zap.Error(err))
	}
}
