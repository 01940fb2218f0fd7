package handlers

import (
	"net/http"
	"time"

	"github.com/upb/llm-gateway/services/providers"
	"github.com/upb/llm-gateway/services/routing"
	"github.com/upb/llm-gateway/utils"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status"`
}

// ProviderStatus describes a registered provider without its credential
type ProviderStatus struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	URL           string `json:"url"`
	HasCredential bool   `json:"has_credential"`
}

// StatusResponse is the operational view of routing state
type StatusResponse struct {
	Version     string                     `json:"version"`
	Environment string                     `json:"environment"`
	Timestamp   string                     `json:"timestamp"`
	Providers   []ProviderStatus           `json:"providers"`
	Routes      map[string]providers.Route `json:"routes"`
	Cooldowns   []routing.Cooldown         `json:"cooldowns"`
	Counters    map[string]uint64          `json:"counters"`
}

// StatusInfo identifies the running build
type StatusInfo struct {
	Version     string
	Environment string
}

// HealthHandler handles health and status requests
type HealthHandler struct {
	registry  *providers.Registry
	breaker   *routing.Breaker
	scheduler *routing.Scheduler
	info      StatusInfo
	logger    *zap.Logger
	now       func() time.Time
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(registry *providers.Registry, breaker *routing.Breaker, scheduler *routing.Scheduler, info StatusInfo, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		registry:  registry,
		breaker:   breaker,
		scheduler: scheduler,
		info:      info,
		logger:    logger,
		now:       time.Now,
	}
}

// HandleHealth handles GET /healthz
// Basic health check - always returns 200 if service is running
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, HealthResponse{Status: "ok"})
}

// HandleStatus handles GET /v1/status
func (h *HealthHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	now := h.now()

	ids := h.registry.ProviderIDs()
	statuses := make([]ProviderStatus, 0, len(ids))
	for _, id := range ids {
		cfg, ok := h.registry.Provider(id)
		if !ok {
			continue
		}
		statuses = append(statuses, ProviderStatus{
			ID:            id,
			Name:          cfg.Name,
			URL:           cfg.URL,
			HasCredential: cfg.Key != "",
		})
	}

	response := StatusResponse{
		Version:     h.info.Version,
		Environment: h.info.Environment,
		Timestamp:   now.UTC().Format(time.RFC3339),
		Providers:   statuses,
		Routes:      h.registry.Routes(),
		Cooldowns:   h.breaker.Snapshot(now),
		Counters:    h.scheduler.Counters(),
	}

	if err := utils.WriteOK(w, response); err != nil {
		h.logger.Error("failed to write status response", zap.Error(err))
	}
}
