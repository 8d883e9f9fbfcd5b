// Package handler provides HTTP handlers for the BrineMap API.
package handler

import (
	"net/http"
	"time"

	"github.com/brinemap/brinemap/internal/api/models"
	"github.com/brinemap/brinemap/internal/api/response"
	"github.com/brinemap/brinemap/internal/lakedata"
	"github.com/brinemap/brinemap/internal/provider/resilience"
)

// OpsHandler handles operational endpoints.
type OpsHandler struct {
	version   string
	buildTime string
	store     *lakedata.Store
	registry  *resilience.Registry
}

// NewOpsHandler creates a new OpsHandler. A nil registry reports no providers.
func NewOpsHandler(version, buildTime string, store *lakedata.Store, registry *resilience.Registry) *OpsHandler {
	return &OpsHandler{
		version:   version,
		buildTime: buildTime,
		store:     store,
		registry:  registry,
	}
}

// HealthCheck handles GET /v1/ops/health - liveness check.
func (h *OpsHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status: models.HealthStatusOK,
		Time:   models.Timestamp(time.Now()),
		Details: map[string]any{
			"version":   h.version,
			"buildTime": h.buildTime,
		},
	}
	response.JSON(w, r, http.StatusOK, health)
}

// ReadinessCheck handles GET /v1/ops/ready. It answers 503 until the first
// data load has completed.
func (h *OpsHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	lc := h.store.Get()
	if lc == nil {
		response.JSON(w, r, http.StatusServiceUnavailable, models.Readiness{
			Status: models.HealthStatusFail,
			Time:   models.Timestamp(time.Now()),
		})
		return
	}

	response.JSON(w, r, http.StatusOK, models.Readiness{
		Status:   models.HealthStatusOK,
		Time:     models.Timestamp(time.Now()),
		LoadedAt: models.TimestampPtr(lc.LoadedAt),
	})
}

// SystemStatus handles GET /v1/ops/status - data strategies and feed health.
func (h *OpsHandler) SystemStatus(w http.ResponseWriter, r *http.Request) {
	status := models.SystemStatus{
		Status:    models.HealthStatusOK,
		Time:      models.Timestamp(time.Now()),
		Providers: h.providers(),
	}

	lc := h.store.Get()
	if lc == nil {
		detail := "data not loaded"
		status.Status = models.HealthStatusFail
		status.Subsystems = []models.SubsystemStatus{
			{Name: "lake-data", Status: models.HealthStatusFail, Detail: &detail},
		}
		response.JSON(w, r, http.StatusOK, status)
		return
	}

	sites, bounds := lc.SiteStrategy, lc.BoundaryStrategy
	status.Subsystems = []models.SubsystemStatus{
		{Name: "lake-data", Status: models.HealthStatusOK},
		{Name: lakedata.SourceSites, Status: strategyStatus(sites, lakedata.StrategySiteFeed), Detail: &sites},
		{Name: lakedata.SourceBoundaries, Status: strategyStatus(bounds, lakedata.StrategyBoundaryFeed), Detail: &bounds},
	}
	status.Warnings = toWarnings(lc.Warnings)

	if len(status.Warnings) > 0 {
		status.Status = models.HealthStatusDegraded
	}
	for _, p := range status.Providers {
		if p.Status != models.HealthStatusOK {
			status.Status = models.HealthStatusDegraded
			break
		}
	}

	response.JSON(w, r, http.StatusOK, status)
}

func (h *OpsHandler) providers() []models.ProviderStatus {
	if h.registry == nil {
		return []models.ProviderStatus{}
	}

	all := h.registry.GetAllHealth()
	out := make([]models.ProviderStatus, 0, len(all))
	for _, ph := range all {
		ps := models.ProviderStatus{
			Provider:     ph.Name,
			Status:       providerStatus(ph),
			CircuitState: ph.CircuitState.String(),
		}
		if ph.LastSuccessAt != nil {
			ps.LastSuccessAt = models.TimestampPtr(*ph.LastSuccessAt)
		}
		if ph.LastFailureAt != nil {
			ps.LastFailureAt = models.TimestampPtr(*ph.LastFailureAt)
		}
		if ph.LastError != "" {
			msg := ph.LastError
			ps.Message = &msg
		}
		out = append(out, ps)
	}
	return out
}

func providerStatus(ph *resilience.ProviderHealth) models.HealthStatus {
	switch ph.Status() {
	case resilience.StatusHealthy:
		return models.HealthStatusOK
	case resilience.StatusDegraded:
		return models.HealthStatusDegraded
	default:
		return models.HealthStatusFail
	}
}

// strategyStatus is OK when the primary strategy produced the data.
func strategyStatus(used, primary string) models.HealthStatus {
	if used == primary {
		return models.HealthStatusOK
	}
	return models.HealthStatusDegraded
}

func toWarnings(in []lakedata.Warning) []models.Warning {
	out := make([]models.Warning, len(in))
	for i, w := range in {
		out[i] = models.Warning{Source: w.Source, Strategy: w.Strategy, Message: w.Message}
	}
	return out
}
