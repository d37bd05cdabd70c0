package handler

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/warehouse/stocksync/internal/domain/marketplace"
	"github.com/warehouse/stocksync/internal/interfaces/http/dto"
)

// Version is set at build time with -ldflags "-X ...handler.Version=..."
var Version = "dev"

const healthCheckTimeout = 3 * time.Second

// HealthCheck reports whether a dependency is usable
type HealthCheck func(ctx context.Context) error

// PlatformStatus lists the registered adapters
type PlatformStatus interface {
	Platforms() []marketplace.Platform
	Get(p marketplace.Platform) (marketplace.Adapter, bool)
}

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	startTime time.Time
	checks    map[string]HealthCheck
	platforms PlatformStatus
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(platforms PlatformStatus) *SystemHandler {
	return &SystemHandler{
		startTime: time.Now(),
		checks:    make(map[string]HealthCheck),
		platforms: platforms,
	}
}

// AddCheck registers a named dependency check for /health
func (h *SystemHandler) AddCheck(name string, check HealthCheck) {
	h.checks[name] = check
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string          `json:"name"`
	Version   string          `json:"version"`
	GoVersion string          `json:"go_version"`
	Uptime    string          `json:"uptime"`
	Platforms map[string]bool `json:"platforms"`
}

// GetSystemInfo returns version, uptime and which marketplaces have credentials
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	info := SystemInfoResponse{
		Name:      "stocksync",
		Version:   Version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Platforms: make(map[string]bool),
	}
	if h.platforms != nil {
		for _, p := range h.platforms.Platforms() {
			if a, ok := h.platforms.Get(p); ok {
				info.Platforms[string(p)] = a.IsConfigured()
			}
		}
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(info))
}

// HealthResponse is the body of /health
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health runs every registered check. Any failure answers 503.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(names))}
	status := http.StatusOK
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	c.JSON(status, resp)
}
