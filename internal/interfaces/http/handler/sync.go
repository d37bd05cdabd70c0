package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/warehouse/stocksync/internal/application/reconcile"
	"github.com/warehouse/stocksync/internal/domain/ordersync"
	"github.com/warehouse/stocksync/internal/infrastructure/scheduler"
	"github.com/warehouse/stocksync/internal/interfaces/http/dto"
)

const defaultHistoryLimit = 20

// SyncRunner runs one reconciliation
type SyncRunner interface {
	Run(ctx context.Context, req reconcile.Request) (*ordersync.RunSummary, error)
}

// RunHistory exposes recent scheduled runs
type RunHistory interface {
	History(limit int) []scheduler.RunRecord
}

// SyncHandler triggers manual runs and reports scheduled ones
type SyncHandler struct {
	BaseHandler
	runner  SyncRunner
	history RunHistory
}

// NewSyncHandler creates a new SyncHandler. history may be nil when the
// scheduler is disabled.
func NewSyncHandler(runner SyncRunner, history RunHistory) *SyncHandler {
	return &SyncHandler{runner: runner, history: history}
}

// Run godoc
// @Summary      Run a manual reconciliation
// @Description  Ingests new orders and pushes stock. With full=true every aliased item is pushed.
// @Tags         sync
// @Accept       json
// @Produce      json
// @Param        request body dto.SyncRequest false "Platforms and full flag"
// @Success      200 {object} dto.Response
// @Security     BearerAuth
// @Router       /sync [post]
func (h *SyncHandler) Run(c *gin.Context) {
	var req dto.SyncRequest
	if c.Request.ContentLength != 0 {
		if !h.BindJSON(c, &req) {
			return
		}
	}
	platforms, err := parsePlatforms(req.Platforms)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	summary, err := h.runner.Run(c.Request.Context(), reconcile.Request{
		Platforms: platforms,
		Full:      req.Full,
		Trigger:   reconcile.TriggerManual,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, summary)
}

// Runs godoc
// @Summary      List recent scheduled runs
// @Tags         sync
// @Produce      json
// @Param        limit query int false "Maximum records" default(20)
// @Success      200 {object} dto.Response
// @Security     BearerAuth
// @Router       /sync/runs [get]
func (h *SyncHandler) Runs(c *gin.Context) {
	if h.history == nil {
		h.Success(c, []scheduler.RunRecord{})
		return
	}
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = n
	}
	h.Success(c, h.history.History(limit))
}
