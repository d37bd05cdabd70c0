package handler

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/warehouse/stocksync/internal/domain/marketplace"
	"github.com/warehouse/stocksync/internal/domain/ordersync"
	"github.com/warehouse/stocksync/internal/interfaces/http/dto"
)

const (
	defaultProcessedWindow = 24 * time.Hour
	defaultProcessedLimit  = 100
	maxProcessedLimit      = 1000
)

// ProcessedOrderLister reads the dedup markers
type ProcessedOrderLister interface {
	ListSince(ctx context.Context, platform marketplace.Platform, since time.Time, limit int) ([]ordersync.ProcessedOrder, error)
}

// ProcessedOrderHandler lists orders already applied to the ledger
type ProcessedOrderHandler struct {
	BaseHandler
	orders ProcessedOrderLister
	now    func() time.Time
}

// NewProcessedOrderHandler creates a new ProcessedOrderHandler
func NewProcessedOrderHandler(orders ProcessedOrderLister) *ProcessedOrderHandler {
	return &ProcessedOrderHandler{orders: orders, now: time.Now}
}

// List godoc
// @Summary      Applied orders
// @Description  Orders of one platform applied at or after since (RFC 3339, default: 24h ago), oldest first.
// @Tags         orders
// @Produce      json
// @Param        platform query string true "wb, ozon or ym"
// @Param        since query string false "RFC 3339 timestamp"
// @Param        limit query int false "1 to 1000, default 100"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Security     BearerAuth
// @Router       /orders/processed [get]
func (h *ProcessedOrderHandler) List(c *gin.Context) {
	platform, err := marketplace.ParsePlatform(c.Query("platform"))
	if err != nil {
		h.BadRequest(c, "platform must be one of wb, ozon, ym")
		return
	}

	since := h.now().Add(-defaultProcessedWindow)
	if raw := c.Query("since"); raw != "" {
		if since, err = time.Parse(time.RFC3339, raw); err != nil {
			h.BadRequest(c, "since must be an RFC 3339 timestamp")
			return
		}
	}

	limit := defaultProcessedLimit
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxProcessedLimit {
			h.BadRequest(c, "limit must be between 1 and 1000")
			return
		}
	}

	orders, err := h.orders.ListSince(c.Request.Context(), platform, since, limit)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	views := make([]dto.ProcessedOrderView, len(orders))
	for i, o := range orders {
		lines := o.Lines
		if lines == nil {
			lines = []marketplace.OrderLine{}
		}
		views[i] = dto.ProcessedOrderView{
			Platform:    string(o.Platform),
			OrderID:     o.OrderID,
			Lines:       lines,
			ProcessedAt: o.ProcessedAt.UTC().Format(time.RFC3339),
		}
	}
	h.Success(c, dto.ProcessedOrderList{
		Platform: string(platform),
		Since:    since.UTC().Format(time.RFC3339),
		Orders:   views,
	})
}
