package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/warehouse/stocksync/internal/domain/ordersync"
	"github.com/warehouse/stocksync/internal/interfaces/http/dto"
)

// TallyLister reads shipment tallies
type TallyLister interface {
	ListByDate(ctx context.Context, date string) ([]ordersync.ShipmentTally, error)
}

// TallyHandler serves the daily shipment tally
type TallyHandler struct {
	BaseHandler
	tallies TallyLister
	now     func() time.Time
}

// NewTallyHandler creates a new TallyHandler
func NewTallyHandler(tallies TallyLister) *TallyHandler {
	return &TallyHandler{tallies: tallies, now: time.Now}
}

// List godoc
// @Summary      Daily shipment tally
// @Description  Units taken out per platform and item on one UTC day. Defaults to today.
// @Tags         tallies
// @Produce      json
// @Param        date query string false "YYYY-MM-DD"
// @Success      200 {object} dto.Response
// @Security     BearerAuth
// @Router       /tallies [get]
func (h *TallyHandler) List(c *gin.Context) {
	date := ordersync.TallyDate(h.now())
	if raw := c.Query("date"); raw != "" {
		parsed, err := ordersync.ParseTallyDate(raw)
		if err != nil {
			h.BadRequest(c, "date must be in YYYY-MM-DD format")
			return
		}
		date = parsed
	}

	tallies, err := h.tallies.ListByDate(c.Request.Context(), date)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	if tallies == nil {
		tallies = []ordersync.ShipmentTally{}
	}
	totals := make(map[string]int)
	for _, t := range tallies {
		totals[string(t.Platform)] += t.DecreasedQty
	}
	h.Success(c, dto.TallyResponse{Date: date, Tallies: tallies, Totals: totals})
}
