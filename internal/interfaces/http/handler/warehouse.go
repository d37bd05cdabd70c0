package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/warehouse/stocksync/internal/application/warehouse"
)

// WarehouseSelector runs the WB warehouse heuristic
type WarehouseSelector interface {
	Select(ctx context.Context, skus []string) (*warehouse.Selection, error)
	Refresh(ctx context.Context) (*warehouse.Selection, error)
}

// WarehouseHandler reports the WB warehouse selection
type WarehouseHandler struct {
	BaseHandler
	selector WarehouseSelector
}

// NewWarehouseHandler creates a new WarehouseHandler
func NewWarehouseHandler(selector WarehouseSelector) *WarehouseHandler {
	return &WarehouseHandler{selector: selector}
}

// SelectWB godoc
// @Summary      Run the WB warehouse heuristic
// @Description  Reads stock on each WB warehouse for the given SKUs (default: every WB alias) and returns the ranking.
// @Tags         warehouses
// @Produce      json
// @Param        skus query string false "Comma-separated WB SKUs"
// @Success      200 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Security     BearerAuth
// @Router       /warehouses/wb/select [get]
func (h *WarehouseHandler) SelectWB(c *gin.Context) {
	selection, err := h.selector.Select(c.Request.Context(), splitSKUs(c.QueryArray("skus")))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, selection)
}

// RefreshWB godoc
// @Summary      Re-select the WB warehouse
// @Description  Reruns the heuristic over every WB alias and makes the winner the warehouse used by later WB pushes. A failed run keeps the previous choice.
// @Tags         warehouses
// @Produce      json
// @Success      200 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      502 {object} dto.Response
// @Security     BearerAuth
// @Router       /warehouses/wb/refresh [post]
func (h *WarehouseHandler) RefreshWB(c *gin.Context) {
	selection, err := h.selector.Refresh(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, selection)
}

// splitSKUs accepts both ?skus=a,b and repeated ?skus=a&skus=b
func splitSKUs(values []string) []string {
	var skus []string
	for _, v := range values {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				skus = append(skus, s)
			}
		}
	}
	return skus
}
