package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	appinventory "github.com/warehouse/stocksync/internal/application/inventory"
	"github.com/warehouse/stocksync/internal/domain/inventory"
	"github.com/warehouse/stocksync/internal/infrastructure/logger"
	"github.com/warehouse/stocksync/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// StockLedger is the part of the ledger service the API exposes
type StockLedger interface {
	View(ctx context.Context, itemID string) (*appinventory.StockView, error)
	SetQuantity(ctx context.Context, itemID, cell string, quantity int) error
}

// ItemFinder looks up catalog items
type ItemFinder interface {
	FindByID(ctx context.Context, id string) (*inventory.Item, error)
}

// LedgerHandler serves per-item stock and manual cell edits
type LedgerHandler struct {
	BaseHandler
	ledger StockLedger
	items  ItemFinder
	pusher StockPusher
}

// NewLedgerHandler creates a new LedgerHandler. A nil pusher leaves
// marketplaces untouched after manual edits.
func NewLedgerHandler(ledger StockLedger, items ItemFinder, pusher StockPusher) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, items: items, pusher: pusher}
}

// Get godoc
// @Summary      Get item stock
// @Description  Returns the aggregate quantity and the per-cell breakdown
// @Tags         ledger
// @Produce      json
// @Param        item path string true "Item ID"
// @Success      200 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Security     BearerAuth
// @Router       /ledger/{item} [get]
func (h *LedgerHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	itemID := strings.TrimSpace(c.Param("item"))
	if _, err := h.items.FindByID(ctx, itemID); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	view, err := h.ledger.View(ctx, itemID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, view)
}

// SetQuantity godoc
// @Summary      Overwrite a ledger cell
// @Description  Sets the quantity of an item in one cell. Zero removes the cell. The new total is pushed to marketplaces.
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Param        item path string true "Item ID"
// @Param        cell path string true "Storage cell"
// @Param        request body dto.SetQuantityRequest true "New quantity"
// @Success      200 {object} dto.Response
// @Failure      400 {object} dto.Response
// @Security     BearerAuth
// @Router       /ledger/{item}/{cell} [put]
func (h *LedgerHandler) SetQuantity(c *gin.Context) {
	ctx := c.Request.Context()
	itemID := strings.TrimSpace(c.Param("item"))
	cell := strings.TrimSpace(c.Param("cell"))

	var req dto.SetQuantityRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if _, err := h.items.FindByID(ctx, itemID); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	if err := h.ledger.SetQuantity(ctx, itemID, cell, *req.Quantity); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	logger.FromContext(ctx).Info("Ledger cell overwritten",
		zap.String("item_id", itemID),
		zap.String("cell", cell),
		zap.Int("quantity", *req.Quantity),
	)

	view, err := h.ledger.View(ctx, itemID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	resp := dto.SetQuantityResponse{Stock: view}
	if h.pusher != nil {
		result, err := h.pusher.PushChanged(ctx, []string{itemID}, nil)
		if err != nil {
			logger.FromContext(ctx).Error("Stock push after manual edit failed", zap.String("item_id", itemID), zap.Error(err))
		} else {
			resp.Push = result
		}
	}
	h.Success(c, resp)
}
