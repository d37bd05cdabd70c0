package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/warehouse/stocksync/internal/application/stockpush"
	"github.com/warehouse/stocksync/internal/domain/marketplace"
	"github.com/warehouse/stocksync/internal/domain/ordersync"
	"github.com/warehouse/stocksync/internal/infrastructure/ecommerce"
	"github.com/warehouse/stocksync/internal/infrastructure/logger"
	"github.com/warehouse/stocksync/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// OrderIngestor applies one webhook-delivered order
type OrderIngestor interface {
	IngestOrder(ctx context.Context, platform marketplace.Platform, order marketplace.Order) (*ordersync.PlatformRunReport, error)
}

// StockPusher pushes aggregated totals of changed items
type StockPusher interface {
	PushChanged(ctx context.Context, itemIDs []string, platforms []marketplace.Platform) (*stockpush.Result, error)
}

// WebhookHandler receives marketplace order notifications
type WebhookHandler struct {
	BaseHandler
	ingestor OrderIngestor
	pusher   StockPusher
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(ingestor OrderIngestor, pusher StockPusher) *WebhookHandler {
	return &WebhookHandler{ingestor: ingestor, pusher: pusher}
}

// Receive godoc
// @Summary      Receive a marketplace notification
// @Description  New-order notifications are applied through the same dedup path as polling.
// @Description  Other notification types are acknowledged and ignored.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        platform path string true "ozon or ym"
// @Success      200 {object} dto.Response
// @Router       /webhooks/{platform} [post]
func (h *WebhookHandler) Receive(c *gin.Context) {
	ctx := c.Request.Context()
	platform, err := marketplace.ParsePlatform(c.Param("platform"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	log := logger.FromContext(ctx).With(zap.String("platform", string(platform)))

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size")
			return
		}
		h.BadRequest(c, "Failed to read request body")
		return
	}

	event, err := ecommerce.ParseWebhook(platform, body)
	if err != nil {
		log.Warn("Webhook payload rejected", zap.Error(err))
		h.HandleDomainError(c, err)
		return
	}
	ack := dto.WebhookAck{Platform: string(platform), Type: event.Type}
	if !event.Relevant() {
		ack.Ignored = true
		log.Debug("Webhook ignored", zap.String("type", event.Type))
		h.Success(c, ack)
		return
	}
	ack.OrderID = event.Order.ExternalOrderID

	report, err := h.ingestor.IngestOrder(ctx, platform, *event.Order)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	ack.Duplicate = report.Duplicates > 0
	ack.Warnings = report.Warnings
	if report.Failed > 0 {
		// non-2xx makes the marketplace redeliver the notification
		h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "Order could not be applied and will be retried")
		return
	}

	if len(report.ChangedItems) > 0 && h.pusher != nil {
		result, err := h.pusher.PushChanged(ctx, report.ChangedItems, nil)
		if err != nil {
			log.Error("Stock push after webhook failed", zap.String("order_id", ack.OrderID), zap.Error(err))
		} else {
			ack.Push = result
		}
	}
	h.Success(c, ack)
}
