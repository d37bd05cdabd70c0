package ecommerce

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/warehouse/stocksync/internal/domain/marketplace"
)

// ErrInvalidWebhookPayload means an incoming notification could not be parsed
var ErrInvalidWebhookPayload = errors.New("ecommerce: invalid webhook payload")

// Notification types that carry a new order
const (
	OzonNewPosting = "TYPE_NEW_POSTING"
	YMOrderCreated = "ORDER_CREATED"
)

// WebhookEvent is a parsed marketplace notification. Order is nil for
// notification types that do not announce a new order.
type WebhookEvent struct {
	Platform marketplace.Platform
	Type     string
	Order    *marketplace.Order
}

// Relevant reports whether the event carries an order to ingest
func (e WebhookEvent) Relevant() bool {
	return e.Order != nil
}

// ParseWebhook normalizes a platform notification body
func ParseWebhook(platform marketplace.Platform, body []byte) (WebhookEvent, error) {
	switch platform {
	case marketplace.PlatformOzon:
		return parseOzonWebhook(body)
	case marketplace.PlatformYM:
		return parseYMWebhook(body)
	case marketplace.PlatformWB:
		return WebhookEvent{}, fmt.Errorf("%w: wildberries has no webhook subscription", marketplace.ErrUnsupported)
	default:
		return WebhookEvent{}, marketplace.ErrUnknownPlatform
	}
}

type ozonWebhookPayload struct {
	MessageType   string               `json:"message_type"`
	PostingNumber string               `json:"posting_number"`
	Products      []ozonPostingProduct `json:"products"`
}

func parseOzonWebhook(body []byte) (WebhookEvent, error) {
	var payload ozonWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return WebhookEvent{}, fmt.Errorf("%w: %v", ErrInvalidWebhookPayload, err)
	}
	event := WebhookEvent{Platform: marketplace.PlatformOzon, Type: payload.MessageType}
	if payload.MessageType != OzonNewPosting {
		return event, nil
	}
	if payload.PostingNumber == "" {
		return WebhookEvent{}, fmt.Errorf("%w: posting_number is required", ErrInvalidWebhookPayload)
	}
	order := postingToOrder(ozonPosting{PostingNumber: payload.PostingNumber, Products: payload.Products})
	event.Order = &order
	return event, nil
}

type ymWebhookPayload struct {
	NotificationType string        `json:"notificationType"`
	OrderID          flexString    `json:"orderId"`
	CampaignID       flexString    `json:"campaignId"`
	Items            []ymOrderItem `json:"items"`
	Order            *ymOrder      `json:"order"`
}

func parseYMWebhook(body []byte) (WebhookEvent, error) {
	var payload ymWebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return WebhookEvent{}, fmt.Errorf("%w: %v", ErrInvalidWebhookPayload, err)
	}
	event := WebhookEvent{Platform: marketplace.PlatformYM, Type: payload.NotificationType}

	var order marketplace.Order
	switch {
	case payload.NotificationType == YMOrderCreated:
		order = ymOrder{ID: payload.OrderID, Items: payload.Items}.toOrder()
	case payload.NotificationType == "" && payload.Order != nil:
		event.Type = YMOrderCreated
		order = payload.Order.toOrder()
	default:
		return event, nil
	}
	if order.ExternalOrderID == "" {
		return WebhookEvent{}, fmt.Errorf("%w: order id is required", ErrInvalidWebhookPayload)
	}
	event.Order = &order
	return event, nil
}
