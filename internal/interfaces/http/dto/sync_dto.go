package dto

// SyncRequest triggers a manual reconciliation run
type SyncRequest struct {
	Platforms []string `json:"platforms" binding:"omitempty,dive,oneof=wb ozon ym"`
	// Full pushes every aliased item instead of the changed ones
	Full bool `json:"full"`
}

// SetQuantityRequest overwrites one ledger cell
type SetQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required,min=0"`
}

// AliasSetupRequest limits alias back-fill to some platforms
type AliasSetupRequest struct {
	Platforms []string `json:"platforms" binding:"omitempty,dive,oneof=wb ozon ym"`
}

// RegisterWebhookRequest subscribes a callback URL on one platform
type RegisterWebhookRequest struct {
	Platform string `json:"platform" binding:"required,oneof=wb ozon ym"`
	URL      string `json:"url" binding:"omitempty,url"`
}

// RegisterWebhookResponse reports the URL that was subscribed
type RegisterWebhookResponse struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

// WebhookAck acknowledges a marketplace notification
type WebhookAck struct {
	Platform string `json:"platform"`
	Type     string `json:"type"`
	Ignored  bool   `json:"ignored,omitempty"`
	OrderID  string `json:"order_id,omitempty"`
	// Duplicate is true when the order had already been applied
	Duplicate bool     `json:"duplicate,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
	Push      any      `json:"push,omitempty"`
}

// SetQuantityResponse is the ledger state after an overwrite
type SetQuantityResponse struct {
	Stock any `json:"stock"`
	Push  any `json:"push,omitempty"`
}

// TallyResponse lists one day's shipment tallies
type TallyResponse struct {
	Date    string `json:"date"`
	Tallies any    `json:"tallies"`
	// Totals sums decreased quantities per platform
	Totals map[string]int `json:"totals"`
}

// ProcessedOrderView is one applied-order marker
type ProcessedOrderView struct {
	Platform    string `json:"platform"`
	OrderID     string `json:"order_id"`
	Lines       any    `json:"lines"`
	ProcessedAt string `json:"processed_at"`
}

// ProcessedOrderList is a page of applied orders, oldest first
type ProcessedOrderList struct {
	Platform string               `json:"platform"`
	Since    string               `json:"since"`
	Orders   []ProcessedOrderView `json:"orders"`
}
