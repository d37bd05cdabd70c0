package handler

import (
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/warehouse/stocksync/internal/domain/marketplace"
	"github.com/warehouse/stocksync/internal/infrastructure/logger"
	"github.com/warehouse/stocksync/internal/interfaces/http/dto"
	"github.com/warehouse/stocksync/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// AdapterLookup resolves the adapter of a platform
type AdapterLookup interface {
	MustGet(p marketplace.Platform) (marketplace.Adapter, error)
}

// WebhookRegistrationHandler subscribes this service to marketplace notifications
type WebhookRegistrationHandler struct {
	BaseHandler
	adapters  AdapterLookup
	publicURL string
	secret    string
}

// NewWebhookRegistrationHandler creates a new handler. publicURL is the
// externally reachable base used when a request names no callback URL.
func NewWebhookRegistrationHandler(adapters AdapterLookup, publicURL, secret string) *WebhookRegistrationHandler {
	return &WebhookRegistrationHandler{
		adapters:  adapters,
		publicURL: strings.TrimRight(publicURL, "/"),
		secret:    secret,
	}
}

// Register godoc
// @Summary      Register a webhook subscription
// @Description  Subscribes the callback URL on Ozon or YM. WB has no webhook subscription.
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        request body dto.RegisterWebhookRequest true "Platform and callback URL"
// @Success      200 {object} dto.Response
// @Failure      501 {object} dto.Response
// @Security     BearerAuth
// @Router       /webhooks/register [post]
func (h *WebhookRegistrationHandler) Register(c *gin.Context) {
	var req dto.RegisterWebhookRequest
	if !h.BindJSON(c, &req) {
		return
	}
	platform, err := marketplace.ParsePlatform(req.Platform)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	callback := req.URL
	if callback == "" {
		if h.publicURL == "" {
			h.BadRequest(c, "url is required when app.public_url is not configured")
			return
		}
		callback = h.callbackURL(platform)
	}

	adapter, err := h.adapters.MustGet(platform)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	if err := adapter.RegisterWebhook(c.Request.Context(), callback); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	logger.FromContext(c.Request.Context()).Info("Webhook registered", zap.String("platform", string(platform)))
	h.Success(c, dto.RegisterWebhookResponse{Platform: string(platform), URL: redactSecret(callback)})
}

func (h *WebhookRegistrationHandler) callbackURL(p marketplace.Platform) string {
	u := h.publicURL + "/webhooks/" + string(p)
	if h.secret != "" {
		u += "?" + middleware.WebhookSecretQuery + "=" + url.QueryEscape(h.secret)
	}
	return u
}

// redactSecret hides the webhook token in URLs echoed back to operators
func redactSecret(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Get(middleware.WebhookSecretQuery) == "" {
		return raw
	}
	q.Set(middleware.WebhookSecretQuery, "redacted")
	u.RawQuery = q.Encode()
	return u.String()
}
