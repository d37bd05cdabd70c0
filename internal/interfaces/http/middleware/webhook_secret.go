package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/warehouse/stocksync/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// Webhook secret transport
const (
	WebhookSecretHeader = "X-Webhook-Secret"
	WebhookSecretQuery  = "token"
)

// WebhookSecret checks the shared secret marketplaces echo back on callbacks.
// The secret is read from the X-Webhook-Secret header or the token query
// parameter of the registered URL. An empty secret disables the check.
func WebhookSecret(secret string, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	if secret == "" {
		log.Warn("Webhook secret not configured, webhook receivers are unauthenticated")
	}
	expected := []byte(secret)

	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}
		got := c.GetHeader(WebhookSecretHeader)
		if got == "" {
			got = c.Query(WebhookSecretQuery)
		}
		if subtle.ConstantTimeCompare([]byte(got), expected) != 1 {
			log.Warn("Webhook rejected: bad secret",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", GetRequestID(c)),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized, "Invalid webhook secret", GetRequestID(c)))
			return
		}
		c.Next()
	}
}
