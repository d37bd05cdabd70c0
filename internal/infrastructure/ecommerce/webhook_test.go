package ecommerce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warehouse/stocksync/internal/domain/marketplace"
)

func TestParseWebhook_Ozon(t *testing.T) {
	event, err := ParseWebhook(marketplace.PlatformOzon, []byte(`{"message_type":"TYPE_NEW_POSTING","posting_number":"24219509-0020-1","products":[{"sku":147451959,"offer_id":"X","quantity":2}],"warehouse_id":1}`))
	require.NoError(t, err)
	require.True(t, event.Relevant())
	assert.Equal(t, OzonNewPosting, event.Type)
	assert.Equal(t, marketplace.Order{
		ExternalOrderID: "24219509-0020-1",
		Lines:           []marketplace.OrderLine{{ExternalSKU: "X", Quantity: 2}},
	}, *event.Order)

	event, err = ParseWebhook(marketplace.PlatformOzon, []byte(`{"message_type":"TYPE_PING","time":"2024-01-01T00:00:00Z"}`))
	require.NoError(t, err)
	assert.False(t, event.Relevant())
	assert.Equal(t, "TYPE_PING", event.Type)

	event, err = ParseWebhook(marketplace.PlatformOzon, []byte(`{"message_type":"TYPE_NEW_POSTING","posting_number":"P-2","products":[{"sku":1,"offer_id":"X"},{"sku":2,"offer_id":"Y","quantity":0}]}`))
	require.NoError(t, err)
	assert.Equal(t, []marketplace.OrderLine{{ExternalSKU: "X", Quantity: 1}, {ExternalSKU: "Y", Quantity: 1}}, event.Order.Lines)

	_, err = ParseWebhook(marketplace.PlatformOzon, []byte(`{"message_type":"TYPE_NEW_POSTING"}`))
	assert.ErrorIs(t, err, ErrInvalidWebhookPayload)

	_, err = ParseWebhook(marketplace.PlatformOzon, []byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidWebhookPayload)
}

func TestParseWebhook_YM(t *testing.T) {
	event, err := ParseWebhook(marketplace.PlatformYM, []byte(`{"notificationType":"ORDER_CREATED","orderId":123,"campaignId":77,"items":[{"shopSku":"X","count":3}]}`))
	require.NoError(t, err)
	require.True(t, event.Relevant())
	assert.Equal(t, "123", event.Order.ExternalOrderID)
	assert.Equal(t, []marketplace.OrderLine{{ExternalSKU: "X", Quantity: 3}}, event.Order.Lines)

	event, err = ParseWebhook(marketplace.PlatformYM, []byte(`{"order":{"id":456,"items":[{"shopSku":"Y","count":1}]}}`))
	require.NoError(t, err)
	require.True(t, event.Relevant())
	assert.Equal(t, YMOrderCreated, event.Type)
	assert.Equal(t, "456", event.Order.ExternalOrderID)

	event, err = ParseWebhook(marketplace.PlatformYM, []byte(`{"notificationType":"ORDER_CREATED","orderId":789,"items":[{"shopSku":"Z"}]}`))
	require.NoError(t, err)
	assert.Equal(t, []marketplace.OrderLine{{ExternalSKU: "Z", Quantity: 1}}, event.Order.Lines)

	event, err = ParseWebhook(marketplace.PlatformYM, []byte(`{"notificationType":"PING"}`))
	require.NoError(t, err)
	assert.False(t, event.Relevant())

	_, err = ParseWebhook(marketplace.PlatformYM, []byte(`{"notificationType":"ORDER_CREATED","items":[]}`))
	assert.ErrorIs(t, err, ErrInvalidWebhookPayload)
}

func TestParseWebhook_Unsupported(t *testing.T) {
	_, err := ParseWebhook(marketplace.PlatformWB, []byte(`{}`))
	assert.ErrorIs(t, err, marketplace.ErrUnsupported)

	_, err = ParseWebhook("ebay", []byte(`{}`))
	assert.ErrorIs(t, err, marketplace.ErrUnknownPlatform)
}
