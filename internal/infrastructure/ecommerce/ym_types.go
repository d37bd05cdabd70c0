package ecommerce

import (
	"github.com/warehouse/stocksync/internal/domain/marketplace"
)

// Yandex Market API request/response types

type ymOrdersResponse struct {
	Orders []ymOrder `json:"orders"`
	Pager  struct {
		NextPageToken string `json:"nextPageToken"`
	} `json:"pager"`
}

type ymOrder struct {
	ID    flexString    `json:"id"`
	Items []ymOrderItem `json:"items"`
}

type ymOrderItem struct {
	ShopSKU string `json:"shopSku"`
	Count   *int   `json:"count"`
}

func (o ymOrder) toOrder() marketplace.Order {
	order := marketplace.Order{ExternalOrderID: o.ID.String()}
	for _, item := range o.Items {
		order.Lines = append(order.Lines, marketplace.OrderLine{ExternalSKU: item.ShopSKU, Quantity: lineQuantity(item.Count)})
	}
	return order
}

type ymStocksRequest struct {
	SKUs []ymSKUStock `json:"skus"`
}

type ymSKUStock struct {
	SKU   string        `json:"sku"`
	Items []ymStockItem `json:"items"`
}

type ymStockItem struct {
	Count     int    `json:"count"`
	UpdatedAt string `json:"updatedAt"`
}

type ymWebhookRequest struct {
	URL string `json:"url"`
}

type ymOffersResponse struct {
	Result struct {
		Offers []struct {
			OfferID string `json:"offerId"`
		} `json:"offers"`
		Paging struct {
			NextPageToken string `json:"nextPageToken"`
		} `json:"paging"`
	} `json:"result"`
}
