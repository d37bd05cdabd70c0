package ecommerce

// Ozon API request/response types

type ozonPostingListRequest struct {
	Dir    string            `json:"dir"`
	Filter ozonPostingFilter `json:"filter"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

type ozonPostingFilter struct {
	Since  string `json:"since"`
	To     string `json:"to"`
	Status string `json:"status"`
}

type ozonPostingListResponse struct {
	Result struct {
		Postings []ozonPosting `json:"postings"`
		HasNext  bool          `json:"has_next"`
	} `json:"result"`
}

type ozonPosting struct {
	PostingNumber string               `json:"posting_number"`
	Products      []ozonPostingProduct `json:"products"`
}

type ozonPostingProduct struct {
	SKU      flexString `json:"sku"`
	OfferID  string     `json:"offer_id"`
	Quantity *int       `json:"quantity"`
}

// externalSKU is the offer id, the alias stored for Ozon, falling back to the numeric sku
func (p ozonPostingProduct) externalSKU() string {
	if p.OfferID != "" {
		return p.OfferID
	}
	return p.SKU.String()
}

type ozonStocksRequest struct {
	Stocks []ozonStock `json:"stocks"`
}

type ozonStock struct {
	OfferID     string `json:"offer_id"`
	ProductID   int64  `json:"product_id"`
	Stock       int    `json:"stock"`
	WarehouseID int64  `json:"warehouse_id"`
}

type ozonStocksResponse struct {
	Result []struct {
		OfferID   string `json:"offer_id"`
		ProductID int64  `json:"product_id"`
		Updated   bool   `json:"updated"`
		Errors    []struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"errors"`
	} `json:"result"`
}

type ozonProductListRequest struct {
	Filter struct{} `json:"filter"`
	LastID string   `json:"last_id"`
	Limit  int      `json:"limit"`
}

type ozonProductListResponse struct {
	Result struct {
		Items []struct {
			OfferID   string `json:"offer_id"`
			ProductID int64  `json:"product_id"`
		} `json:"items"`
		LastID string `json:"last_id"`
		Total  int    `json:"total"`
	} `json:"result"`
}

type ozonWebhookSubscribeRequest struct {
	URL    string   `json:"url"`
	Events []string `json:"events"`
}
