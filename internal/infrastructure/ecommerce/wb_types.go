package ecommerce

// WB API request/response types

// wbOrdersResponse is the GET /api/v5/orders page
type wbOrdersResponse struct {
	Next   int64     `json:"next"`
	Orders []wbOrder `json:"orders"`
}

type wbOrder struct {
	OrderID  flexString       `json:"orderId"`
	Products []wbOrderProduct `json:"products"`
}

type wbOrderProduct struct {
	SKU      flexString `json:"sku"`
	Quantity *int       `json:"quantity"`
}

// wbStocksRequest is the PUT /api/v3/stocks/{warehouseId} body
type wbStocksRequest struct {
	Stocks []wbStock `json:"stocks"`
}

type wbStock struct {
	SKU    string `json:"sku"`
	Amount int    `json:"amount"`
}

// wbStocksQuery is the POST /api/v3/stocks/{warehouseId} body
type wbStocksQuery struct {
	SKUs []string `json:"skus"`
}

type wbStocksResponse struct {
	Stocks []wbStock `json:"stocks"`
}

type wbWarehouse struct {
	ID       flexString `json:"id"`
	Name     string     `json:"name"`
	OfficeID int64      `json:"officeId"`
	IsActive *bool      `json:"isActive"`
}

// wbCardsRequest is the POST /content/v2/get/cards/list body
type wbCardsRequest struct {
	Settings wbCardsSettings `json:"settings"`
}

type wbCardsSettings struct {
	Filter wbCardsFilter `json:"filter"`
	Cursor wbCardsCursor `json:"cursor"`
}

type wbCardsFilter struct {
	WithPhoto int `json:"withPhoto"`
}

type wbCardsCursor struct {
	Limit     int    `json:"limit"`
	UpdatedAt string `json:"updatedAt,omitempty"`
	NmID      int64  `json:"nmID,omitempty"`
}

type wbCardsResponse struct {
	Cards []wbCard `json:"cards"`
	Cursor struct {
		UpdatedAt string `json:"updatedAt"`
		NmID      int64  `json:"nmID"`
		Total     int    `json:"total"`
	} `json:"cursor"`
}

type wbCard struct {
	NmID       int64  `json:"nmID"`
	VendorCode string `json:"vendorCode"`
	Sizes      []struct {
		SKUs []string `json:"skus"`
	} `json:"sizes"`
}

// firstBarcode returns the card's first barcode across its sizes
func (c wbCard) firstBarcode() string {
	for _, size := range c.Sizes {
		for _, sku := range size.SKUs {
			if sku != "" {
				return sku
			}
		}
	}
	return ""
}
