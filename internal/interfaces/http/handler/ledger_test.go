package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	appinventory "github.com/warehouse/stocksync/internal/application/inventory"
	"github.com/warehouse/stocksync/internal/application/stockpush"
	"github.com/warehouse/stocksync/internal/domain/inventory"
	"github.com/warehouse/stocksync/internal/domain/marketplace"
	"github.com/warehouse/stocksync/internal/interfaces/http/dto"
)

func ledgerRouter(ledger StockLedger, pusher StockPusher) *gin.Engine {
	h := NewLedgerHandler(ledger, knownItems{"item-a": true}, pusher)
	r := gin.New()
	r.GET("/api/v1/ledger/:item", h.Get)
	r.PUT("/api/v1/ledger/:item/:cell", h.SetQuantity)
	return r
}

func TestLedgerHandler_Get(t *testing.T) {
	ledger := new(MockStockLedger)
	ledger.On("View", mock.Anything, "item-a").Return(&appinventory.StockView{
		ItemID: "item-a",
		Total:  7,
		Cells:  []appinventory.CellQuantity{{Cell: "A1", Quantity: 3}, {Cell: "B2", Quantity: 4}},
	}, nil)
	r := ledgerRouter(ledger, nil)

	w := serve(r, http.MethodGet, "/api/v1/ledger/item-a", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, float64(7), data["total"])
	assert.Len(t, data["cells"], 2)

	w = serve(r, http.MethodGet, "/api/v1/ledger/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, decodeResponse(t, w).Error.Code)
}

func TestLedgerHandler_SetQuantityPushesItem(t *testing.T) {
	ledger := new(MockStockLedger)
	pusher := new(MockStockPusher)
	ledger.On("SetQuantity", mock.Anything, "item-a", "A1", 5).Return(nil)
	ledger.On("View", mock.Anything, "item-a").Return(&appinventory.StockView{ItemID: "item-a", Total: 5}, nil)
	pusher.On("PushChanged", mock.Anything, []string{"item-a"}, []marketplace.Platform(nil)).
		Return(&stockpush.Result{Summary: "wb: sent 1"}, nil)

	w := serve(ledgerRouter(ledger, pusher), http.MethodPut, "/api/v1/ledger/item-a/A1", []byte(`{"quantity":5}`))

	require.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, float64(5), data["stock"].(map[string]any)["total"])
	assert.Equal(t, "wb: sent 1", data["push"].(map[string]any)["summary"])
	ledger.AssertExpectations(t)
	pusher.AssertExpectations(t)
}

func TestLedgerHandler_SetQuantityZeroIsAllowed(t *testing.T) {
	ledger := new(MockStockLedger)
	ledger.On("SetQuantity", mock.Anything, "item-a", "A1", 0).Return(nil)
	ledger.On("View", mock.Anything, "item-a").Return(&appinventory.StockView{ItemID: "item-a"}, nil)

	w := serve(ledgerRouter(ledger, nil), http.MethodPut, "/api/v1/ledger/item-a/A1", []byte(`{"quantity":0}`))

	assert.Equal(t, http.StatusOK, w.Code)
	ledger.AssertExpectations(t)
}

func TestLedgerHandler_SetQuantityRejections(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"negative quantity", "/api/v1/ledger/item-a/A1", `{"quantity":-1}`, http.StatusBadRequest, dto.ErrCodeValidation},
		{"missing quantity", "/api/v1/ledger/item-a/A1", `{}`, http.StatusBadRequest, dto.ErrCodeValidation},
		{"unknown item", "/api/v1/ledger/missing/A1", `{"quantity":1}`, http.StatusNotFound, dto.ErrCodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger := new(MockStockLedger)
			w := serve(ledgerRouter(ledger, nil), http.MethodPut, tt.path, []byte(tt.body))

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeResponse(t, w).Error.Code)
			ledger.AssertNotCalled(t, "SetQuantity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestLedgerHandler_SetQuantityInvalidCell(t *testing.T) {
	ledger := new(MockStockLedger)
	ledger.On("SetQuantity", mock.Anything, "item-a", "A1", 2).Return(inventory.ErrInvalidCell)

	w := serve(ledgerRouter(ledger, nil), http.MethodPut, "/api/v1/ledger/item-a/A1", []byte(`{"quantity":2}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	ledger.AssertNotCalled(t, "View", mock.Anything, mock.Anything)
}
