package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warehouse/stocksync/internal/application/warehouse"
	"github.com/warehouse/stocksync/internal/interfaces/http/dto"
)

type fakeSelector struct {
	skus      []string
	selection *warehouse.Selection
	err       error
	refreshes int
}

func (f *fakeSelector) Select(_ context.Context, skus []string) (*warehouse.Selection, error) {
	f.skus = skus
	return f.selection, f.err
}

func (f *fakeSelector) Refresh(context.Context) (*warehouse.Selection, error) {
	f.refreshes++
	return f.selection, f.err
}

func warehouseRouter(selector WarehouseSelector) *gin.Engine {
	r := gin.New()
	h := NewWarehouseHandler(selector)
	r.GET("/api/v1/warehouses/wb/select", h.SelectWB)
	r.POST("/api/v1/warehouses/wb/refresh", h.RefreshWB)
	return r
}

func TestSplitSKUs(t *testing.T) {
	assert.Nil(t, splitSKUs(nil))
	assert.Nil(t, splitSKUs([]string{"", " , "}))
	assert.Equal(t, []string{"a", "b", "c"}, splitSKUs([]string{"a, b", "c"}))
}

func TestWarehouseHandler_SelectWB(t *testing.T) {
	selector := &fakeSelector{selection: &warehouse.Selection{
		WarehouseID: "507",
		Source:      "heuristic",
		SampleSKUs:  []string{"111", "222"},
	}}

	w := serve(warehouseRouter(selector), http.MethodGet, "/api/v1/warehouses/wb/select?skus=111,222", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"111", "222"}, selector.skus)
	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, "507", data["warehouse_id"])
}

func TestWarehouseHandler_SelectWBErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"no warehouse", warehouse.ErrNoWarehouse, http.StatusUnprocessableEntity, dto.ErrCodeNotConfigured},
		{"stock reads failed", fmt.Errorf("%w: 3 warehouses", warehouse.ErrSampleFailed), http.StatusBadGateway, dto.ErrCodeUpstreamUnavailable},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(warehouseRouter(&fakeSelector{err: tt.err}), http.MethodGet, "/api/v1/warehouses/wb/select", nil)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeResponse(t, w).Error.Code)
		})
	}
}

func TestWarehouseHandler_RefreshWB(t *testing.T) {
	t.Run("returns the new choice", func(t *testing.T) {
		selector := &fakeSelector{selection: &warehouse.Selection{WarehouseID: "910", Source: "heuristic"}}

		w := serve(warehouseRouter(selector), http.MethodPost, "/api/v1/warehouses/wb/refresh", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, selector.refreshes)
		assert.Nil(t, selector.skus)
		data := decodeResponse(t, w).Data.(map[string]any)
		assert.Equal(t, "910", data["warehouse_id"])
	})

	t.Run("upstream failure", func(t *testing.T) {
		selector := &fakeSelector{err: fmt.Errorf("%w: 2 warehouses", warehouse.ErrSampleFailed)}

		w := serve(warehouseRouter(selector), http.MethodPost, "/api/v1/warehouses/wb/refresh", nil)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, dto.ErrCodeUpstreamUnavailable, decodeResponse(t, w).Error.Code)
	})
}
