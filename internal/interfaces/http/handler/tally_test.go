package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warehouse/stocksync/internal/domain/marketplace"
	"github.com/warehouse/stocksync/internal/domain/ordersync"
)

type fakeTallies struct {
	dates []string
	rows  []ordersync.ShipmentTally
}

func (f *fakeTallies) ListByDate(_ context.Context, date string) ([]ordersync.ShipmentTally, error) {
	f.dates = append(f.dates, date)
	return f.rows, nil
}

func tallyRouter(tallies TallyLister) *gin.Engine {
	h := NewTallyHandler(tallies)
	h.now = func() time.Time { return time.Date(2024, 3, 9, 23, 30, 0, 0, time.FixedZone("UTC-2", -2*3600)) }
	r := gin.New()
	r.GET("/api/v1/tallies", h.List)
	return r
}

func TestTallyHandler_ListDefaultsToTodayUTC(t *testing.T) {
	tallies := &fakeTallies{}

	w := serve(tallyRouter(tallies), http.MethodGet, "/api/v1/tallies", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"2024-03-10"}, tallies.dates)
	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, []any{}, data["tallies"])
}

func TestTallyHandler_ListTotals(t *testing.T) {
	tallies := &fakeTallies{rows: []ordersync.ShipmentTally{
		{Date: "2024-03-01", Platform: marketplace.PlatformOzon, ItemID: "a", DecreasedQty: 2},
		{Date: "2024-03-01", Platform: marketplace.PlatformOzon, ItemID: "b", DecreasedQty: 3},
		{Date: "2024-03-01", Platform: marketplace.PlatformYM, ItemID: "a", DecreasedQty: 1},
	}}

	w := serve(tallyRouter(tallies), http.MethodGet, "/api/v1/tallies?date=2024-03-01", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"2024-03-01"}, tallies.dates)
	data := decodeResponse(t, w).Data.(map[string]any)
	assert.Equal(t, map[string]any{"ozon": float64(5), "ym": float64(1)}, data["totals"])
}

func TestTallyHandler_ListBadDate(t *testing.T) {
	tallies := &fakeTallies{}

	w := serve(tallyRouter(tallies), http.MethodGet, "/api/v1/tallies?date=03/01/2024", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, tallies.dates)
}
