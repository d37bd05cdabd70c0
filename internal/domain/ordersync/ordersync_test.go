package ordersync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warehouse/stocksync/internal/domain/marketplace"
)

func TestNewProcessedOrder(t *testing.T) {
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.FixedZone("MSK", 3*3600))
	order := marketplace.Order{ExternalOrderID: "A1", Lines: []marketplace.OrderLine{{ExternalSKU: "X", Quantity: 3}}}

	po, err := NewProcessedOrder(marketplace.PlatformOzon, order, at)
	require.NoError(t, err)
	assert.Equal(t, "A1", po.OrderID)
	assert.Equal(t, time.UTC, po.ProcessedAt.Location())

	_, err = NewProcessedOrder("nope", order, at)
	assert.ErrorIs(t, err, marketplace.ErrUnknownPlatform)

	_, err = NewProcessedOrder(marketplace.PlatformWB, marketplace.Order{}, at)
	assert.ErrorIs(t, err, ErrInvalidOrderID)
}

func TestResolveCursor(t *testing.T) {
	now := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	stored := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, stored, ResolveCursor(stored, true, now, time.Hour))
	assert.Equal(t, now.Add(-time.Hour), ResolveCursor(time.Time{}, false, now, time.Hour))
	assert.Equal(t, now.Add(-24*time.Hour), ResolveCursor(time.Time{}, false, now, 0))
}

func TestCursorKey(t *testing.T) {
	assert.Equal(t, "last_poll_wb", CursorKey(marketplace.PlatformWB))
	assert.Equal(t, "last_poll_ym", CursorKey(marketplace.PlatformYM))
}

func TestTallyDate(t *testing.T) {
	at := time.Date(2024, 5, 1, 23, 30, 0, 0, time.FixedZone("X", -2*3600))
	assert.Equal(t, "2024-05-02", TallyDate(at))

	d, err := ParseTallyDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", d)

	_, err = ParseTallyDate("29.02.2024")
	assert.Error(t, err)
}

func TestRunSummaryRender(t *testing.T) {
	s := NewRunSummary("run-1", time.Now())
	wb := s.Report(marketplace.PlatformWB)
	wb.Processed = 2
	wb.Duplicates = 1
	wb.Sent = 4
	ym := s.Report(marketplace.PlatformYM)
	ym.AddError("YM returned %d", 500)
	oz := s.Report(marketplace.PlatformOzon)
	oz.Skipped = "locked"

	s.Finish(time.Now())
	assert.Equal(t,
		"OZON: processed 0, duplicates 0, failed 0, sent 0 (skipped: locked); "+
			"WB: processed 2, duplicates 1, failed 0, sent 4 (ok); "+
			"YM: processed 0, duplicates 0, failed 0, sent 0 (1 error(s))",
		s.Summary)
	assert.Same(t, wb, s.Report(marketplace.PlatformWB))
}

func TestPlatformRunReport(t *testing.T) {
	r := NewPlatformRunReport(marketplace.PlatformOzon)
	assert.Empty(t, r.Errors)
	assert.NotNil(t, r.Warnings)
	assert.False(t, r.HasErrors())

	r.MarkChanged("b")
	r.MarkChanged("a")
	r.MarkChanged("b")
	assert.Equal(t, []string{"b", "a"}, r.ChangedItems)

	r.AddWarning("clamped %s", "a")
	r.AddError("push failed: %v", "timeout")
	assert.Equal(t, []string{"clamped a"}, r.Warnings)
	assert.True(t, r.HasErrors())
}
