package ordersync

import (
	"context"
	"time"

	"github.com/warehouse/stocksync/internal/domain/marketplace"
)

const tallyDateLayout = "2006-01-02"

// ShipmentTally is the number of units of one item taken out for one
// platform's orders on one UTC day.
type ShipmentTally struct {
	Date         string               `json:"date"`
	Platform     marketplace.Platform `json:"platform"`
	ItemID       string               `json:"item_id"`
	DecreasedQty int                  `json:"decreased_qty"`
}

// TallyDate formats t as the tally day key
func TallyDate(t time.Time) string {
	return t.UTC().Format(tallyDateLayout)
}

// ParseTallyDate validates a YYYY-MM-DD day key
func ParseTallyDate(s string) (string, error) {
	t, err := time.Parse(tallyDateLayout, s)
	if err != nil {
		return "", err
	}
	return t.Format(tallyDateLayout), nil
}

// TallyRepository accumulates shipment tallies
type TallyRepository interface {
	// Add increments the tally row for (date, platform, item) by qty, creating it if needed
	Add(ctx context.Context, date string, platform marketplace.Platform, itemID string, qty int) error
	ListByDate(ctx context.Context, date string) ([]ShipmentTally, error)
}
