package warehouse

import (
	"sort"

	"github.com/warehouse/stocksync/internal/domain/marketplace"
)

// Score is the observed stock of one warehouse over the SKU sample
type Score struct {
	Warehouse marketplace.Warehouse `json:"warehouse"`
	// NonZeroCount is how many sampled SKUs show quantity > 0
	NonZeroCount int `json:"non_zero_count"`
	// TotalAmount is the sum of sampled quantities
	TotalAmount int `json:"total_amount"`
	// Error is set when the warehouse could not be read
	Error string `json:"error,omitempty"`
}

// ScoreStock computes a warehouse score from a stock read
func ScoreStock(w marketplace.Warehouse, stock map[string]int) Score {
	s := Score{Warehouse: w}
	for _, qty := range stock {
		if qty > 0 {
			s.NonZeroCount++
			s.TotalAmount += qty
		}
	}
	return s
}

// Rank orders scores by (NonZeroCount, TotalAmount) descending, keeping
// input order among equals. Unread warehouses sink to the bottom.
func Rank(scores []Score) []Score {
	ranked := make([]Score, len(scores))
	copy(ranked, scores)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if (a.Error == "") != (b.Error == "") {
			return a.Error == ""
		}
		if a.NonZeroCount != b.NonZeroCount {
			return a.NonZeroCount > b.NonZeroCount
		}
		return a.TotalAmount > b.TotalAmount
	})
	return ranked
}

// SelectBest picks the top-ranked warehouse. When no sampled warehouse shows
// stock it falls back to the first active one, then to the first listed.
// fallback reports whether the stock-based choice was not possible.
func SelectBest(scores []Score) (best Score, fallback bool, ok bool) {
	if len(scores) == 0 {
		return Score{}, false, false
	}
	ranked := Rank(scores)
	if top := ranked[0]; top.Error == "" && top.NonZeroCount > 0 {
		return top, false, true
	}
	for _, s := range scores {
		if s.Warehouse.IsActive {
			return s, true, true
		}
	}
	return scores[0], true, true
}

// activeFirst returns warehouses with active ones first, otherwise in listing order
func activeFirst(warehouses []marketplace.Warehouse) []marketplace.Warehouse {
	ordered := make([]marketplace.Warehouse, 0, len(warehouses))
	for _, w := range warehouses {
		if w.IsActive {
			ordered = append(ordered, w)
		}
	}
	for _, w := range warehouses {
		if !w.IsActive {
			ordered = append(ordered, w)
		}
	}
	return ordered
}
