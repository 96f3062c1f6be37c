package analytics

import (
	"sort"

	"clothshop/internal/domain"
)

// StockLevel is what is left of one variety across its supplier lots.
type StockLevel struct {
	VarietyID int64
	Name      string
	Unit      domain.Unit
	Remaining float64
	Lots      int
}

// StockSummary lists every variety, including those with nothing left.
func StockSummary(varieties []domain.Variety, lots []domain.SupplierInventory) []StockLevel {
	idx := make(map[int64]int, len(varieties))
	out := make([]StockLevel, 0, len(varieties))
	for _, v := range varieties {
		idx[v.ID] = len(out)
		out = append(out, StockLevel{VarietyID: v.ID, Name: v.Name, Unit: v.Unit})
	}
	for _, l := range lots {
		i, ok := idx[l.VarietyID]
		if !ok {
			idx[l.VarietyID] = len(out)
			i = len(out)
			out = append(out, StockLevel{VarietyID: l.VarietyID, Name: l.VarietyName})
		}
		if l.RemainingQuantity > 0 {
			out[i].Remaining += l.RemainingQuantity
			out[i].Lots++
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LowStock keeps levels at or below threshold.
func LowStock(levels []StockLevel, threshold float64) []StockLevel {
	var out []StockLevel
	for _, l := range levels {
		if l.Remaining <= threshold {
			out = append(out, l)
		}
	}
	return out
}

// AvailableLots are the lots of a variety that still have stock, oldest purchase first.
func AvailableLots(lots []domain.SupplierInventory, varietyID int64) []domain.SupplierInventory {
	var out []domain.SupplierInventory
	for _, l := range lots {
		if l.VarietyID == varietyID && l.RemainingQuantity > 0 {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PurchaseDate.Before(out[j].PurchaseDate.Time) })
	return out
}

func Available(lots []domain.SupplierInventory, varietyID int64) float64 {
	var sum float64
	for _, l := range AvailableLots(lots, varietyID) {
		sum += l.RemainingQuantity
	}
	return sum
}
