package analytics

import (
	"sort"

	"clothshop/internal/domain"
)

type Totals struct {
	Revenue  float64
	Profit   float64
	Quantity float64
	Count    int
}

func (t *Totals) add(s domain.Sale) {
	t.Revenue += s.Revenue()
	t.Profit += s.Profit()
	t.Quantity += s.Quantity
	t.Count++
}

// Margin is profit as a percentage of revenue.
func (t Totals) Margin() float64 {
	if t.Revenue == 0 {
		return 0
	}
	return t.Profit / t.Revenue * 100
}

func SalesTotals(sales []domain.Sale) Totals {
	var t Totals
	for _, s := range sales {
		t.add(s)
	}
	return t
}

// Group is one row of a rollup.
type Group struct {
	Key string
	Totals
}

// GroupBy sums sales per key. Rows come back in first-seen order; callers
// pick the ordering they display.
func GroupBy(sales []domain.Sale, key func(domain.Sale) string) []Group {
	idx := map[string]int{}
	var out []Group
	for _, s := range sales {
		k := key(s)
		i, ok := idx[k]
		if !ok {
			i = len(out)
			idx[k] = i
			out = append(out, Group{Key: k})
		}
		out[i].add(s)
	}
	return out
}

// ByDay is chronological.
func ByDay(sales []domain.Sale) []Group {
	out := GroupBy(sales, func(s domain.Sale) string { return s.SaleDate.String() })
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// ByProduct ranks varieties by revenue.
func ByProduct(sales []domain.Sale) []Group {
	return byRevenue(GroupBy(sales, func(s domain.Sale) string {
		if s.VarietyName != "" {
			return s.VarietyName
		}
		return "Unknown variety"
	}))
}

func BySalesperson(sales []domain.Sale) []Group {
	return byRevenue(GroupBy(sales, func(s domain.Sale) string {
		if s.Salesperson != "" {
			return s.Salesperson
		}
		return "Unassigned"
	}))
}

// OldStockKey labels sales that did not come from a tracked supplier lot.
const OldStockKey = "Old stock"

// BySupplier attributes new-stock sales to the supplier of their lot.
func BySupplier(sales []domain.Sale, lots []domain.SupplierInventory) []Group {
	supplierOf := make(map[int64]string, len(lots))
	for _, l := range lots {
		supplierOf[l.ID] = l.SupplierName
	}
	return byRevenue(GroupBy(sales, func(s domain.Sale) string {
		if s.StockType != domain.StockNew || s.InventoryID == 0 {
			return OldStockKey
		}
		if name := supplierOf[s.InventoryID]; name != "" {
			return name
		}
		return "Unknown supplier"
	}))
}

// Top keeps the first n rows.
func Top(groups []Group, n int) []Group {
	if n < len(groups) {
		return groups[:n]
	}
	return groups
}

func byRevenue(groups []Group) []Group {
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Revenue != groups[j].Revenue {
			return groups[i].Revenue > groups[j].Revenue
		}
		return groups[i].Key < groups[j].Key
	})
	return groups
}
