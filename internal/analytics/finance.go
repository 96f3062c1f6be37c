package analytics

import (
	"sort"

	"clothshop/internal/domain"
)

type CategoryTotal struct {
	Category string
	Amount   float64
}

// ExpensesByCategory is sorted by amount, largest first.
func ExpensesByCategory(expenses []domain.Expense) []CategoryTotal {
	idx := map[string]int{}
	var out []CategoryTotal
	for _, e := range expenses {
		cat := e.Category
		if cat == "" {
			cat = "other"
		}
		i, ok := idx[cat]
		if !ok {
			i = len(out)
			idx[cat] = i
			out = append(out, CategoryTotal{Category: cat})
		}
		out[i].Amount += e.Amount
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount > out[j].Amount })
	return out
}

func TotalExpenses(expenses []domain.Expense) float64 {
	var sum float64
	for _, e := range expenses {
		sum += e.Amount
	}
	return sum
}

func TotalReturns(returns []domain.SupplierReturn) float64 {
	var sum float64
	for _, r := range returns {
		sum += r.Amount
	}
	return sum
}

// NetProfit subtracts expenses from gross profit. Supplier returns are
// reported on their own line and never netted in.
func NetProfit(grossProfit, expenses float64) float64 {
	return grossProfit - expenses
}

// Summary is the KPI strip of the analytics dashboard.
type Summary struct {
	Window      Window
	Sales       Totals
	Expenses    float64
	Returns     float64
	NetProfit   float64
	Outstanding float64
}

// Summarize filters every list to w and totals it.
func Summarize(w Window, sales []domain.Sale, expenses []domain.Expense, returns []domain.SupplierReturn, loans []domain.Loan) Summary {
	s := Summary{Window: w}
	s.Sales = SalesTotals(Filter(sales, SaleDate, w))
	s.Expenses = TotalExpenses(Filter(expenses, ExpenseDate, w))
	s.Returns = TotalReturns(Filter(returns, ReturnDate, w))
	s.NetProfit = NetProfit(s.Sales.Profit, s.Expenses)
	// outstanding credit is a balance, not a flow, so it ignores the window
	for _, l := range loans {
		s.Outstanding += l.Outstanding()
	}
	return s
}

// SupplierBalance is one row of the supplier ledger.
type SupplierBalance struct {
	SupplierID int64
	Name       string
	Purchased  float64
	Returned   float64
	Lots       int
}

func (b SupplierBalance) Net() float64 { return b.Purchased - b.Returned }

// SupplierLedger totals purchases and returns per supplier, ordered by name.
func SupplierLedger(suppliers []domain.Supplier, lots []domain.SupplierInventory, returns []domain.SupplierReturn) []SupplierBalance {
	idx := map[int64]int{}
	out := make([]SupplierBalance, 0, len(suppliers))
	row := func(id int64, name string) *SupplierBalance {
		i, ok := idx[id]
		if !ok {
			i = len(out)
			idx[id] = i
			out = append(out, SupplierBalance{SupplierID: id, Name: name})
		}
		if out[i].Name == "" {
			out[i].Name = name
		}
		return &out[i]
	}
	for _, s := range suppliers {
		row(s.ID, s.Name)
	}
	for _, l := range lots {
		r := row(l.SupplierID, l.SupplierName)
		r.Purchased += l.TotalCost()
		r.Lots++
	}
	for _, ret := range returns {
		row(ret.SupplierID, ret.SupplierName).Returned += ret.Amount
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
