package services

import (
	"context"
	"time"

	"clothshop/internal/analytics"
	"clothshop/internal/domain"
	"clothshop/internal/shopapi"
)

type DashboardService struct {
	API *shopapi.API
	Now func() time.Time
}

func NewDashboardService(api *shopapi.API) *DashboardService {
	return &DashboardService{API: api}
}

// Dashboard is the landing page for both roles.
type Dashboard struct {
	Today       analytics.Totals
	Week        analytics.Totals
	TopProducts []analytics.Group
	LowStock    []analytics.StockLevel
	OpenLoans   int
	Outstanding float64
}

func (s *DashboardService) Dashboard(ctx context.Context) (Dashboard, error) {
	var (
		sales     []domain.Sale
		varieties []domain.Variety
		lots      []domain.SupplierInventory
		loans     []domain.Loan
	)
	err := fetchAll(ctx,
		func(ctx context.Context) (err error) { sales, err = s.API.Sales.List(ctx, nil); return },
		func(ctx context.Context) (err error) { varieties, err = s.API.Varieties.List(ctx, nil); return },
		func(ctx context.Context) (err error) { lots, err = s.API.Inventory.List(ctx, nil); return },
		func(ctx context.Context) (err error) { loans, err = s.API.Loans.List(ctx, nil); return },
	)
	if err != nil {
		return Dashboard{}, err
	}

	now := nowOr(s.Now)
	week := analytics.Filter(sales, analytics.SaleDate, analytics.LastDays(now, 7))
	d := Dashboard{
		Today:       analytics.SalesTotals(analytics.Filter(week, analytics.SaleDate, analytics.LastDays(now, 1))),
		Week:        analytics.SalesTotals(week),
		TopProducts: analytics.Top(analytics.ByProduct(week), 5),
		LowStock:    analytics.LowStock(analytics.StockSummary(varieties, lots), LowStockThreshold),
	}
	for _, l := range loans {
		if l.Outstanding() > 0 {
			d.OpenLoans++
			d.Outstanding += l.Outstanding()
		}
	}
	return d, nil
}

// Report is the owner's analytics page for one window.
type Report struct {
	Summary       analytics.Summary
	ByDay         []analytics.Group
	ByProduct     []analytics.Group
	BySalesperson []analytics.Group
	BySupplier    []analytics.Group
	Expenses      []analytics.CategoryTotal
}

func (s *DashboardService) Report(ctx context.Context, w analytics.Window) (Report, error) {
	var (
		sales    []domain.Sale
		lots     []domain.SupplierInventory
		expenses []domain.Expense
		returns  []domain.SupplierReturn
		loans    []domain.Loan
	)
	err := fetchAll(ctx,
		func(ctx context.Context) (err error) { sales, err = s.API.Sales.List(ctx, nil); return },
		func(ctx context.Context) (err error) { lots, err = s.API.Inventory.List(ctx, nil); return },
		func(ctx context.Context) (err error) { expenses, err = s.API.Expenses.List(ctx, nil); return },
		func(ctx context.Context) (err error) { returns, err = s.API.Returns.List(ctx, nil); return },
		func(ctx context.Context) (err error) { loans, err = s.API.Loans.List(ctx, nil); return },
	)
	if err != nil {
		return Report{}, err
	}

	inWindow := analytics.Filter(sales, analytics.SaleDate, w)
	return Report{
		Summary:       analytics.Summarize(w, sales, expenses, returns, loans),
		ByDay:         analytics.ByDay(inWindow),
		ByProduct:     analytics.ByProduct(inWindow),
		BySalesperson: analytics.BySalesperson(inWindow),
		BySupplier:    analytics.BySupplier(inWindow, lots),
		Expenses:      analytics.ExpensesByCategory(analytics.Filter(expenses, analytics.ExpenseDate, w)),
	}, nil
}
