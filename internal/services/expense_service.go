package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"clothshop/internal/analytics"
	"clothshop/internal/domain"
	"clothshop/internal/shopapi"
)

type ExpenseService struct {
	API *shopapi.API
	Now func() time.Time
}

func NewExpenseService(api *shopapi.API) *ExpenseService {
	return &ExpenseService{API: api}
}

type ExpensesPage struct {
	Expenses   []domain.Expense
	ByCategory []analytics.CategoryTotal
	Total      float64
	Window     analytics.Window
}

func (s *ExpenseService) Page(ctx context.Context, w analytics.Window) (ExpensesPage, error) {
	all, err := s.API.Expenses.List(ctx, nil)
	if err != nil {
		return ExpensesPage{}, err
	}
	list := analytics.Filter(all, analytics.ExpenseDate, w)
	sort.SliceStable(list, func(i, j int) bool { return list[i].ExpenseDate.After(list[j].ExpenseDate.Time) })
	return ExpensesPage{
		Expenses:   list,
		ByCategory: analytics.ExpensesByCategory(list),
		Total:      analytics.TotalExpenses(list),
		Window:     w,
	}, nil
}

func (s *ExpenseService) Create(ctx context.Context, e domain.Expense) (domain.Expense, error) {
	if e.Category == "" || e.Amount <= 0 {
		return domain.Expense{}, fmt.Errorf("%w: expense needs a category and a positive amount", ErrInvalidInput)
	}
	if e.ExpenseDate.IsZero() {
		e.ExpenseDate = domain.Date{Time: nowOr(s.Now)}
	}
	return s.API.Expenses.Create(ctx, e)
}

func (s *ExpenseService) Delete(ctx context.Context, id int64) error {
	return s.API.Expenses.Delete(ctx, id)
}
