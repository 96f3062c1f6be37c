// Package analytics turns fetched records into the totals and rollups the
// dashboard and report pages show. Everything here is a pure function over
// slices already in memory.
package analytics

import (
	"time"

	"clothshop/internal/domain"
)

// Window is an inclusive range of calendar days. A zero bound is open.
type Window struct {
	Start time.Time
	End   time.Time
}

// LastDays is the window ending today that spans n calendar days.
func LastDays(now time.Time, n int) Window {
	if n < 1 {
		n = 1
	}
	end := day(now)
	return Window{Start: end.AddDate(0, 0, -(n - 1)), End: end}
}

// Contains compares calendar days only, so a record stamped late on the end
// day is still inside.
func (w Window) Contains(d domain.Date) bool {
	if d.IsZero() {
		return w.Start.IsZero() && w.End.IsZero()
	}
	k := dayKey(d.Time)
	if !w.Start.IsZero() && k < dayKey(w.Start) {
		return false
	}
	if !w.End.IsZero() && k > dayKey(w.End) {
		return false
	}
	return true
}

// Filter keeps the items whose date falls inside w, preserving order.
func Filter[T any](items []T, date func(T) domain.Date, w Window) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if w.Contains(date(it)) {
			out = append(out, it)
		}
	}
	return out
}

func SaleDate(s domain.Sale) domain.Date             { return s.SaleDate }
func ExpenseDate(e domain.Expense) domain.Date       { return e.ExpenseDate }
func ReturnDate(r domain.SupplierReturn) domain.Date { return r.ReturnDate }
func LoanDate(l domain.Loan) domain.Date             { return l.LoanDate }

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func dayKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
