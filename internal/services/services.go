package services

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrCustomerRequired  = errors.New("customer name is required for a loan")
	ErrOverpayment       = errors.New("payment exceeds outstanding balance")
	ErrLotMismatch       = errors.New("selected lot does not belong to this variety")
)

// fetchAll runs the page's fetches in parallel; the first error cancels the rest.
func fetchAll(ctx context.Context, fns ...func(ctx context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, fn := range fns {
		g.Go(func() error { return fn(gctx) })
	}
	return g.Wait()
}

func nowOr(now func() time.Time) time.Time {
	if now == nil {
		return time.Now()
	}
	return now()
}
