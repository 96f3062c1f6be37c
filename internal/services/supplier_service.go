package services

import (
	"context"
	"fmt"
	"time"

	"clothshop/internal/analytics"
	"clothshop/internal/domain"
	"clothshop/internal/shopapi"
)

type SupplierService struct {
	API *shopapi.API
	Now func() time.Time
}

func NewSupplierService(api *shopapi.API) *SupplierService {
	return &SupplierService{API: api}
}

type SuppliersPage struct {
	Suppliers []domain.Supplier
	Ledger    []analytics.SupplierBalance
}

func (s *SupplierService) Page(ctx context.Context) (SuppliersPage, error) {
	var (
		p       SuppliersPage
		lots    []domain.SupplierInventory
		returns []domain.SupplierReturn
	)
	err := fetchAll(ctx,
		func(ctx context.Context) (err error) { p.Suppliers, err = s.API.Suppliers.List(ctx, nil); return },
		func(ctx context.Context) (err error) { lots, err = s.API.Inventory.List(ctx, nil); return },
		func(ctx context.Context) (err error) { returns, err = s.API.Returns.List(ctx, nil); return },
	)
	if err != nil {
		return SuppliersPage{}, err
	}
	p.Ledger = analytics.SupplierLedger(p.Suppliers, lots, returns)
	return p, nil
}

func (s *SupplierService) Create(ctx context.Context, sup domain.Supplier) (domain.Supplier, error) {
	if sup.Name == "" {
		return domain.Supplier{}, fmt.Errorf("%w: supplier needs a name", ErrInvalidInput)
	}
	return s.API.Suppliers.Create(ctx, sup)
}

func (s *SupplierService) Update(ctx context.Context, sup domain.Supplier) (domain.Supplier, error) {
	if sup.ID == 0 || sup.Name == "" {
		return domain.Supplier{}, fmt.Errorf("%w: supplier needs an id and a name", ErrInvalidInput)
	}
	return s.API.Suppliers.Update(ctx, sup.ID, sup)
}

func (s *SupplierService) Delete(ctx context.Context, id int64) error {
	return s.API.Suppliers.Delete(ctx, id)
}

type ReturnsPage struct {
	Returns   []domain.SupplierReturn
	Suppliers []domain.Supplier
	Lots      []domain.SupplierInventory
	Total     float64
}

func (s *SupplierService) ReturnsPage(ctx context.Context) (ReturnsPage, error) {
	var p ReturnsPage
	err := fetchAll(ctx,
		func(ctx context.Context) (err error) { p.Returns, err = s.API.Returns.List(ctx, nil); return },
		func(ctx context.Context) (err error) { p.Suppliers, err = s.API.Suppliers.List(ctx, nil); return },
		func(ctx context.Context) (err error) { p.Lots, err = s.API.Inventory.List(ctx, nil); return },
	)
	if err != nil {
		return ReturnsPage{}, err
	}
	p.Total = analytics.TotalReturns(p.Returns)
	return p, nil
}

// Return sends goods from a lot back to its supplier. The amount defaults to
// the lot's unit price times the quantity returned.
func (s *SupplierService) Return(ctx context.Context, lotID int64, qty float64, amount float64, reason string) (domain.SupplierReturn, error) {
	if lotID == 0 || qty <= 0 {
		return domain.SupplierReturn{}, fmt.Errorf("%w: choose a lot and a positive quantity", ErrInvalidInput)
	}
	lot, err := s.API.Inventory.Get(ctx, lotID)
	if err != nil {
		return domain.SupplierReturn{}, err
	}
	if qty > lot.RemainingQuantity {
		return domain.SupplierReturn{}, fmt.Errorf("%w: lot %d has %g left", ErrInsufficientStock, lot.ID, lot.RemainingQuantity)
	}
	if amount == 0 {
		amount = qty * lot.UnitPrice
	}
	return s.API.Returns.Create(ctx, domain.SupplierReturn{
		SupplierID:  lot.SupplierID,
		VarietyID:   lot.VarietyID,
		InventoryID: lot.ID,
		Quantity:    qty,
		Amount:      amount,
		Reason:      reason,
		ReturnDate:  domain.Date{Time: nowOr(s.Now)},
	})
}

func (s *SupplierService) DeleteReturn(ctx context.Context, id int64) error {
	return s.API.Returns.Delete(ctx, id)
}
