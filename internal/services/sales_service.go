package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"clothshop/internal/analytics"
	"clothshop/internal/domain"
	"clothshop/internal/shopapi"
)

type SalesService struct {
	API *shopapi.API
	Now func() time.Time
}

func NewSalesService(api *shopapi.API) *SalesService {
	return &SalesService{API: api}
}

// SalesPage is everything the sales screen shows.
type SalesPage struct {
	Varieties []domain.Variety
	Lots      []domain.SupplierInventory
	Sales     []domain.Sale
	Today     analytics.Totals
}

func (s *SalesService) Page(ctx context.Context) (SalesPage, error) {
	var p SalesPage
	err := fetchAll(ctx,
		func(ctx context.Context) (err error) { p.Varieties, err = s.API.Varieties.List(ctx, nil); return },
		func(ctx context.Context) (err error) { p.Lots, err = s.API.Inventory.List(ctx, nil); return },
		func(ctx context.Context) (err error) { p.Sales, err = s.API.Sales.List(ctx, nil); return },
	)
	if err != nil {
		return SalesPage{}, err
	}
	sort.SliceStable(p.Sales, func(i, j int) bool { return p.Sales[i].SaleDate.After(p.Sales[j].SaleDate.Time) })
	p.Today = analytics.SalesTotals(analytics.Filter(p.Sales, analytics.SaleDate, analytics.LastDays(nowOr(s.Now), 1)))
	return p, nil
}

// SaleInput is a validated sale form.
type SaleInput struct {
	VarietyID     int64
	Quantity      float64
	SellingPrice  float64
	CostPrice     float64
	StockType     domain.StockType
	InventoryID   int64
	Salesperson   string
	PaymentStatus domain.PaymentStatus
	CustomerName  string
	CustomerPhone string
	SaleDate      domain.Date
}

// Record checks new-stock availability against a fresh inventory snapshot,
// fills in lot and prices, and creates the sale. Nothing is posted when the
// check fails.
func (s *SalesService) Record(ctx context.Context, in SaleInput) (domain.Sale, error) {
	if in.VarietyID == 0 || in.Quantity <= 0 {
		return domain.Sale{}, fmt.Errorf("%w: variety and a positive quantity are required", ErrInvalidInput)
	}
	if in.StockType == "" {
		in.StockType = domain.StockOld
	}
	if in.PaymentStatus == "" {
		in.PaymentStatus = domain.PaymentPaid
	}

	var variety domain.Variety
	var lots []domain.SupplierInventory
	fns := []func(ctx context.Context) error{
		func(ctx context.Context) (err error) { variety, err = s.API.Varieties.Get(ctx, in.VarietyID); return },
	}
	if in.StockType == domain.StockNew {
		fns = append(fns, func(ctx context.Context) (err error) {
			lots, err = s.API.Inventory.List(ctx, shopapi.ByVariety(in.VarietyID))
			return
		})
	}
	if err := fetchAll(ctx, fns...); err != nil {
		return domain.Sale{}, err
	}

	sale := domain.Sale{
		VarietyID:     in.VarietyID,
		VarietyName:   variety.Name,
		Quantity:      in.Quantity,
		SellingPrice:  in.SellingPrice,
		CostPrice:     in.CostPrice,
		StockType:     in.StockType,
		Salesperson:   in.Salesperson,
		PaymentStatus: in.PaymentStatus,
		CustomerName:  in.CustomerName,
		CustomerPhone: in.CustomerPhone,
		SaleDate:      in.SaleDate,
	}
	if sale.SellingPrice == 0 {
		sale.SellingPrice = variety.DefaultPrice
	}
	if sale.SaleDate.IsZero() {
		sale.SaleDate = domain.Date{Time: nowOr(s.Now)}
	}

	if in.StockType == domain.StockNew {
		lot, err := PickLot(lots, in.VarietyID, in.InventoryID, in.Quantity)
		if err != nil {
			return domain.Sale{}, err
		}
		sale.InventoryID = lot.ID
		sale.CostPrice = lot.UnitPrice
	}

	created, err := s.API.Sales.Create(ctx, sale)
	if err != nil {
		return domain.Sale{}, err
	}
	return created, nil
}

func (s *SalesService) Delete(ctx context.Context, id int64) error {
	return s.API.Sales.Delete(ctx, id)
}

// PickLot chooses the supplier lot a new-stock movement draws from. The
// requested quantity must fit in what the variety has left overall and, when
// a lot is chosen, in that lot. Without a choice the oldest lot that can
// cover the quantity wins; when none can, the movement has to be split.
func PickLot(lots []domain.SupplierInventory, varietyID, lotID int64, qty float64) (domain.SupplierInventory, error) {
	if math.IsNaN(qty) || math.IsInf(qty, 0) || qty <= 0 {
		return domain.SupplierInventory{}, fmt.Errorf("%w: quantity must be a positive number", ErrInvalidInput)
	}
	available := analytics.AvailableLots(lots, varietyID)
	total := analytics.Available(lots, varietyID)
	if len(available) == 0 || qty > total {
		return domain.SupplierInventory{}, fmt.Errorf("%w: requested %g, only %g left in supplier lots", ErrInsufficientStock, qty, total)
	}

	if lotID != 0 {
		for _, l := range lots {
			if l.ID != lotID {
				continue
			}
			if l.VarietyID != varietyID {
				return domain.SupplierInventory{}, ErrLotMismatch
			}
			if qty > l.RemainingQuantity {
				return domain.SupplierInventory{}, fmt.Errorf("%w: lot %d has %g left", ErrInsufficientStock, l.ID, l.RemainingQuantity)
			}
			return l, nil
		}
		return domain.SupplierInventory{}, fmt.Errorf("%w: lot %d not found", ErrInvalidInput, lotID)
	}

	largest := available[0]
	for _, l := range available {
		if l.RemainingQuantity >= qty {
			return l, nil
		}
		if l.RemainingQuantity > largest.RemainingQuantity {
			largest = l
		}
	}
	return domain.SupplierInventory{}, fmt.Errorf("%w: no single lot holds %g; lot %d has the most (%g), record the rest against another lot",
		ErrInsufficientStock, qty, largest.ID, largest.RemainingQuantity)
}
