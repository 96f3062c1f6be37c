package services

import (
	"context"
	"fmt"
	"time"

	"clothshop/internal/analytics"
	"clothshop/internal/domain"
	"clothshop/internal/shopapi"
)

// LowStockThreshold is the remaining quantity at or below which a variety is flagged.
const LowStockThreshold = 5

type InventoryService struct {
	API *shopapi.API
	Now func() time.Time
}

func NewInventoryService(api *shopapi.API) *InventoryService {
	return &InventoryService{API: api}
}

// Availability labels a remaining quantity IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
func Availability(remaining float64) string {
	switch {
	case remaining > LowStockThreshold:
		return "IN_STOCK"
	case remaining > 0:
		return "LOW_STOCK"
	default:
		return "OUT_OF_STOCK"
	}
}

type InventoryPage struct {
	Varieties []domain.Variety
	Suppliers []domain.Supplier
	Lots      []domain.SupplierInventory
	Levels    []analytics.StockLevel
	Low       []analytics.StockLevel
}

func (s *InventoryService) Page(ctx context.Context) (InventoryPage, error) {
	var p InventoryPage
	err := fetchAll(ctx,
		func(ctx context.Context) (err error) { p.Varieties, err = s.API.Varieties.List(ctx, nil); return },
		func(ctx context.Context) (err error) { p.Suppliers, err = s.API.Suppliers.List(ctx, nil); return },
		func(ctx context.Context) (err error) { p.Lots, err = s.API.Inventory.List(ctx, nil); return },
	)
	if err != nil {
		return InventoryPage{}, err
	}
	p.Levels = analytics.StockSummary(p.Varieties, p.Lots)
	p.Low = analytics.LowStock(p.Levels, LowStockThreshold)
	return p, nil
}

func (s *InventoryService) CreateVariety(ctx context.Context, v domain.Variety) (domain.Variety, error) {
	if v.Name == "" || v.Unit == "" {
		return domain.Variety{}, fmt.Errorf("%w: variety needs a name and unit", ErrInvalidInput)
	}
	return s.API.Varieties.Create(ctx, v)
}

func (s *InventoryService) UpdateVariety(ctx context.Context, v domain.Variety) (domain.Variety, error) {
	if v.ID == 0 || v.Name == "" {
		return domain.Variety{}, fmt.Errorf("%w: variety needs an id and a name", ErrInvalidInput)
	}
	return s.API.Varieties.Update(ctx, v.ID, v)
}

func (s *InventoryService) DeleteVariety(ctx context.Context, id int64) error {
	return s.API.Varieties.Delete(ctx, id)
}

// AddLot records a purchase from a supplier; the whole quantity starts as remaining.
func (s *InventoryService) AddLot(ctx context.Context, lot domain.SupplierInventory) (domain.SupplierInventory, error) {
	if lot.SupplierID == 0 || lot.VarietyID == 0 || lot.Quantity <= 0 {
		return domain.SupplierInventory{}, fmt.Errorf("%w: lot needs supplier, variety and quantity", ErrInvalidInput)
	}
	lot.RemainingQuantity = lot.Quantity
	if lot.PurchaseDate.IsZero() {
		lot.PurchaseDate = domain.Date{Time: nowOr(s.Now)}
	}
	return s.API.Inventory.Create(ctx, lot)
}

func (s *InventoryService) DeleteLot(ctx context.Context, id int64) error {
	return s.API.Inventory.Delete(ctx, id)
}

// StockPage is the shopkeeper stock screen.
type StockPage struct {
	Varieties []domain.Variety
	Lots      []domain.SupplierInventory
	Records   []domain.ShopkeeperStockRecord
}

func (s *InventoryService) StockPage(ctx context.Context) (StockPage, error) {
	var p StockPage
	err := fetchAll(ctx,
		func(ctx context.Context) (err error) { p.Varieties, err = s.API.Varieties.List(ctx, nil); return },
		func(ctx context.Context) (err error) { p.Lots, err = s.API.Inventory.List(ctx, nil); return },
		func(ctx context.Context) (err error) { p.Records, err = s.API.ShopkeeperStock.List(ctx, nil); return },
	)
	return p, err
}

// RecordStock logs stock taken to the shop floor. New stock goes through the
// same lot check as a sale.
func (s *InventoryService) RecordStock(ctx context.Context, rec domain.ShopkeeperStockRecord) (domain.ShopkeeperStockRecord, error) {
	if rec.VarietyID == 0 || rec.Quantity <= 0 {
		return domain.ShopkeeperStockRecord{}, fmt.Errorf("%w: variety and a positive quantity are required", ErrInvalidInput)
	}
	if rec.StockType == "" {
		rec.StockType = domain.StockOld
	}
	if rec.StockType == domain.StockNew {
		lots, err := s.API.Inventory.List(ctx, shopapi.ByVariety(rec.VarietyID))
		if err != nil {
			return domain.ShopkeeperStockRecord{}, err
		}
		lot, err := PickLot(lots, rec.VarietyID, rec.InventoryID, rec.Quantity)
		if err != nil {
			return domain.ShopkeeperStockRecord{}, err
		}
		rec.InventoryID = lot.ID
	} else {
		rec.InventoryID = 0
	}
	if rec.RecordDate.IsZero() {
		rec.RecordDate = domain.Date{Time: nowOr(s.Now)}
	}
	return s.API.ShopkeeperStock.Create(ctx, rec)
}

func (s *InventoryService) DeleteStock(ctx context.Context, id int64) error {
	return s.API.ShopkeeperStock.Delete(ctx, id)
}
