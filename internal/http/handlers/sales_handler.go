package handlers

import (
	"github.com/gofiber/fiber/v2"

	"clothshop/internal/analytics"
	"clothshop/internal/domain"
	"clothshop/internal/log"
	"clothshop/internal/services"
	"clothshop/internal/session"
	"clothshop/internal/validate"
)

type SalesHandler struct {
	*Base
}

// LotChoice is one supplier lot offered for a new-stock movement.
type LotChoice struct {
	Lot          domain.SupplierInventory
	Availability string
}

// Preview is the variety picked in a form: its default price and the lots
// new stock could come from, oldest first.
type Preview struct {
	Variety   domain.Variety
	Lots      []LotChoice
	Available float64
}

func preview(varieties []domain.Variety, lots []domain.SupplierInventory, varietyID int64) *Preview {
	if varietyID == 0 {
		return nil
	}
	for _, v := range varieties {
		if v.ID != varietyID {
			continue
		}
		p := &Preview{Variety: v, Available: analytics.Available(lots, varietyID)}
		for _, l := range analytics.AvailableLots(lots, varietyID) {
			p.Lots = append(p.Lots, LotChoice{Lot: l, Availability: services.Availability(l.RemainingQuantity)})
		}
		return p
	}
	return nil
}

// formPrefs fills sticky form values from the session's remembered choices.
func formPrefs(c *fiber.Ctx) fiber.Map {
	mgr := sessionOf(c)
	prefs := fiber.Map{
		"Salesperson":   mgr.Pref(c.UserContext(), session.PrefLastSalesperson),
		"StockType":     mgr.Pref(c.UserContext(), session.PrefLastStockType),
		"PaymentStatus": mgr.Pref(c.UserContext(), session.PrefLastPaymentStatus),
	}
	if prefs["Salesperson"] == "" {
		if u := userOf(c); u != nil {
			prefs["Salesperson"] = u.Name
		}
	}
	if prefs["StockType"] == "" {
		prefs["StockType"] = string(domain.StockOld)
	}
	if prefs["PaymentStatus"] == "" {
		prefs["PaymentStatus"] = string(domain.PaymentPaid)
	}
	return prefs
}

// rememberPrefs keeps the last choices for the next form. Failures only cost
// convenience.
func rememberPrefs(c *fiber.Ctx, salesperson string, st domain.StockType, ps domain.PaymentStatus) {
	mgr := sessionOf(c)
	ctx := c.UserContext()
	for key, val := range map[string]string{
		session.PrefLastSalesperson:   salesperson,
		session.PrefLastStockType:     string(st),
		session.PrefLastPaymentStatus: string(ps),
	} {
		if val == "" {
			continue
		}
		if err := mgr.SetPref(ctx, key, val); err != nil {
			log.Error(c, "session.pref.fail", err, map[string]any{"key": key})
		}
	}
}

// GET /sales[?variety_id=]
func (h *SalesHandler) Page(c *fiber.Ctx) error {
	svc := &services.SalesService{API: h.api(c), Now: h.Now}
	p, err := svc.Page(c.UserContext())
	if err != nil {
		return pageError(c, "sales.load", err)
	}
	selected, _ := validate.OptionalID(c.Query("variety_id", c.FormValue("variety_id")))
	return render(c, "sales", fiber.Map{
		"P":       p,
		"Preview": preview(p.Varieties, p.Lots, selected),
		"Prefs":   formPrefs(c),
		"Today":   h.now().Format("2006-01-02"),
	})
}

// parseSale reads the sale form shared by the sales and voice pages.
func parseSale(c *fiber.Ctx, h *Base) (services.SaleInput, error) {
	var in services.SaleInput
	var ok bool
	if in.VarietyID, ok = validate.ID(c.FormValue("variety_id")); !ok {
		return in, invalid("choose a variety")
	}
	if in.Quantity, ok = validate.Quantity(c.FormValue("quantity")); !ok {
		return in, invalid("quantity must be a positive number")
	}
	if raw := c.FormValue("selling_price"); raw != "" {
		if in.SellingPrice, ok = validate.Money(raw); !ok {
			return in, invalid("selling price must be a non-negative amount")
		}
	}
	if raw := c.FormValue("cost_price"); raw != "" {
		if in.CostPrice, ok = validate.Money(raw); !ok {
			return in, invalid("cost price must be a non-negative amount")
		}
	}
	if in.StockType, ok = validate.StockType(c.FormValue("stock_type", string(domain.StockOld))); !ok {
		return in, invalid("stock type must be old or new")
	}
	if in.InventoryID, ok = validate.OptionalID(c.FormValue("supplier_inventory_id")); !ok {
		return in, invalid("unknown supplier lot")
	}
	if in.PaymentStatus, ok = validate.PaymentStatus(c.FormValue("payment_status", string(domain.PaymentPaid))); !ok {
		return in, invalid("payment status must be paid, unpaid or partial")
	}
	if in.Salesperson, ok = validate.Name(c.FormValue("salesperson_name")); !ok {
		return in, invalid("enter the salesperson's name")
	}
	in.CustomerName = c.FormValue("customer_name")
	if in.CustomerPhone, ok = validate.Phone(c.FormValue("customer_phone")); !ok {
		return in, invalid("customer phone looks wrong")
	}
	if in.SaleDate, ok = validate.Date(c.FormValue("sale_date"), h.now()); !ok {
		return in, invalid("sale date must be YYYY-MM-DD")
	}
	return in, nil
}

// POST /sales
func (h *SalesHandler) Create(c *fiber.Ctx) error {
	in, err := parseSale(c, h.Base)
	if err != nil {
		return formError(c, "sale.create", err, h.Page)
	}
	svc := &services.SalesService{API: h.api(c), Now: h.Now}
	sale, err := svc.Record(c.UserContext(), in)
	if err != nil {
		return formError(c, "sale.create", err, h.Page)
	}
	rememberPrefs(c, in.Salesperson, in.StockType, in.PaymentStatus)
	log.Audit(c, "sale.create", map[string]any{"sale_id": sale.ID, "variety_id": sale.VarietyID, "qty": sale.Quantity, "stock_type": sale.StockType})
	return done(c, "/sales", "Sale recorded")
}

// POST /sales/:id/delete
func (h *SalesHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return formError(c, "sale.delete", invalid("bad sale id"), h.Page)
	}
	svc := &services.SalesService{API: h.api(c), Now: h.Now}
	if err := svc.Delete(c.UserContext(), id); err != nil {
		return formError(c, "sale.delete", err, h.Page)
	}
	log.Audit(c, "sale.delete", map[string]any{"sale_id": id})
	return done(c, "/sales", "Sale deleted")
}
