package handlers

import (
	"github.com/gofiber/fiber/v2"

	"clothshop/internal/domain"
	"clothshop/internal/log"
	"clothshop/internal/services"
	"clothshop/internal/validate"
)

// StockHandler serves the shopkeeper stock log: goods taken to the shop floor.
type StockHandler struct {
	*Base
}

func (h *StockHandler) svc(c *fiber.Ctx) *services.InventoryService {
	return &services.InventoryService{API: h.api(c), Now: h.Now}
}

// GET /stock[?variety_id=]
func (h *StockHandler) Page(c *fiber.Ctx) error {
	p, err := h.svc(c).StockPage(c.UserContext())
	if err != nil {
		return pageError(c, "stock.load", err)
	}
	selected, _ := validate.OptionalID(c.Query("variety_id", c.FormValue("variety_id")))
	return render(c, "stock", fiber.Map{
		"P":       p,
		"Preview": preview(p.Varieties, p.Lots, selected),
		"Prefs":   formPrefs(c),
		"Today":   h.now().Format("2006-01-02"),
	})
}

// POST /stock
func (h *StockHandler) Create(c *fiber.Ctx) error {
	var rec domain.ShopkeeperStockRecord
	var ok bool
	if rec.VarietyID, ok = validate.ID(c.FormValue("variety_id")); !ok {
		return formError(c, "stock.create", invalid("choose a variety"), h.Page)
	}
	if rec.Quantity, ok = validate.Quantity(c.FormValue("quantity")); !ok {
		return formError(c, "stock.create", invalid("quantity must be a positive number"), h.Page)
	}
	if rec.StockType, ok = validate.StockType(c.FormValue("stock_type", string(domain.StockOld))); !ok {
		return formError(c, "stock.create", invalid("stock type must be old or new"), h.Page)
	}
	if rec.InventoryID, ok = validate.OptionalID(c.FormValue("supplier_inventory_id")); !ok {
		return formError(c, "stock.create", invalid("unknown supplier lot"), h.Page)
	}
	if rec.RecordDate, ok = validate.Date(c.FormValue("record_date"), h.now()); !ok {
		return formError(c, "stock.create", invalid("date must be YYYY-MM-DD"), h.Page)
	}
	rec.RecordedBy = c.FormValue("recorded_by")
	if rec.RecordedBy == "" {
		if u := userOf(c); u != nil {
			rec.RecordedBy = u.Name
		}
	}

	saved, err := h.svc(c).RecordStock(c.UserContext(), rec)
	if err != nil {
		return formError(c, "stock.create", err, h.Page)
	}
	rememberPrefs(c, "", rec.StockType, "")
	log.Audit(c, "stock.create", map[string]any{"record_id": saved.ID, "variety_id": rec.VarietyID, "qty": rec.Quantity, "stock_type": rec.StockType})
	return done(c, "/stock", "Stock recorded")
}

// POST /stock/:id/delete
func (h *StockHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return formError(c, "stock.delete", invalid("bad record id"), h.Page)
	}
	if err := h.svc(c).DeleteStock(c.UserContext(), id); err != nil {
		return formError(c, "stock.delete", err, h.Page)
	}
	log.Audit(c, "stock.delete", map[string]any{"record_id": id})
	return done(c, "/stock", "Stock record deleted")
}
