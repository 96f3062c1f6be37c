package handlers

import (
	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"

	"clothshop/internal/domain"
	"clothshop/internal/log"
	"clothshop/internal/services"
	"clothshop/internal/shopapi"
	"clothshop/internal/validate"
)

type InventoryHandler struct {
	*Base
}

func (h *InventoryHandler) svc(c *fiber.Ctx) *services.InventoryService {
	return &services.InventoryService{API: h.api(c), Now: h.Now}
}

// GET /inventory
func (h *InventoryHandler) Page(c *fiber.Ctx) error {
	p, err := h.svc(c).Page(c.UserContext())
	if err != nil {
		return pageError(c, "inventory.load", err)
	}
	return render(c, "inventory", fiber.Map{
		"P":     p,
		"Units": []domain.Unit{domain.UnitPieces, domain.UnitMeters, domain.UnitYards},
		"Today": h.now().Format("2006-01-02"),
	})
}

func parseVariety(c *fiber.Ctx) (domain.Variety, error) {
	var v domain.Variety
	var ok bool
	if v.Name, ok = validate.Name(c.FormValue("name")); !ok {
		return v, invalid("variety name is required")
	}
	if v.Unit, ok = validate.Unit(c.FormValue("unit")); !ok {
		return v, invalid("unit must be pieces, meters or yards")
	}
	if v.DefaultPrice, ok = validate.Money(c.FormValue("default_price", "0")); !ok {
		return v, invalid("default price must be a non-negative amount")
	}
	v.Description = c.FormValue("description")
	return v, nil
}

// POST /inventory/varieties
func (h *InventoryHandler) CreateVariety(c *fiber.Ctx) error {
	v, err := parseVariety(c)
	if err != nil {
		return formError(c, "variety.create", err, h.Page)
	}
	created, err := h.svc(c).CreateVariety(c.UserContext(), v)
	if err != nil {
		return formError(c, "variety.create", err, h.Page)
	}
	log.Audit(c, "variety.create", map[string]any{"variety_id": created.ID, "name": created.Name})
	return done(c, "/inventory", "Variety added")
}

// POST /inventory/varieties/:id
func (h *InventoryHandler) UpdateVariety(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return formError(c, "variety.update", invalid("bad variety id"), h.Page)
	}
	v, err := parseVariety(c)
	if err != nil {
		return formError(c, "variety.update", err, h.Page)
	}
	v.ID = id
	if _, err := h.svc(c).UpdateVariety(c.UserContext(), v); err != nil {
		return formError(c, "variety.update", err, h.Page)
	}
	log.Audit(c, "variety.update", map[string]any{"variety_id": id})
	return done(c, "/inventory", "Variety updated")
}

// POST /inventory/varieties/:id/delete
func (h *InventoryHandler) DeleteVariety(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return formError(c, "variety.delete", invalid("bad variety id"), h.Page)
	}
	if err := h.svc(c).DeleteVariety(c.UserContext(), id); err != nil {
		return formError(c, "variety.delete", err, h.Page)
	}
	log.Audit(c, "variety.delete", map[string]any{"variety_id": id})
	return done(c, "/inventory", "Variety deleted")
}

// POST /inventory/lots
func (h *InventoryHandler) AddLot(c *fiber.Ctx) error {
	var lot domain.SupplierInventory
	var ok bool
	if lot.SupplierID, ok = validate.ID(c.FormValue("supplier_id")); !ok {
		return formError(c, "lot.create", invalid("choose a supplier"), h.Page)
	}
	if lot.VarietyID, ok = validate.ID(c.FormValue("variety_id")); !ok {
		return formError(c, "lot.create", invalid("choose a variety"), h.Page)
	}
	if lot.Quantity, ok = validate.Quantity(c.FormValue("quantity")); !ok {
		return formError(c, "lot.create", invalid("quantity must be a positive number"), h.Page)
	}
	if lot.UnitPrice, ok = validate.Money(c.FormValue("unit_price")); !ok {
		return formError(c, "lot.create", invalid("unit price must be a non-negative amount"), h.Page)
	}
	if lot.PurchaseDate, ok = validate.Date(c.FormValue("purchase_date"), h.now()); !ok {
		return formError(c, "lot.create", invalid("purchase date must be YYYY-MM-DD"), h.Page)
	}
	created, err := h.svc(c).AddLot(c.UserContext(), lot)
	if err != nil {
		return formError(c, "lot.create", err, h.Page)
	}
	log.Audit(c, "lot.create", map[string]any{"lot_id": created.ID, "variety_id": lot.VarietyID, "qty": lot.Quantity})
	return done(c, "/inventory", "Lot recorded")
}

// POST /inventory/lots/:id/delete
func (h *InventoryHandler) DeleteLot(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return formError(c, "lot.delete", invalid("bad lot id"), h.Page)
	}
	if err := h.svc(c).DeleteLot(c.UserContext(), id); err != nil {
		return formError(c, "lot.delete", err, h.Page)
	}
	log.Audit(c, "lot.delete", map[string]any{"lot_id": id})
	return done(c, "/inventory", "Lot deleted")
}

// Lots answers GET /api/v1/lots?variety_id= with the lots new stock can draw
// from and the variety's default price, for forms that refresh without a reload.
func (h *InventoryHandler) Lots(c *fiber.Ctx) error {
	varietyID, ok := validate.ID(c.Query("variety_id"))
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing variety_id",
		})
	}

	api := h.api(c)
	var (
		variety domain.Variety
		lots    []domain.SupplierInventory
	)
	g, ctx := errgroup.WithContext(c.UserContext())
	g.Go(func() (err error) { variety, err = api.Varieties.Get(ctx, varietyID); return })
	g.Go(func() (err error) { lots, err = api.Inventory.List(ctx, shopapi.ByVariety(varietyID)); return })
	if err := g.Wait(); err != nil {
		return apiError(c, "lots.check", err)
	}

	variety.ID = varietyID
	p := preview([]domain.Variety{variety}, lots, varietyID)
	out := make([]fiber.Map, 0, len(p.Lots))
	for _, l := range p.Lots {
		out = append(out, fiber.Map{
			"id":                 l.Lot.ID,
			"supplier_name":      l.Lot.SupplierName,
			"remaining_quantity": l.Lot.RemainingQuantity,
			"unit_price":         l.Lot.UnitPrice,
			"purchase_date":      l.Lot.PurchaseDate.String(),
			"availability":       l.Availability,
		})
	}
	return c.JSON(fiber.Map{
		"variety_id":    variety.ID,
		"default_price": variety.DefaultPrice,
		"unit":          variety.Unit,
		"available":     p.Available,
		"availability":  services.Availability(p.Available),
		"lots":          out,
	})
}
