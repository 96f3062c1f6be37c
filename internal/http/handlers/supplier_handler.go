package handlers

import (
	"github.com/gofiber/fiber/v2"

	"clothshop/internal/domain"
	"clothshop/internal/log"
	"clothshop/internal/services"
	"clothshop/internal/validate"
)

// SupplierHandler covers suppliers, their running balances and returns.
type SupplierHandler struct {
	*Base
}

func (h *SupplierHandler) svc(c *fiber.Ctx) *services.SupplierService {
	return &services.SupplierService{API: h.api(c), Now: h.Now}
}

// GET /suppliers
func (h *SupplierHandler) Page(c *fiber.Ctx) error {
	p, err := h.svc(c).Page(c.UserContext())
	if err != nil {
		return pageError(c, "suppliers.load", err)
	}
	return render(c, "suppliers", fiber.Map{"P": p})
}

func parseSupplier(c *fiber.Ctx) (domain.Supplier, error) {
	var s domain.Supplier
	var ok bool
	if s.Name, ok = validate.Name(c.FormValue("name")); !ok {
		return s, invalid("supplier name is required")
	}
	if s.Phone, ok = validate.Phone(c.FormValue("phone")); !ok {
		return s, invalid("phone looks wrong")
	}
	s.Address = c.FormValue("address")
	return s, nil
}

// POST /suppliers
func (h *SupplierHandler) Create(c *fiber.Ctx) error {
	s, err := parseSupplier(c)
	if err != nil {
		return formError(c, "supplier.create", err, h.Page)
	}
	created, err := h.svc(c).Create(c.UserContext(), s)
	if err != nil {
		return formError(c, "supplier.create", err, h.Page)
	}
	log.Audit(c, "supplier.create", map[string]any{"supplier_id": created.ID})
	return done(c, "/suppliers", "Supplier added")
}

// POST /suppliers/:id
func (h *SupplierHandler) Update(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return formError(c, "supplier.update", invalid("bad supplier id"), h.Page)
	}
	s, err := parseSupplier(c)
	if err != nil {
		return formError(c, "supplier.update", err, h.Page)
	}
	s.ID = id
	if _, err := h.svc(c).Update(c.UserContext(), s); err != nil {
		return formError(c, "supplier.update", err, h.Page)
	}
	log.Audit(c, "supplier.update", map[string]any{"supplier_id": id})
	return done(c, "/suppliers", "Supplier updated")
}

// POST /suppliers/:id/delete
func (h *SupplierHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return formError(c, "supplier.delete", invalid("bad supplier id"), h.Page)
	}
	if err := h.svc(c).Delete(c.UserContext(), id); err != nil {
		return formError(c, "supplier.delete", err, h.Page)
	}
	log.Audit(c, "supplier.delete", map[string]any{"supplier_id": id})
	return done(c, "/suppliers", "Supplier deleted")
}

// GET /returns
func (h *SupplierHandler) Returns(c *fiber.Ctx) error {
	p, err := h.svc(c).ReturnsPage(c.UserContext())
	if err != nil {
		return pageError(c, "returns.load", err)
	}
	return render(c, "returns", fiber.Map{"P": p})
}

// POST /returns
func (h *SupplierHandler) CreateReturn(c *fiber.Ctx) error {
	lotID, ok := validate.ID(c.FormValue("inventory_id"))
	if !ok {
		return formError(c, "return.create", invalid("choose the lot being returned"), h.Returns)
	}
	qty, ok := validate.Quantity(c.FormValue("quantity"))
	if !ok {
		return formError(c, "return.create", invalid("quantity must be a positive number"), h.Returns)
	}
	var amount float64
	if raw := c.FormValue("amount"); raw != "" {
		if amount, ok = validate.Money(raw); !ok {
			return formError(c, "return.create", invalid("amount must be a non-negative number"), h.Returns)
		}
	}
	r, err := h.svc(c).Return(c.UserContext(), lotID, qty, amount, c.FormValue("reason"))
	if err != nil {
		return formError(c, "return.create", err, h.Returns)
	}
	log.Audit(c, "return.create", map[string]any{"return_id": r.ID, "lot_id": lotID, "qty": qty, "amount": r.Amount})
	return done(c, "/returns", "Return recorded")
}

// POST /returns/:id/delete
func (h *SupplierHandler) DeleteReturn(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return formError(c, "return.delete", invalid("bad return id"), h.Returns)
	}
	if err := h.svc(c).DeleteReturn(c.UserContext(), id); err != nil {
		return formError(c, "return.delete", err, h.Returns)
	}
	log.Audit(c, "return.delete", map[string]any{"return_id": id})
	return done(c, "/returns", "Return deleted")
}
