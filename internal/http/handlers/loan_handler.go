package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"clothshop/internal/log"
	"clothshop/internal/services"
	"clothshop/internal/validate"
)

type LoanHandler struct {
	*Base
}

func (h *LoanHandler) svc(c *fiber.Ctx) *services.LoanService {
	return &services.LoanService{API: h.api(c), Now: h.Now}
}

// GET /loans
func (h *LoanHandler) Page(c *fiber.Ctx) error {
	p, err := h.svc(c).Page(c.UserContext())
	if err != nil {
		return pageError(c, "loans.load", err)
	}
	return render(c, "loans", fiber.Map{"P": p, "Today": h.now().Format("2006-01-02")})
}

// POST /loans
func (h *LoanHandler) Create(c *fiber.Ctx) error {
	var in services.LoanInput
	var ok bool
	in.CustomerName = c.FormValue("customer_name")
	if in.CustomerPhone, ok = validate.Phone(c.FormValue("customer_phone")); !ok {
		return formError(c, "loan.create", invalid("customer phone looks wrong"), h.Page)
	}
	if in.SaleID, ok = validate.OptionalID(c.FormValue("sale_id")); !ok {
		return formError(c, "loan.create", invalid("bad sale id"), h.Page)
	}
	if in.Amount, ok = validate.Money(c.FormValue("amount")); !ok {
		return formError(c, "loan.create", invalid("amount must be a positive number"), h.Page)
	}
	if in.LoanDate, ok = validate.Date(c.FormValue("loan_date"), h.now()); !ok {
		return formError(c, "loan.create", invalid("loan date must be YYYY-MM-DD"), h.Page)
	}
	in.Notes = c.FormValue("notes")

	loan, err := h.svc(c).Create(c.UserContext(), in)
	if err != nil {
		return formError(c, "loan.create", err, h.Page)
	}
	log.Audit(c, "loan.create", map[string]any{"loan_id": loan.ID, "amount": loan.Amount})
	return done(c, "/loans", "Loan recorded")
}

// GET /loans/:id
func (h *LoanHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return render(c.Status(fiber.StatusNotFound), "error", fiber.Map{"Message": "Not found"})
	}
	d, err := h.svc(c).Detail(c.UserContext(), id)
	if err != nil {
		return pageError(c, "loan.load", err)
	}
	return render(c, "loan", fiber.Map{"D": d})
}

// POST /loans/:id/payments
func (h *LoanHandler) Pay(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return formError(c, "loan.pay", invalid("bad loan id"), h.Page)
	}
	amount, ok := validate.Money(c.FormValue("amount"))
	if !ok {
		return formError(c, "loan.pay", invalid("payment must be a positive number"), h.Detail)
	}
	p, err := h.svc(c).Pay(c.UserContext(), id, amount, c.FormValue("note"))
	if err != nil {
		return formError(c, "loan.pay", err, h.Detail)
	}
	log.Audit(c, "loan.pay", map[string]any{"loan_id": id, "amount": p.Amount})
	return done(c, "/loans/"+strconv.FormatInt(id, 10), "Payment recorded")
}

// POST /loans/:id/delete
func (h *LoanHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return formError(c, "loan.delete", invalid("bad loan id"), h.Page)
	}
	if err := h.svc(c).Delete(c.UserContext(), id); err != nil {
		return formError(c, "loan.delete", err, h.Page)
	}
	log.Audit(c, "loan.delete", map[string]any{"loan_id": id})
	return done(c, "/loans", "Loan deleted")
}
