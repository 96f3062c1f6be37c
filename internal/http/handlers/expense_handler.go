package handlers

import (
	"github.com/gofiber/fiber/v2"

	"clothshop/internal/domain"
	"clothshop/internal/log"
	"clothshop/internal/services"
	"clothshop/internal/validate"
)

type ExpenseHandler struct {
	*Base
}

func (h *ExpenseHandler) svc(c *fiber.Ctx) *services.ExpenseService {
	return &services.ExpenseService{API: h.api(c), Now: h.Now}
}

// GET /expenses[?from=&to=]
func (h *ExpenseHandler) Page(c *fiber.Ctx) error {
	w := windowFrom(c, h.now(), 30)
	p, err := h.svc(c).Page(c.UserContext(), w)
	if err != nil {
		return pageError(c, "expenses.load", err)
	}
	return render(c, "expenses", fiber.Map{
		"P":     p,
		"From":  w.Start.Format("2006-01-02"),
		"To":    w.End.Format("2006-01-02"),
		"Today": h.now().Format("2006-01-02"),
	})
}

// POST /expenses
func (h *ExpenseHandler) Create(c *fiber.Ctx) error {
	var e domain.Expense
	var ok bool
	if e.Category, ok = validate.Category(c.FormValue("category")); !ok {
		return formError(c, "expense.create", invalid("category is required"), h.Page)
	}
	if e.Amount, ok = validate.Money(c.FormValue("amount")); !ok {
		return formError(c, "expense.create", invalid("amount must be a positive number"), h.Page)
	}
	if e.ExpenseDate, ok = validate.Date(c.FormValue("expense_date"), h.now()); !ok {
		return formError(c, "expense.create", invalid("date must be YYYY-MM-DD"), h.Page)
	}
	e.Description = c.FormValue("description")

	created, err := h.svc(c).Create(c.UserContext(), e)
	if err != nil {
		return formError(c, "expense.create", err, h.Page)
	}
	log.Audit(c, "expense.create", map[string]any{"expense_id": created.ID, "category": e.Category, "amount": e.Amount})
	return done(c, "/expenses", "Expense recorded")
}

// POST /expenses/:id/delete
func (h *ExpenseHandler) Delete(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		return formError(c, "expense.delete", invalid("bad expense id"), h.Page)
	}
	if err := h.svc(c).Delete(c.UserContext(), id); err != nil {
		return formError(c, "expense.delete", err, h.Page)
	}
	log.Audit(c, "expense.delete", map[string]any{"expense_id": id})
	return done(c, "/expenses", "Expense deleted")
}
