package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"clothshop/internal/analytics"
	"clothshop/internal/services"
)

type DashboardHandler struct {
	*Base
}

// GET /
func (h *DashboardHandler) Home(c *fiber.Ctx) error {
	svc := &services.DashboardService{API: h.api(c), Now: h.Now}
	d, err := svc.Dashboard(c.UserContext())
	if err != nil {
		return pageError(c, "dashboard.load", err)
	}
	return render(c, "dashboard", fiber.Map{"D": d})
}

// GET /analytics?from=YYYY-MM-DD&to=YYYY-MM-DD
func (h *DashboardHandler) Analytics(c *fiber.Ctx) error {
	w := windowFrom(c, h.now(), 30)
	svc := &services.DashboardService{API: h.api(c), Now: h.Now}
	rep, err := svc.Report(c.UserContext(), w)
	if err != nil {
		return pageError(c, "analytics.load", err)
	}
	return render(c, "analytics", fiber.Map{
		"R":    rep,
		"From": w.Start.Format("2006-01-02"),
		"To":   w.End.Format("2006-01-02"),
	})
}

// windowFrom reads from/to query params, defaulting to the last def days.
// Swapped bounds are put back in order.
func windowFrom(c *fiber.Ctx, now time.Time, def int) analytics.Window {
	w := analytics.LastDays(now, def)
	if from, err := time.ParseInLocation("2006-01-02", c.Query("from"), now.Location()); err == nil {
		w.Start = from
	}
	if to, err := time.ParseInLocation("2006-01-02", c.Query("to"), now.Location()); err == nil {
		w.End = to
	}
	if w.End.Before(w.Start) {
		w.Start, w.End = w.End, w.Start
	}
	return w
}
