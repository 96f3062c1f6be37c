package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	applog "clothshop/internal/log"
)

// ErrorHandler shows a friendly page without leaking internals.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	msg := "Something went wrong. Please try again."
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < 500 {
		status = fe.Code
		msg = fe.Message
	} else {
		applog.Error(c, "server.error", err, nil)
	}
	if rerr := c.Status(status).Render("error", fiber.Map{"Message": msg}, layout); rerr != nil {
		return c.Status(status).SendString(msg)
	}
	return nil
}

// Mount attaches the session loader and every page route. Core middleware
// (request id, access log, helmet, csrf) is the caller's concern.
func Mount(app *fiber.App, d *Deps) {
	app.Use(d.Base.LoadSession())

	signed := RequireSession()
	owner := RequireOwner()

	// Auth routes (login throttled)
	app.Get("/login", d.AuthHandler.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return render(c.Status(fiber.StatusTooManyRequests), "login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), d.AuthHandler.Login)
	app.Get("/register", d.AuthHandler.RegisterForm)
	app.Post("/register", d.AuthHandler.Register)
	app.Post("/logout", d.AuthHandler.Logout)

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	// Pages for every signed-in role
	app.Get("/", signed, d.DashboardHandler.Home)

	app.Get("/sales", signed, d.SalesHandler.Page)
	app.Post("/sales", signed, d.SalesHandler.Create)
	app.Post("/sales/:id/delete", signed, d.SalesHandler.Delete)

	app.Get("/stock", signed, d.StockHandler.Page)
	app.Post("/stock", signed, d.StockHandler.Create)
	app.Post("/stock/:id/delete", signed, d.StockHandler.Delete)

	app.Get("/loans", signed, d.LoanHandler.Page)
	app.Post("/loans", signed, d.LoanHandler.Create)
	app.Get("/loans/:id", signed, d.LoanHandler.Detail)
	app.Post("/loans/:id/payments", signed, d.LoanHandler.Pay)
	app.Post("/loans/:id/delete", signed, d.LoanHandler.Delete)

	app.Get("/voice", signed, d.VoiceHandler.Page)
	app.Post("/voice/upload", signed, d.VoiceHandler.Upload)
	app.Post("/voice/validate", signed, d.VoiceHandler.Validate)
	app.Post("/voice/confirm", signed, d.VoiceHandler.Confirm)

	app.Get("/chatbot", signed, d.AssistantHandler.Chatbot)
	app.Post("/chatbot", signed, d.AssistantHandler.ChatbotSend)

	// API
	api := app.Group("/api/v1", signed)
	lotsLimiter := limiter.New(limiter.Config{
		Max:        30,
		Expiration: 30 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|lots"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.lots.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	})
	api.Get("/lots", lotsLimiter, d.InventoryHandler.Lots)

	// Owner
	app.Get("/inventory", signed, owner, d.InventoryHandler.Page)
	app.Post("/inventory/varieties", signed, owner, d.InventoryHandler.CreateVariety)
	app.Post("/inventory/varieties/:id", signed, owner, d.InventoryHandler.UpdateVariety)
	app.Post("/inventory/varieties/:id/delete", signed, owner, d.InventoryHandler.DeleteVariety)
	app.Post("/inventory/lots", signed, owner, d.InventoryHandler.AddLot)
	app.Post("/inventory/lots/:id/delete", signed, owner, d.InventoryHandler.DeleteLot)

	app.Get("/suppliers", signed, owner, d.SupplierHandler.Page)
	app.Post("/suppliers", signed, owner, d.SupplierHandler.Create)
	app.Post("/suppliers/:id", signed, owner, d.SupplierHandler.Update)
	app.Post("/suppliers/:id/delete", signed, owner, d.SupplierHandler.Delete)

	app.Get("/returns", signed, owner, d.SupplierHandler.Returns)
	app.Post("/returns", signed, owner, d.SupplierHandler.CreateReturn)
	app.Post("/returns/:id/delete", signed, owner, d.SupplierHandler.DeleteReturn)

	app.Get("/expenses", signed, owner, d.ExpenseHandler.Page)
	app.Post("/expenses", signed, owner, d.ExpenseHandler.Create)
	app.Post("/expenses/:id/delete", signed, owner, d.ExpenseHandler.Delete)

	app.Get("/analytics", signed, owner, d.DashboardHandler.Analytics)
	app.Get("/forecasts", signed, owner, d.AssistantHandler.Forecasts)
	app.Get("/ai-agent", signed, owner, d.AssistantHandler.Agent)
	app.Post("/ai-agent", signed, owner, d.AssistantHandler.AgentSend)

	// 404
	app.Use(func(c *fiber.Ctx) error {
		return render(c.Status(fiber.StatusNotFound), "error", fiber.Map{"Message": "Page not found"})
	})
}
