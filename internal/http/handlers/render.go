package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"clothshop/internal/apiclient"
	"clothshop/internal/domain"
	applog "clothshop/internal/log"
	"clothshop/internal/services"
	"clothshop/internal/session"
)

const layout = "layouts/main"

type NavItem struct {
	Label  string
	Path   string
	Active bool
}

var (
	salespersonNav = []NavItem{
		{Label: "Dashboard", Path: "/"},
		{Label: "Sales", Path: "/sales"},
		{Label: "Stock", Path: "/stock"},
		{Label: "Loans", Path: "/loans"},
		{Label: "Voice Entry", Path: "/voice"},
		{Label: "Chatbot", Path: "/chatbot"},
	}
	ownerNav = []NavItem{
		{Label: "Dashboard", Path: "/"},
		{Label: "Sales", Path: "/sales"},
		{Label: "Inventory", Path: "/inventory"},
		{Label: "Stock", Path: "/stock"},
		{Label: "Loans", Path: "/loans"},
		{Label: "Suppliers", Path: "/suppliers"},
		{Label: "Returns", Path: "/returns"},
		{Label: "Expenses", Path: "/expenses"},
		{Label: "Analytics", Path: "/analytics"},
		{Label: "Forecasts", Path: "/forecasts"},
		{Label: "AI Agent", Path: "/ai-agent"},
		{Label: "Voice Entry", Path: "/voice"},
		{Label: "Chatbot", Path: "/chatbot"},
	}
)

// navFor returns the menu for a role with the current section marked.
func navFor(role domain.Role, path string) []NavItem {
	src := salespersonNav
	if role == domain.RoleOwner {
		src = ownerNav
	}
	out := make([]NavItem, len(src))
	for i, it := range src {
		it.Active = it.Path == path || (it.Path != "/" && strings.HasPrefix(path, it.Path+"/"))
		out[i] = it
	}
	return out
}

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if u := userOf(c); u != nil {
		data["User"] = u
		data["Nav"] = navFor(u.Role, c.Path())
		if t, ok := c.Locals("tenant").(domain.Tenant); ok {
			data["Tenant"] = t
		}
	}
	// Pick up the token the CSRF middleware put into Locals
	if tok, _ := c.Locals("CSRFToken").(string); tok != "" {
		data["CSRFToken"] = tok
	} else if cookTok := c.Cookies("csrf_"); cookTok != "" {
		data["CSRFToken"] = cookTok
	}
	if msg, _ := c.Locals("flash").(string); msg != "" {
		data["Error"] = msg
	}
	if raw := c.Cookies(noticeCookie); raw != "" {
		if notice, err := url.QueryUnescape(raw); err == nil {
			data["Notice"] = notice
		}
		c.ClearCookie(noticeCookie)
	}
	if name, ok := c.Locals("app_name").(string); ok {
		data["AppName"] = name
	}
	return c.Render(tmpl, data, layout)
}

const noticeCookie = "notice"

// done finishes a successful form post: remember a notice and redirect so the
// page re-fetches its lists.
func done(c *fiber.Ctx, to, notice string) error {
	c.Cookie(&fiber.Cookie{
		Name:     noticeCookie,
		Value:    url.QueryEscape(notice),
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(time.Minute),
	})
	return c.Redirect(to, fiber.StatusSeeOther)
}

// pageError handles a failed page load.
func pageError(c *fiber.Ctx, action string, err error) error {
	if errors.Is(err, session.ErrSessionEnded) {
		applog.Security(c, "session.ended", map[string]any{"during": action})
		expireSID(c)
		return c.Redirect("/login")
	}
	applog.Error(c, action+".fail", err, nil)
	return render(c.Status(fiber.StatusBadGateway), "error", fiber.Map{"Message": apiclient.Detail(err)})
}

// formError shows a rejected form again with the message. Input problems
// answer 400, backend rejections keep their 4xx, anything else is a 502.
func formError(c *fiber.Ctx, action string, err error, page fiber.Handler) error {
	if errors.Is(err, session.ErrSessionEnded) {
		applog.Security(c, "session.ended", map[string]any{"during": action})
		expireSID(c)
		return c.Redirect("/login", fiber.StatusSeeOther)
	}
	status := fiber.StatusBadGateway
	var apiErr *apiclient.APIError
	switch {
	case isInputError(err):
		status = fiber.StatusBadRequest
		applog.Info(c, action+".rejected", map[string]any{"reason": err.Error()})
	case errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500:
		status = apiErr.Status
		if status == http.StatusUnauthorized {
			status = fiber.StatusBadRequest
		}
		applog.Info(c, action+".rejected", map[string]any{"status": apiErr.Status, "detail": apiErr.Detail})
	default:
		applog.Error(c, action+".fail", err, nil)
	}
	c.Locals("flash", message(err))
	c.Status(status)
	return page(c)
}

// apiError is the JSON counterpart of pageError.
func apiError(c *fiber.Ctx, action string, err error) error {
	if errors.Is(err, session.ErrSessionEnded) {
		applog.Security(c, "session.ended", map[string]any{"during": action})
		expireSID(c)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "session ended"})
	}
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		return c.Status(apiErr.Status).JSON(fiber.Map{"error": apiErr.Detail})
	}
	applog.Error(c, action+".fail", err, nil)
	return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": apiclient.Detail(err)})
}

// message is what the user sees for err: our own form checks word their
// problem directly, everything else goes through the backend detail rules.
func message(err error) string {
	if isInputError(err) {
		return err.Error()
	}
	return apiclient.Detail(err)
}

func isInputError(err error) bool {
	for _, target := range []error{
		services.ErrInvalidInput,
		services.ErrInsufficientStock,
		services.ErrCustomerRequired,
		services.ErrOverpayment,
		services.ErrLotMismatch,
		services.ErrPasswordMismatch,
		services.ErrWeakPassword,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// invalid is a form field problem found before any service call.
func invalid(msg string) error {
	return fmt.Errorf("%w: %s", services.ErrInvalidInput, msg)
}
