package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"clothshop/internal/apiclient"
	"clothshop/internal/domain"
	"clothshop/internal/log"
	"clothshop/internal/services"
	"clothshop/internal/session"
	"clothshop/internal/validate"
)

type AuthHandler struct {
	*Base
	Auth *services.AuthService
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	if mgr := sessionOf(c); mgr != nil && mgr.Authenticated() {
		return c.Redirect("/")
	}
	return render(c, "login", fiber.Map{"Err": "", "Email": ""})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	email := strings.TrimSpace(c.FormValue("email"))
	pass := c.FormValue("password")
	if _, ok := validate.Email(email); !ok || pass == "" {
		log.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": "bad_format"})
		return render(c.Status(fiber.StatusUnauthorized), "login", fiber.Map{"Err": "Invalid email or password", "Email": email})
	}

	var u domain.User
	err := h.signInFresh(c, func(mgr *session.Manager) (err error) {
		u, err = h.Auth.Login(c.UserContext(), mgr, email, pass)
		return err
	})
	if err != nil {
		if errors.Is(err, services.ErrBadCreds) {
			log.Security(c, "auth.login.fail", map[string]any{"email": email})
			return render(c.Status(fiber.StatusUnauthorized), "login", fiber.Map{"Err": "Invalid email or password", "Email": email})
		}
		log.Error(c, "auth.login.error", err, map[string]any{"email": email})
		return render(c.Status(fiber.StatusBadGateway), "login", fiber.Map{"Err": "Could not reach the shop server. Please try again.", "Email": email})
	}

	log.Audit(c, "auth.login.success", map[string]any{"user_id": u.ID, "role": u.Role})
	return c.Redirect("/", fiber.StatusSeeOther)
}

func (h *AuthHandler) RegisterForm(c *fiber.Ctx) error {
	if mgr := sessionOf(c); mgr != nil && mgr.Authenticated() {
		return c.Redirect("/")
	}
	return render(c, "register", fiber.Map{})
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	form := fiber.Map{
		"Name":         c.FormValue("name"),
		"Email":        c.FormValue("email"),
		"BusinessName": c.FormValue("business_name"),
		"Phone":        c.FormValue("phone"),
	}
	fail := func(status int, msg string) error {
		form["Err"] = msg
		return render(c.Status(status), "register", form)
	}

	name, ok := validate.Name(c.FormValue("name"))
	if !ok {
		return fail(fiber.StatusBadRequest, "Please enter your name")
	}
	email, ok := validate.Email(c.FormValue("email"))
	if !ok {
		return fail(fiber.StatusBadRequest, "Please enter a valid email")
	}
	business, ok := validate.Name(c.FormValue("business_name"))
	if !ok {
		return fail(fiber.StatusBadRequest, "Please enter the business name")
	}
	phone, ok := validate.Phone(c.FormValue("phone"))
	if !ok {
		return fail(fiber.StatusBadRequest, "Please enter a valid phone number")
	}

	reg := domain.Registration{Name: name, Email: email, Password: c.FormValue("password"), BusinessName: business, Phone: phone}
	var u domain.User
	err := h.signInFresh(c, func(mgr *session.Manager) (err error) {
		u, err = h.Auth.Register(c.UserContext(), mgr, reg, c.FormValue("confirm_password"))
		return err
	})
	switch {
	case errors.Is(err, services.ErrPasswordMismatch), errors.Is(err, services.ErrWeakPassword):
		return fail(fiber.StatusBadRequest, err.Error())
	case err != nil:
		var apiErr *apiclient.APIError
		if errors.As(err, &apiErr) && apiErr.Status < 500 {
			log.Info(c, "auth.register.rejected", map[string]any{"email": email, "detail": apiErr.Detail})
			return fail(fiber.StatusBadRequest, apiclient.Detail(err))
		}
		log.Error(c, "auth.register.error", err, map[string]any{"email": email})
		return fail(fiber.StatusBadGateway, "Could not reach the shop server. Please try again.")
	}

	log.Audit(c, "auth.register.success", map[string]any{"user_id": u.ID})
	return c.Redirect("/", fiber.StatusSeeOther)
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := ensureSID(c)
	if mgr := sessionOf(c); mgr != nil {
		if err := h.Auth.Logout(c.UserContext(), mgr); err != nil {
			log.Error(c, "auth.logout.error", err, nil)
		}
	}
	h.Sessions.Dispose(sid)
	expireSID(c)
	log.Audit(c, "auth.logout", map[string]any{"sid": sid})
	return c.Redirect("/login", fiber.StatusSeeOther)
}
