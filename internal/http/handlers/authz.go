package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"clothshop/internal/domain"
	applog "clothshop/internal/log"
	"clothshop/internal/session"
)

const sidCookie = "sid"

func ensureSID(c *fiber.Ctx) string {
	sid := c.Cookies(sidCookie)
	if _, err := uuid.Parse(sid); err != nil {
		sid = uuid.NewString()
		setSID(c, sid)
	}
	return sid
}

func setSID(c *fiber.Ctx, sid string) {
	c.Cookie(&fiber.Cookie{
		Name:     sidCookie,
		Value:    sid,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false,
		Expires:  time.Now().Add(30 * 24 * time.Hour),
	})
}

// signInFresh runs start against a manager under a brand new sid, so an id
// the browser held before signing in never carries backend tokens. On
// success the browser moves to the new id and the old one is wiped.
func (b *Base) signInFresh(c *fiber.Ctx, start func(*session.Manager) error) error {
	ctx := c.UserContext()
	oldSID, _ := c.Locals("sid").(string)
	sid := uuid.NewString()
	mgr := b.Sessions.Get(ctx, sid)
	if err := start(mgr); err != nil {
		b.Sessions.Dispose(sid)
		return err
	}

	if old := sessionOf(c); old != nil && oldSID != "" {
		if err := old.Logout(ctx); err != nil {
			applog.Error(c, "session.rotate.clear", err, nil)
		}
		b.Sessions.Dispose(oldSID)
	}
	setSID(c, sid)
	c.Locals("sid", sid)
	c.Locals("session", mgr)
	applog.Info(c, "session.rotate", nil)
	return nil
}

func expireSID(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     sidCookie,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   false,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
}

// LoadSession attaches the browser's session manager, restoring it from
// storage on first sight, and exposes the signed-in user to templates.
func (b *Base) LoadSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := ensureSID(c)
		c.Locals("sid", sid)
		c.Locals("app_name", b.Cfg.AppName)
		mgr := b.Sessions.Get(c.UserContext(), sid)
		c.Locals("session", mgr)
		if b.Tracker != nil {
			if err := b.Tracker.Touch(c.UserContext(), sid, c.Get(fiber.HeaderUserAgent)); err != nil {
				applog.Error(c, "session.touch.fail", err, nil)
			}
		}
		if mgr.Authenticated() {
			u := mgr.User()
			c.Locals("user", &u)
			c.Locals("tenant", mgr.Tenant())
		}
		return c.Next()
	}
}

func sessionOf(c *fiber.Ctx) *session.Manager {
	mgr, _ := c.Locals("session").(*session.Manager)
	return mgr
}

func userOf(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}

// RequireSession enforces a signed-in backend session; otherwise redirect to login.
func RequireSession() fiber.Handler {
	return func(c *fiber.Ctx) error {
		mgr := sessionOf(c)
		if mgr == nil || !mgr.Authenticated() {
			return c.Redirect("/login")
		}
		return c.Next()
	}
}

// RequireOwner keeps salespeople out of owner pages.
func RequireOwner() fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := userOf(c)
		if u == nil {
			return c.Redirect("/login")
		}
		if !u.IsOwner() {
			applog.Security(c, "access.denied.owner", map[string]any{"user_id": u.ID, "role": u.Role})
			return render(c.Status(fiber.StatusForbidden), "error", fiber.Map{"Message": "Access denied"})
		}
		return c.Next()
	}
}
