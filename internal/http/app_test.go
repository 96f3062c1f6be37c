package handlers_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"clothshop/internal/apiclient"
	"clothshop/internal/backendfake"
	"clothshop/internal/config"
	"clothshop/internal/domain"
	"clothshop/internal/http/handlers"
	"clothshop/internal/repos/repofake"
	"clothshop/internal/services"
	"clothshop/internal/session"
	"clothshop/web"
)

const (
	ownerEmail  = "amna@lawnhouse.test"
	salesEmail  = "bilal@lawnhouse.test"
	password    = "Passw0rd!"
	lawnVariety = int64(1)
)

var (
	owner  = domain.User{ID: 1, Name: "Amna", Email: ownerEmail, Role: domain.RoleOwner}
	seller = domain.User{ID: 2, Name: "Bilal", Email: salesEmail, Role: domain.RoleSalesperson}
	shop   = domain.Tenant{ID: 7, Name: "Lawn House", BusinessName: "Lawn House Textiles"}
)

type testEnv struct {
	app     *fiber.App
	backend *backendfake.Server
	store   *repofake.MemoryStore
	reg     *session.Registry
}

// newTestApp wires the real routes against a fake backend. CSRF is left out;
// it is the caller's middleware and has its own check in main.
func newTestApp(t *testing.T) *testEnv {
	t.Helper()
	backend := backendfake.New()
	t.Cleanup(backend.Close)
	backend.AddAccount(ownerEmail, password, owner, shop)
	backend.AddAccount(salesEmail, password, seller, shop)
	backend.Seed(backendfake.Varieties, domain.Variety{ID: lawnVariety, Name: "Lawn", Unit: domain.UnitMeters, DefaultPrice: 450})

	store := repofake.NewMemoryStore()
	hc := backend.Client()
	auth := apiclient.NewAuth(backend.URL, hc)
	reg := session.NewRegistry(store, auth, session.Options{})

	base := &handlers.Base{
		Cfg:      config.Config{AppName: "Cloth Shop", APIBaseURL: backend.URL},
		Sessions: reg,
		HTTP:     hc,
	}
	deps := handlers.NewDeps(base, &services.AuthService{Auth: auth})

	app := fiber.New(fiber.Config{Views: web.NewEngine(), ErrorHandler: handlers.ErrorHandler})
	app.Use(requestid.New())
	handlers.Mount(app, deps)
	return &testEnv{app: app, backend: backend, store: store, reg: reg}
}

func newSID() string { return uuid.NewString() }

func get(t *testing.T, app *fiber.App, path, sid string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

func post(t *testing.T, app *fiber.App, path, sid string, form url.Values) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	return resp
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(b)
}

// signIn logs in through the page and returns the sid the browser is moved to.
func (e *testEnv) signIn(t *testing.T, email string) string {
	t.Helper()
	resp := post(t, e.app, "/login", newSID(), url.Values{"email": {email}, "password": {password}})
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("login %s: status %d", email, resp.StatusCode)
	}
	return issuedSID(t, resp)
}

// issuedSID is the sid cookie a sign-in handed out.
func issuedSID(t *testing.T, resp *http.Response) string {
	t.Helper()
	c, ok := extractCookie(resp, "sid")
	if !ok || c.Value == "" {
		t.Fatal("no sid cookie issued")
	}
	return c.Value
}

func extractCookie(resp *http.Response, name string) (*http.Cookie, bool) {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
