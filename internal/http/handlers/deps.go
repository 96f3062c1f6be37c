package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"clothshop/internal/apiclient"
	"clothshop/internal/config"
	"clothshop/internal/services"
	"clothshop/internal/session"
	"clothshop/internal/shopapi"
)

// SessionTracker remembers when a browser session was last seen.
type SessionTracker interface {
	Touch(ctx context.Context, sid, userAgent string) error
}

// Base is what every handler needs to reach the backend on behalf of the
// current browser session.
type Base struct {
	Cfg      config.Config
	Sessions *session.Registry
	HTTP     *http.Client
	Tracker  SessionTracker
	Now      func() time.Time
}

// api builds the repositories bound to this request's session.
func (b *Base) api(c *fiber.Ctx) *shopapi.API {
	return shopapi.New(apiclient.New(b.Cfg.APIBaseURL, b.HTTP, sessionOf(c)))
}

func (b *Base) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

type Deps struct {
	Base *Base

	AuthHandler      *AuthHandler
	DashboardHandler *DashboardHandler
	SalesHandler     *SalesHandler
	InventoryHandler *InventoryHandler
	StockHandler     *StockHandler
	LoanHandler      *LoanHandler
	SupplierHandler  *SupplierHandler
	ExpenseHandler   *ExpenseHandler
	AssistantHandler *AssistantHandler
	VoiceHandler     *VoiceHandler
}

func NewDeps(base *Base, auth *services.AuthService) *Deps {
	return &Deps{
		Base:             base,
		AuthHandler:      &AuthHandler{Base: base, Auth: auth},
		DashboardHandler: &DashboardHandler{Base: base},
		SalesHandler:     &SalesHandler{Base: base},
		InventoryHandler: &InventoryHandler{Base: base},
		StockHandler:     &StockHandler{Base: base},
		LoanHandler:      &LoanHandler{Base: base},
		SupplierHandler:  &SupplierHandler{Base: base},
		ExpenseHandler:   &ExpenseHandler{Base: base},
		AssistantHandler: &AssistantHandler{Base: base},
		VoiceHandler:     &VoiceHandler{Base: base},
	}
}
