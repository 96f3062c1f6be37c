package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"clothshop/internal/apiclient"
	"clothshop/internal/config"
	"clothshop/internal/http/handlers"
	applog "clothshop/internal/log"
	"clothshop/internal/repos"
	"clothshop/internal/repos/postgres"
	"clothshop/internal/services"
	"clothshop/internal/session"
	"clothshop/internal/telemetry"
	"clothshop/web"
)

// idleAfter matches the sid cookie lifetime; older sessions are forgotten.
const idleAfter = 30 * 24 * time.Hour

func main() {
	figure.NewFigure("Cloth Shop", "", true).Print()
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
			applog.SetOutput(mw)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry := telemetry.Setup("clothshop")
	defer func() { _ = shutdownTelemetry(context.Background()) }()

	// Session storage: sqlite by default, PostgreSQL when DB_DSN says so
	var (
		store   session.Store
		tracker handlers.SessionTracker
		binder  services.SessionBinder
		purge   func(ctx context.Context, before time.Time) (int, error)

		registry *session.Registry
	)
	if cfg.Postgres() {
		pg, err := postgres.Open(ctx, cfg.DBDSN)
		if err != nil {
			log.Fatal(err)
		}
		defer pg.Close()
		store = pg
		purge = func(ctx context.Context, before time.Time) (int, error) {
			n, err := pg.PurgeIdle(ctx, before)
			return int(n), err
		}
	} else {
		db, err := repos.OpenDB(cfg.DBDSN)
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()
		sessions := repos.NewSessionRepo(db)
		store = repos.NewStorageRepo(db)
		tracker, binder = sessions, sessions
		purge = func(ctx context.Context, before time.Time) (int, error) {
			ids, err := sessions.Idle(ctx, before)
			if err != nil {
				return 0, err
			}
			for _, sid := range ids {
				if err := sessions.Delete(ctx, sid); err != nil {
					return 0, err
				}
				registry.Dispose(sid)
			}
			return len(ids), nil
		}
	}

	// Backend wiring
	hc := telemetry.Client(cfg.APITimeout)
	auth := apiclient.NewAuth(cfg.APIBaseURL, hc)
	registry = session.NewRegistry(session.NewSealedStore(store, cfg.SessionSecret), auth, session.Options{
		DefaultTTL: cfg.AccessTokenTTL,
	})
	go registry.Run(ctx, cfg.RefreshCheckInterval, cfg.RefreshLeeway)
	go purgeIdle(ctx, registry, purge)

	base := &handlers.Base{Cfg: cfg, Sessions: registry, HTTP: hc, Tracker: tracker}
	deps := handlers.NewDeps(base, &services.AuthService{Auth: auth, Sessions: binder})

	// Templates & app
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		Views:        web.NewEngine(),
		ErrorHandler: handlers.ErrorHandler,
		// voice notes are the largest uploads
		BodyLimit: 12 << 20,
	})

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/static/")
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", nil)
			return c.Status(fiber.StatusForbidden).Render("error", fiber.Map{"Message": "Security check failed. Please refresh and try again."}, "layouts/main")
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})

	// ---------- Static assets ----------
	app.Use("/static", filesystem.New(filesystem.Config{Root: web.Static()}))

	// ---------- App handlers ----------
	handlers.Mount(app, deps)

	go func() {
		<-ctx.Done()
		log.Printf("[server] shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("[server] shutdown: %v", err)
		}
	}()

	log.Printf("[server] listening on :%s, backend %s", cfg.Port, cfg.APIBaseURL)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}

// purgeIdle forgets browser sessions nobody has used for idleAfter, once an hour.
func purgeIdle(ctx context.Context, reg *session.Registry, purge func(context.Context, time.Time) (int, error)) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := purge(ctx, time.Now().Add(-idleAfter))
			if err != nil {
				applog.Error(nil, "session.purge.fail", err, nil)
				continue
			}
			if n > 0 {
				applog.Info(nil, "session.purge", map[string]any{"removed": n, "live": reg.Len()})
			}
		}
	}
}
