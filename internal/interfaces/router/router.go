package router

import (
	"net/http"

	availsvc "clubhub-backend/internal/application/availability"
	bookingsvc "clubhub-backend/internal/application/booking"
	holdsvc "clubhub-backend/internal/application/holds"
	invsvc "clubhub-backend/internal/application/inventory"
	"clubhub-backend/internal/application/notifications"
	paysvc "clubhub-backend/internal/application/payments"
	ressvc "clubhub-backend/internal/application/reservations"
	"clubhub-backend/internal/clock"
	"clubhub-backend/internal/config"
	"clubhub-backend/internal/infrastructure/database"
	availhandler "clubhub-backend/internal/interfaces/handlers/availability"
	healthhandler "clubhub-backend/internal/interfaces/handlers/health"
	holdhandler "clubhub-backend/internal/interfaces/handlers/holds"
	invhandler "clubhub-backend/internal/interfaces/handlers/inventory"
	payhandler "clubhub-backend/internal/interfaces/handlers/payments"
	reshandler "clubhub-backend/internal/interfaces/handlers/reservations"
	"clubhub-backend/internal/middleware"
	"clubhub-backend/internal/pkg/constants"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// CreateApp builds the Fiber app with all middleware and routes wired.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
		DevPassword:   cfg.DevPassword,
	}))

	// Provider webhook is mounted before the session middleware: it carries no
	// session cookie and must see the raw body for signature verification.
	providerWebhook := &payhandler.WebhookHandler{WebhookSecret: cfg.WebhookSecret}
	app.Post("/api/v1/payments/webhooks/fake", func(c *fiber.Ctx) error {
		return providerWebhook.HandleWebhook(c)
	})

	sessionHandler, rdb, err := middleware.Session(middleware.SessionConfig{
		Secret:            cfg.SessionSecret,
		RedisURL:          cfg.RedisURL,
		AllowCrossSiteDev: cfg.AllowCrossSiteDev,
		IsProduction:      cfg.Env == "production",
	})
	if err != nil {
		return nil, nil, nil, err
	}
	app.Use(sessionHandler)
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.ResponseFormatter())
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	hh := &healthhandler.Handlers{
		Rdb:            rdb,
		DB:             nil,
		HealthAdminKey: cfg.HealthAdminKey,
	}
	app.Get("/health/json", hh.JSON)
	app.Get("/health/reset", hh.Reset)

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var errDB error
		db, errDB = database.Open(cfg.DatabaseURL)
		if errDB != nil {
			return nil, nil, nil, errDB
		}
		if errDB = database.AutoMigrate(db); errDB != nil {
			return nil, nil, nil, errDB
		}
		hh.DB = &gormDBPinger{db: db}
	}

	if db != nil {
		clk := clock.NewSystem()

		var provider paysvc.Provider
		if cfg.PaymentProvider == "stripe" {
			provider = paysvc.NewStripeProvider(cfg.StripeSecretKey)
		} else {
			provider = &paysvc.FakeProvider{}
		}

		var notifier notifications.Notifier
		if cfg.SendinblueAPIKey != "" {
			notifier = &notifications.BrevoClient{APIKey: cfg.SendinblueAPIKey, MailFrom: cfg.MailFrom}
		} else {
			notifier = notifications.LogNotifier{}
		}

		as := &availsvc.Service{DB: db, Clock: clk}
		hs := &holdsvc.Service{DB: db, Clock: clk, HoldTTL: cfg.HoldTTL}
		rs := &ressvc.Service{DB: db, Clock: clk, DefaultPrice: cfg.ReservationPrice, Currency: cfg.Currency}
		ps := &paysvc.Service{DB: db, Clock: clk, Provider: provider}
		orch := &bookingsvc.Orchestrator{Reservations: rs, Payments: ps, Notifier: notifier}
		is := &invsvc.Service{DB: db}

		providerWebhook.Service = ps
		providerWebhook.Orchestrator = orch

		avh := &availhandler.Handlers{Service: as}
		hdh := &holdhandler.Handlers{Service: hs}
		reh := &reshandler.Handlers{Service: rs, Orchestrator: orch}
		pyh := &payhandler.Handlers{Service: ps}
		inh := &invhandler.Handlers{Service: is}

		// Member self-service
		rg := app.Group("/api/v1/reservations", middleware.RequireAuth())
		rg.Get("/availability", avh.Check)
		rg.Post("/holds", hdh.Create)
		rg.Get("/holds/my", hdh.ListMy)
		rg.Get("/holds/:id", hdh.Get)
		rg.Post("/holds/:id/release", hdh.Release)
		rg.Post("/", reh.Create)
		rg.Get("/my", reh.ListMy)
		rg.Get("/:id", reh.Get)
		rg.Post("/:id/cancel", reh.Cancel)

		pg := app.Group("/api/v1/payments", middleware.RequireAuth())
		pg.Get("/my", pyh.ListMy)
		pg.Get("/transactions/:id", middleware.AuthorizeCapability(constants.ViewData), pyh.Get)

		// Management surface
		ag := app.Group("/api/v1/admin", middleware.RequireAuth())
		ag.Get("/reservations", middleware.AuthorizeCapability(constants.ManageReservations), reh.ListOrg)
		ag.Post("/reservations/override-create", middleware.AuthorizeCapability(constants.ManageReservations), reh.OverrideCreate)
		ag.Post("/reservations/:id/override-confirm", middleware.AuthorizeCapability(constants.ManageReservations), reh.OverrideConfirm)
		ag.Get("/resources", middleware.AuthorizeCapability(constants.ManageResources), inh.List)
		ag.Post("/resources", middleware.AuthorizeCapability(constants.ManageResources), inh.Create)
		ag.Patch("/resources/:id/status", middleware.AuthorizeCapability(constants.ManageResources), inh.UpdateStatus)
		ag.Post("/payments/:id/refund", middleware.AuthorizeCapability(constants.RefundPayments), pyh.Refund)
	}

	return app, db, rdb, nil
}

func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
