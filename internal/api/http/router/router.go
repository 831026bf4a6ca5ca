package router

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/arvanehlab/ravan_backend/config"
	"github.com/arvanehlab/ravan_backend/internal/api/http/handler"
	"github.com/arvanehlab/ravan_backend/internal/api/http/middleware"
	"github.com/arvanehlab/ravan_backend/internal/escalation"
	"github.com/arvanehlab/ravan_backend/internal/onboarding"
	"github.com/arvanehlab/ravan_backend/internal/session"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg           *config.Config
	Redis         *redis.Client
	Sessions      *session.Manager
	EscalationSvc escalation.Service
	OnboardingSvc onboarding.Store
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

func (r *Router) Register(app *fiber.App) {
	// 1. Health & Metrics
	r.registerSystemRoutes(app)

	// 2. Initialize Middlewares
	authRequired := middleware.CredentialRequired()

	// 3. Initialize Handlers
	attemptH := handler.NewAttemptHandler(r.p.Sessions)
	escalationH := handler.NewEscalationHandler(r.p.Sessions, r.p.EscalationSvc)
	onboardingH := handler.NewOnboardingHandler(r.p.OnboardingSvc)

	api := app.Group("/api/v1")

	// 4. Delegate to sub-files
	r.registerAttemptRoutes(api, attemptH, authRequired)
	r.registerEscalationRoutes(api, escalationH, authRequired)
	r.registerOnboardingRoutes(api, onboardingH, authRequired)
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New(healthcheck.Config{
		// Not ready without the snapshot store.
		Probe: func(c fiber.Ctx) bool {
			return r.p.Redis.Ping(c.Context()).Err() == nil
		},
	}))
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Enabled && r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}
}
