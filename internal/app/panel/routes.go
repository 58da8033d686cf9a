package panel

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/magabrotheeeer/reseller-panel/docs"
	"github.com/magabrotheeeer/reseller-panel/internal/config"
	"github.com/magabrotheeeer/reseller-panel/internal/http/handlers/account"
	"github.com/magabrotheeeer/reseller-panel/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/reseller-panel/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/reseller-panel/internal/http/handlers/client"
	"github.com/magabrotheeeer/reseller-panel/internal/http/handlers/health"
	"github.com/magabrotheeeer/reseller-panel/internal/http/handlers/payment/webhook"
	"github.com/magabrotheeeer/reseller-panel/internal/http/handlers/plan"
	"github.com/magabrotheeeer/reseller-panel/internal/http/handlers/server"
	"github.com/magabrotheeeer/reseller-panel/internal/http/handlers/snapshot"
	"github.com/magabrotheeeer/reseller-panel/internal/http/middlewarectx"
)

// RegisterRoutes регистрирует все маршруты API.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, svc Services, gatherer prometheus.Gatherer) {
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	limiter := middlewarectx.NewLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)

	accounts := account.New(logger, svc.Accounts, svc.Ledger, svc.Syncer)
	plans := plan.New(logger, svc.Plans, svc.Syncer)
	servers := server.New(logger, svc.Servers, svc.Syncer)
	clients := client.New(logger, svc.Clients, svc.Accounts, svc.Syncer)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые маршруты
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger, limiter))
			r.Post("/signup", register.New(logger, svc.Accounts).ServeHTTP)
			r.Post("/login", login.New(logger, svc.Accounts).ServeHTTP)
		})
		r.Get("/health", health.New(logger, svc.DB).ServeHTTP)
		r.Post("/payments/webhook", webhook.New(logger, svc.Accounts, cfg.Payment.WebhookSecret).ServeHTTP)

		// Маршруты с JWT
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(svc.Tokens, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger, limiter))
			r.Use(middlewarectx.SubscriptionStatusMiddleware(logger, svc.Accounts))

			r.Get("/snapshot", snapshot.New(logger, svc.Syncer).ServeHTTP)

			r.Get("/accounts", accounts.List)
			r.Post("/accounts", accounts.Create)
			r.Get("/accounts/me", accounts.Me)
			r.Post("/accounts/{id}/credits", accounts.AdjustCredits)

			r.Get("/plans", plans.List)
			r.Post("/plans", plans.Create)
			r.Get("/plans/{id}", plans.Get)
			r.Put("/plans/{id}", plans.Update)
			r.Delete("/plans/{id}", plans.Delete)

			r.Get("/servers", servers.List)
			r.Post("/servers", servers.Create)
			r.Get("/servers/{id}", servers.Get)
			r.Delete("/servers/{id}", servers.Delete)

			r.Get("/clients", clients.List)
			r.Post("/clients", clients.Create)
			r.Get("/clients/export", clients.Export)
			r.Get("/clients/{id}", clients.Get)
			r.Put("/clients/{id}", clients.Update)
			r.Delete("/clients/{id}", clients.Delete)
			r.Post("/clients/{id}/renew", clients.Renew)
		})
	})

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
