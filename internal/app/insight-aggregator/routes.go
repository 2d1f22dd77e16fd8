// Package insightaggregator предоставляет маршруты для основного приложения.
package insightaggregator

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/insight-aggregator/internal/http/handlers/access/accesscheck"
	"github.com/magabrotheeeer/insight-aggregator/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/insight-aggregator/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/insight-aggregator/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/insight-aggregator/internal/http/handlers/catalog/cataloglist"
	"github.com/magabrotheeeer/insight-aggregator/internal/http/handlers/payment/paymentcreate"
	"github.com/magabrotheeeer/insight-aggregator/internal/http/handlers/payment/paymentwebhook"
	"github.com/magabrotheeeer/insight-aggregator/internal/http/handlers/report/reportlatest"
	"github.com/magabrotheeeer/insight-aggregator/internal/http/handlers/report/reportsynthesize"
	"github.com/magabrotheeeer/insight-aggregator/internal/http/handlers/wizard/wizardadvance"
	"github.com/magabrotheeeer/insight-aggregator/internal/http/handlers/wizard/wizardcancel"
	"github.com/magabrotheeeer/insight-aggregator/internal/http/handlers/wizard/wizardstart"
	"github.com/magabrotheeeer/insight-aggregator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/insight-aggregator/internal/identity"
	libjwt "github.com/magabrotheeeer/insight-aggregator/internal/lib/jwt"
	"github.com/magabrotheeeer/insight-aggregator/internal/paymentprovider"
	"github.com/magabrotheeeer/insight-aggregator/internal/report"
	"github.com/magabrotheeeer/insight-aggregator/internal/session"
	"github.com/magabrotheeeer/insight-aggregator/internal/wizard"
)

// Services — доменные сервисы, которыми пользуются обработчики.
type Services struct {
	Store          *session.Store
	Transitions    *session.Transitions
	Wizard         *wizard.Manager
	Orchestrator   *report.Orchestrator
	Identity       *identity.Service
	Maker          libjwt.Maker
	ProviderClient *paymentprovider.Client
	WebhookSecret  string
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, s.Identity, s.Transitions, s.Maker).ServeHTTP)
		r.Post("/login", login.New(logger, s.Identity, s.Store, s.Maker).ServeHTTP)
		r.Get("/catalog", cataloglist.New(logger).ServeHTTP)
		r.Get("/access/{capabilityID}", accesscheck.New(logger, s.Store, s.Maker).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Maker, s.Store, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/logout", logout.New(logger, s.Transitions).ServeHTTP)
			r.Post("/wizard/start", wizardstart.New(logger, s.Wizard, s.Store).ServeHTTP)
			r.Post("/wizard/advance", wizardadvance.New(logger, s.Wizard).ServeHTTP)
			r.Post("/wizard/cancel", wizardcancel.New(logger, s.Wizard).ServeHTTP)
			r.Post("/reports/synthesize", reportsynthesize.New(logger, s.Store, s.Wizard, s.Orchestrator).ServeHTTP)
			r.Get("/reports/latest", reportlatest.New(logger, s.Orchestrator).ServeHTTP)
			r.Post("/payments/create", paymentcreate.New(logger, s.ProviderClient, s.Transitions).ServeHTTP)
		})

		// Webhook endpoint (без аутентификации)
		r.Post("/payments/webhook", paymentwebhook.New(logger, s.Transitions, s.WebhookSecret).ServeHTTP)
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
