package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/request-analytics/internal/api/http/handlers"
	"github.com/spec-kit/request-analytics/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Validation     *handlers.ValidationHandler
	Users          *handlers.UsersHandler
	Auth           *handlers.AuthHandler
	Analytics      *handlers.AnalyticsHandler
	AuthMiddleware *auth.AuthMiddleware

	// Gatherer is served on MetricsPath; nil disables the endpoint.
	Gatherer    prometheus.Gatherer
	MetricsPath string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/", cfg.Health.Root)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	validate := app.Group("/validate")
	validate.Post("/email", cfg.Validation.Email)
	validate.Post("/password", cfg.Validation.Password)
	validate.Post("/username", cfg.Validation.Username)

	app.Get("/users/:id", cfg.Users.Get)

	authGroup := app.Group("/auth")
	authGroup.Post("/operator/login", cfg.Auth.OperatorLogin)

	analyticsGroup := app.Group("/analytics", cfg.AuthMiddleware.Handle, auth.RequireOperator())
	analyticsGroup.Get("/report", cfg.Analytics.Report)
	analyticsGroup.Get("/anomalies", cfg.Analytics.Anomalies)
	analyticsGroup.Get("/errors", cfg.Analytics.Errors)

	if cfg.Gatherer != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}
}
