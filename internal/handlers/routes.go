package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Register mounts every route on app.
func Register(app *fiber.App, api *APIHandler, dashboard *DashboardHandler, health *HealthHandler) {
	app.Get("/", dashboard.Index)

	app.Get("/health", health.Health)
	app.Get("/health/ready", health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API v1 routes
	v1 := app.Group("/v1")
	v1.Get("/series/:ticker", api.GetSeries)
	v1.Get("/summary/:ticker", api.GetSummary)
	v1.Get("/chart/:ticker", api.GetChart)
	v1.Get("/forecast/:ticker", api.GetForecast)
	v1.Get("/export/:ticker", api.Export)
}
