package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	serviceName = "twstock-dashboard"
	version     = "1.0.0"
)

type HealthHandler struct {
	startTime time.Time
	provider  string
	modeler   string
}

func NewHealthHandler(provider, modeler string) *HealthHandler {
	return &HealthHandler{
		startTime: time.Now(),
		provider:  provider,
		modeler:   modeler,
	}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"service": serviceName,
		"version": version,
		"uptime":  time.Since(h.startTime).String(),
		"time":    time.Now(),
	})
}

// Ready handles GET /health/ready. Nothing upstream is checked here: each request
// reaches the provider on its own.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ready",
		"checks": fiber.Map{
			"api":      "ok",
			"provider": h.provider,
			"forecast": h.modeler,
		},
	})
}
