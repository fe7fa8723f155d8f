package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"twstock-dashboard/internal/services"
)

type DashboardHandler struct {
	dashboard *services.Dashboard
	timeout   time.Duration
}

func NewDashboardHandler(dashboard *services.Dashboard, timeout time.Duration) *DashboardHandler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &DashboardHandler{dashboard: dashboard, timeout: timeout}
}

// Index handles GET /. Every request re-runs the whole pipeline from the query string.
func (h *DashboardHandler) Index(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), h.timeout)
	defer cancel()

	state, err := ParseState(c)
	if err != nil {
		view := h.dashboard.Reject(services.DashboardState{
			Ticker: c.Query("ticker"),
			Preset: c.Query("preset"),
			Lang:   c.Query("lang"),
		})
		c.Set("X-Run-ID", view.RunID)
		return c.Status(fiber.StatusBadRequest).Render("index", fiber.Map{"View": view})
	}

	view := h.dashboard.Render(ctx, state)
	c.Set("X-Run-ID", view.RunID)
	return c.Render("index", fiber.Map{"View": view})
}
