package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"twstock-dashboard/internal/labels"
	"twstock-dashboard/internal/models"
	"twstock-dashboard/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var validate = validator.New()

// StateQuery is the query string shared by the dashboard page and the JSON API.
type StateQuery struct {
	Ticker   string `query:"ticker"`
	Preset   string `query:"preset"`
	Start    string `query:"start" validate:"omitempty,datetime=2006-01-02"`
	End      string `query:"end" validate:"omitempty,datetime=2006-01-02"`
	Volume   bool   `query:"volume"`
	Forecast bool   `query:"forecast"`
	Holdout  int    `query:"holdout" validate:"gte=0,lte=5000"`
	Lang     string `query:"lang" validate:"omitempty,oneof=zh-TW en"`
}

// ParseState reads the query string into a DashboardState. Dates are taken
// as calendar days in the exchange's zone.
func ParseState(c *fiber.Ctx) (services.DashboardState, error) {
	var q StateQuery
	if err := c.QueryParser(&q); err != nil {
		return services.DashboardState{}, err
	}
	if err := validate.Struct(&q); err != nil {
		return services.DashboardState{}, err
	}
	state := services.DashboardState{
		Ticker:       q.Ticker,
		Preset:       q.Preset,
		WithVolume:   q.Volume,
		WithForecast: q.Forecast,
		Holdout:      q.Holdout,
		Lang:         q.Lang,
	}
	var err error
	if state.Start, err = models.ParseDay(q.Start); err != nil {
		return state, err
	}
	if state.End, err = models.ParseDay(q.End); err != nil {
		return state, err
	}
	return state, nil
}

type APIHandler struct {
	market     *services.MarketDataService
	forecaster *services.ForecastOrchestrator
	dashboard  *services.Dashboard
	timeout    time.Duration
}

func NewAPIHandler(market *services.MarketDataService, forecaster *services.ForecastOrchestrator, dashboard *services.Dashboard, timeout time.Duration) *APIHandler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &APIHandler{
		market:     market,
		forecaster: forecaster,
		dashboard:  dashboard,
		timeout:    timeout,
	}
}

// load parses the request and loads the :ticker path parameter. On failure it
// has already written the error response and returns a nil series.
func (h *APIHandler) load(ctx context.Context, c *fiber.Ctx) (*models.PriceSeries, services.DashboardState, error) {
	state, err := ParseState(c)
	if err != nil {
		return nil, state, c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Invalid query",
			Message: err.Error(),
			Code:    fiber.StatusBadRequest,
		})
	}
	state.Ticker = c.Params("ticker")
	state = h.dashboard.WithDefaults(state)

	series, err := h.market.Load(ctx, state.Ticker, state.Start, state.End)
	switch services.ClassifyLoad(series, err) {
	case services.OutcomeOK:
		return series, state, nil
	case services.OutcomeEmpty:
		return nil, state, c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{
			Error:   "No data",
			Message: fmt.Sprintf("no price data for %s between %s and %s", series.Ticker, series.Start, series.End),
			Code:    fiber.StatusNotFound,
		})
	case services.OutcomeInvalidSymbol:
		return nil, state, c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Invalid symbol",
			Message: err.Error(),
			Code:    fiber.StatusBadRequest,
		})
	case services.OutcomeInvalidInput:
		return nil, state, c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{
			Error:   "Invalid date range",
			Message: err.Error(),
			Code:    fiber.StatusBadRequest,
		})
	default:
		return nil, state, c.Status(fiber.StatusBadGateway).JSON(models.ErrorResponse{
			Error:   "Market data provider failed",
			Message: err.Error(),
			Code:    fiber.StatusBadGateway,
		})
	}
}

// GetSeries handles GET /v1/series/:ticker
func (h *APIHandler) GetSeries(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), h.timeout)
	defer cancel()

	series, _, err := h.load(ctx, c)
	if series == nil {
		return err
	}
	return c.JSON(models.SeriesResponse{Series: series, Count: series.Len()})
}

// GetSummary handles GET /v1/summary/:ticker
func (h *APIHandler) GetSummary(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), h.timeout)
	defer cancel()

	series, state, err := h.load(ctx, c)
	if series == nil {
		return err
	}
	l := labels.For(state.Lang)
	return c.JSON(models.SummaryResponse{
		Ticker:  series.Ticker,
		Count:   series.Len(),
		Summary: services.FormatSummary(services.Summarize(series), l),
	})
}

// GetChart handles GET /v1/chart/:ticker
func (h *APIHandler) GetChart(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), h.timeout)
	defer cancel()

	series, state, err := h.load(ctx, c)
	if series == nil {
		return err
	}
	l := labels.For(state.Lang)
	return c.JSON(services.RenderCandles(series, state.WithVolume, series.Ticker+" "+l.ChartSection, l))
}

// GetForecast handles GET /v1/forecast/:ticker
func (h *APIHandler) GetForecast(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), h.timeout)
	defer cancel()

	series, state, err := h.load(ctx, c)
	if series == nil {
		return err
	}

	result, err := h.forecaster.Forecast(ctx, series, state.Holdout)
	switch {
	case errors.Is(err, services.ErrInsufficientData):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(models.ErrorResponse{
			Error:   "Insufficient data",
			Message: err.Error(),
			Code:    fiber.StatusUnprocessableEntity,
		})
	case err != nil:
		return c.Status(fiber.StatusServiceUnavailable).JSON(models.ErrorResponse{
			Error:   "Forecast unavailable",
			Message: err.Error(),
			Code:    fiber.StatusServiceUnavailable,
		})
	}

	l := labels.For(state.Lang)
	return c.JSON(models.ForecastResponse{
		Result:     result,
		Forecast:   services.RenderForecast(result, l),
		Validation: services.RenderValidation(result, l),
	})
}

// Export handles GET /v1/export/:ticker
func (h *APIHandler) Export(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), h.timeout)
	defer cancel()

	series, state, err := h.load(ctx, c)
	if series == nil {
		return err
	}

	var buf bytes.Buffer
	if err := services.WriteWorkbook(&buf, series, labels.For(state.Lang)); err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	c.Attachment(fmt.Sprintf("%s_%s_%s.xlsx", series.Ticker, series.Start, series.End))
	c.Set(fiber.HeaderContentType, xlsxContentType)
	return c.Send(buf.Bytes())
}

// CustomErrorHandler handles Fiber errors
func CustomErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	return c.Status(code).JSON(models.ErrorResponse{
		Error:   "Request failed",
		Message: err.Error(),
		Code:    code,
	})
}
