package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"twstock-dashboard/internal/labels"
	"twstock-dashboard/internal/metrics"
	"twstock-dashboard/internal/models"
	"twstock-dashboard/pkg/validation"
)

// DashboardState is everything the user controls. Each render starts from it alone.
type DashboardState struct {
	Ticker       string
	Preset       string
	Start        time.Time
	End          time.Time
	WithVolume   bool
	WithForecast bool
	Holdout      int
	Lang         string
}

// DashboardView is the fully computed page, in display order.
type DashboardView struct {
	RunID   string
	Labels  *labels.Set
	Presets []string
	State   DashboardState
	Ticker  string

	Status  LoadOutcome
	Message string

	// Series is the loaded history, set only when Status is OutcomeOK.
	Series *models.PriceSeries

	Head        models.Table
	Tail        models.Table
	Summary     models.Table
	Chart       *models.Figure
	Full        models.Table
	FullCaption string

	Forecast         *models.ForecastResult
	ForecastFigure   *models.Figure
	ValidationFigure *models.Figure
	ForecastMessage  string
}

// HasData reports whether the load produced rows to show.
func (v *DashboardView) HasData() bool { return v.Status == OutcomeOK }

type DashboardDefaults struct {
	Ticker  string
	Start   time.Time
	Presets []string
	Lang    string
}

// Dashboard runs load, summarize, chart and forecast for one request.
type Dashboard struct {
	market     *MarketDataService
	forecaster *ForecastOrchestrator
	defaults   DashboardDefaults
	logger     *slog.Logger
	now        func() time.Time
}

func NewDashboard(market *MarketDataService, forecaster *ForecastOrchestrator, defaults DashboardDefaults, logger *slog.Logger) *Dashboard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dashboard{
		market:     market,
		forecaster: forecaster,
		defaults:   defaults,
		logger:     logger,
		now:        time.Now,
	}
}

func (d *Dashboard) Defaults() DashboardDefaults { return d.defaults }

// ResolveTicker picks the explicit ticker, else the preset's code, else fallback.
func ResolveTicker(state DashboardState, fallback string) string {
	if t := strings.TrimSpace(state.Ticker); t != "" {
		return t
	}
	if p := strings.TrimSpace(state.Preset); p != "" {
		if code := validation.ExtractCode(p); code != "" {
			return code
		}
	}
	return fallback
}

// WithDefaults fills unset fields of state.
func (d *Dashboard) WithDefaults(state DashboardState) DashboardState {
	if state.Start.IsZero() {
		state.Start = d.defaults.Start
	}
	if state.End.IsZero() {
		state.End = models.Today(d.now())
	}
	if state.Lang == "" {
		state.Lang = d.defaults.Lang
	}
	if state.Holdout <= 0 && d.forecaster != nil {
		state.Holdout = d.forecaster.DefaultHoldout()
	}
	return state
}

// Reject builds the view for a request whose query could not be parsed.
// Nothing is loaded.
func (d *Dashboard) Reject(state DashboardState) *DashboardView {
	state = d.WithDefaults(state)
	l := labels.For(state.Lang)
	metrics.RendersTotal.WithLabelValues(string(OutcomeInvalidInput)).Inc()
	return &DashboardView{
		RunID:   uuid.NewString(),
		Labels:  l,
		Presets: d.defaults.Presets,
		State:   state,
		Ticker:  strings.ToUpper(ResolveTicker(state, d.defaults.Ticker)),
		Status:  OutcomeInvalidInput,
		Message: l.InvalidQuery,
	}
}

// Render computes the whole view from state.
func (d *Dashboard) Render(ctx context.Context, state DashboardState) *DashboardView {
	state = d.WithDefaults(state)
	l := labels.For(state.Lang)
	view := &DashboardView{
		RunID:   uuid.NewString(),
		Labels:  l,
		Presets: d.defaults.Presets,
		State:   state,
		Ticker:  strings.ToUpper(ResolveTicker(state, d.defaults.Ticker)),
	}
	logger := d.logger.With("run_id", view.RunID, "ticker", view.Ticker)

	series, err := d.market.Load(ctx, view.Ticker, state.Start, state.End)
	view.Status = ClassifyLoad(series, err)
	view.Message = loadMessage(view.Status, l)
	metrics.RendersTotal.WithLabelValues(string(view.Status)).Inc()
	if err != nil {
		logger.Warn("dashboard load failed", "status", view.Status, "error", err)
	}
	if view.Status != OutcomeOK {
		return view
	}

	view.Series = series
	view.Head = FormatBars(series.Head(5), l)
	view.Tail = FormatBars(series.Tail(5), l)
	view.Summary = FormatSummary(Summarize(series), l)
	chart := RenderCandles(series, state.WithVolume, fmt.Sprintf("%s %s", view.Ticker, l.ChartSection), l)
	view.Chart = &chart
	view.Full = FormatBars(series.Bars, l)
	view.FullCaption = fmt.Sprintf("%s: %s %s %s", l.FullData, series.Start, l.Through, series.End)

	if state.WithForecast && d.forecaster != nil {
		d.renderForecast(ctx, view, series, logger)
	}
	logger.Info("dashboard rendered", "rows", series.Len(), "forecast", view.Forecast != nil)
	return view
}

func (d *Dashboard) renderForecast(ctx context.Context, view *DashboardView, series *models.PriceSeries, logger *slog.Logger) {
	l := view.Labels
	result, err := d.forecaster.Forecast(ctx, series, view.State.Holdout)
	switch {
	case errors.Is(err, ErrInsufficientData):
		view.ForecastMessage = l.Insufficient
		return
	case err != nil:
		logger.Warn("forecast failed", "error", err)
		view.ForecastMessage = l.Unavailable
		return
	}
	view.Forecast = result
	fc := RenderForecast(result, l)
	val := RenderValidation(result, l)
	view.ForecastFigure = &fc
	view.ValidationFigure = &val
}

func loadMessage(status LoadOutcome, l *labels.Set) string {
	switch status {
	case OutcomeOK:
		return l.Loaded
	case OutcomeEmpty, OutcomeInvalidSymbol:
		return l.NotFound
	case OutcomeInvalidInput:
		return l.InvalidRange
	default:
		return l.FetchFailed
	}
}
