package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"twstock-dashboard/internal/config"
	"twstock-dashboard/internal/metrics"
	"twstock-dashboard/internal/models"
	"twstock-dashboard/pkg/additive"
)

var (
	// ErrInsufficientData means the series is not longer than the holdout; no model was called.
	ErrInsufficientData = errors.New("insufficient data to forecast")
	// ErrForecastUnavailable wraps any failure of the model itself.
	ErrForecastUnavailable = errors.New("forecast unavailable")
)

// DefaultHoldout is roughly one trading year.
const DefaultHoldout = 250

// Prediction is one model output value with its interval.
type Prediction struct {
	Yhat  float64 `json:"yhat"`
	Lower float64 `json:"yhat_lower"`
	Upper float64 `json:"yhat_upper"`
}

// Modeler fits a time-series model on a {date, value} training frame.
type Modeler interface {
	Name() string
	Fit(ctx context.Context, training []models.Observation) (Model, error)
}

// Model predicts one value per requested date, in request order.
type Model interface {
	Predict(ctx context.Context, dates []time.Time) ([]Prediction, error)
}

// LocalModeler fits pkg/additive in process.
type LocalModeler struct {
	Options additive.Options
}

func NewLocalModeler() *LocalModeler {
	return &LocalModeler{Options: additive.DefaultOptions()}
}

func (m *LocalModeler) Name() string { return "additive" }

func (m *LocalModeler) Fit(_ context.Context, training []models.Observation) (Model, error) {
	times := make([]time.Time, len(training))
	values := make([]float64, len(training))
	for i, o := range training {
		times[i] = o.Time
		values[i] = o.Value
	}
	fitted, err := additive.Fit(times, values, m.Options)
	if err != nil {
		return nil, err
	}
	return &localModel{fitted: fitted}, nil
}

type localModel struct {
	fitted *additive.Model
}

func (m *localModel) Predict(ctx context.Context, dates []time.Time) ([]Prediction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	preds := m.fitted.Predict(dates)
	out := make([]Prediction, len(preds))
	for i, p := range preds {
		out[i] = Prediction{Yhat: p.Yhat, Lower: p.Lower, Upper: p.Upper}
	}
	return out, nil
}

// RemoteModeler delegates fitting and prediction to an external forecasting
// service. The service fits and predicts in a single call, so Fit only keeps
// the training frame.
type RemoteModeler struct {
	client    *resty.Client
	baseURL   string
	modelName string
}

func NewRemoteModeler(baseURL, modelName string, timeout time.Duration) *RemoteModeler {
	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("Content-Type", "application/json")

	return &RemoteModeler{
		client:    client,
		baseURL:   strings.TrimRight(baseURL, "/"),
		modelName: modelName,
	}
}

func (m *RemoteModeler) Name() string { return "remote:" + m.modelName }

func (m *RemoteModeler) Fit(_ context.Context, training []models.Observation) (Model, error) {
	if len(training) < 2 {
		return nil, fmt.Errorf("remote model needs at least two observations, got %d", len(training))
	}
	return &remoteModel{modeler: m, training: training}, nil
}

type remoteForecastRequest struct {
	Model  string               `json:"model"`
	Train  []models.Observation `json:"train"`
	Future []string             `json:"future"`
}

type remoteForecastResponse struct {
	Forecast []struct {
		Date string `json:"ds"`
		Prediction
	} `json:"forecast"`
	Error string `json:"error,omitempty"`
}

type remoteModel struct {
	modeler  *RemoteModeler
	training []models.Observation
}

func (m *remoteModel) Predict(ctx context.Context, dates []time.Time) ([]Prediction, error) {
	req := remoteForecastRequest{
		Model:  m.modeler.modelName,
		Train:  m.training,
		Future: make([]string, len(dates)),
	}
	for i, d := range dates {
		req.Future[i] = d.Format(models.DateLayout)
	}

	var out remoteForecastResponse
	resp, err := m.modeler.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&out).
		Post(m.modeler.baseURL + "/v1/timeseries/forecast")
	if err != nil {
		return nil, fmt.Errorf("forecast service: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("forecast service returned %d: %s", resp.StatusCode(), out.Error)
	}

	preds := make([]Prediction, len(out.Forecast))
	for i, f := range out.Forecast {
		if i < len(req.Future) && f.Date != req.Future[i] {
			return nil, fmt.Errorf("forecast service answered %s for requested %s", f.Date, req.Future[i])
		}
		preds[i] = f.Prediction
	}
	return preds, nil
}

// NewModeler builds the modeler selected by cfg.Forecast.Mode.
func NewModeler(cfg *config.Config) (Modeler, error) {
	switch cfg.Forecast.Mode {
	case "", "local":
		return NewLocalModeler(), nil
	case "remote":
		return NewRemoteModeler(cfg.Forecast.ServiceURL, cfg.Forecast.ModelName, cfg.ForecastTimeout()), nil
	}
	return nil, fmt.Errorf("unknown forecast mode %q", cfg.Forecast.Mode)
}

// ForecastOrchestrator splits a series into a training prefix and a held-out
// suffix, then asks the modeler for predictions at the suffix's dates.
type ForecastOrchestrator struct {
	modeler        Modeler
	defaultHoldout int
	logger         *slog.Logger
}

func NewForecastOrchestrator(modeler Modeler, defaultHoldout int, logger *slog.Logger) *ForecastOrchestrator {
	if defaultHoldout <= 0 {
		defaultHoldout = DefaultHoldout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ForecastOrchestrator{
		modeler:        modeler,
		defaultHoldout: defaultHoldout,
		logger:         logger,
	}
}

func (o *ForecastOrchestrator) DefaultHoldout() int { return o.defaultHoldout }

// Forecast trains on all closes except the last holdout rows and predicts the
// dates of those rows. holdout <= 0 selects the default. When the series is
// not longer than holdout the modeler is never called.
func (o *ForecastOrchestrator) Forecast(ctx context.Context, series *models.PriceSeries, holdout int) (result *models.ForecastResult, err error) {
	if holdout <= 0 {
		holdout = o.defaultHoldout
	}
	name := o.modeler.Name()
	began := time.Now()
	defer func() {
		outcome := "ok"
		switch {
		case errors.Is(err, ErrInsufficientData):
			outcome = "insufficient_data"
		case err != nil:
			outcome = "unavailable"
		}
		metrics.ForecastsTotal.WithLabelValues(name, outcome).Inc()
		if err == nil {
			metrics.ForecastDuration.WithLabelValues(name).Observe(time.Since(began).Seconds())
		}
	}()

	n := series.Len()
	if n <= holdout {
		return nil, fmt.Errorf("%w: %d rows, holdout %d", ErrInsufficientData, n, holdout)
	}

	split := n - holdout
	training := make([]models.Observation, split)
	for i, b := range series.Bars[:split] {
		training[i] = models.Observation{Date: b.Date, Time: barTime(b), Value: b.Close}
	}
	heldOut := series.Bars[split:]
	requested := make([]string, holdout)
	times := make([]time.Time, holdout)
	for i, b := range heldOut {
		requested[i] = b.Date
		times[i] = barTime(b)
	}

	model, err := o.modeler.Fit(ctx, training)
	if err != nil {
		return nil, fmt.Errorf("%w: fit: %v", ErrForecastUnavailable, err)
	}
	preds, err := model.Predict(ctx, times)
	if err != nil {
		return nil, fmt.Errorf("%w: predict: %v", ErrForecastUnavailable, err)
	}
	if len(preds) != holdout {
		return nil, fmt.Errorf("%w: model returned %d predictions for %d dates", ErrForecastUnavailable, len(preds), holdout)
	}

	points := make([]models.ForecastPoint, holdout)
	for i, p := range preds {
		if !finite(p.Yhat) || !finite(p.Lower) || !finite(p.Upper) {
			return nil, fmt.Errorf("%w: non-finite prediction for %s", ErrForecastUnavailable, requested[i])
		}
		points[i] = models.ForecastPoint{
			Date:      requested[i],
			Time:      times[i],
			Predicted: p.Yhat,
			Lower:     p.Lower,
			Upper:     p.Upper,
			Actual:    heldOut[i].Close,
		}
	}

	result = &models.ForecastResult{
		Ticker:    series.Ticker,
		Model:     name,
		Holdout:   holdout,
		Training:  training,
		Requested: requested,
		Points:    points,
		Metrics:   validationMetrics(points),
	}
	o.logger.Info("forecast complete",
		"ticker", series.Ticker,
		"model", name,
		"train_rows", split,
		"holdout", holdout,
		"mae", result.Metrics.MAE)
	return result, nil
}

// validationMetrics compares predictions with the withheld closes. MAPE skips zero actuals.
func validationMetrics(points []models.ForecastPoint) models.ValidationMetrics {
	if len(points) == 0 {
		return models.ValidationMetrics{}
	}
	var absSum, sqSum, pctSum float64
	pctN := 0
	for _, p := range points {
		e := p.Actual - p.Predicted
		absSum += math.Abs(e)
		sqSum += e * e
		if p.Actual != 0 {
			pctSum += math.Abs(e / p.Actual)
			pctN++
		}
	}
	n := float64(len(points))
	m := models.ValidationMetrics{
		MAE:  absSum / n,
		RMSE: math.Sqrt(sqSum / n),
	}
	if pctN > 0 {
		m.MAPE = 100 * pctSum / float64(pctN)
	}
	return m
}

// barTime falls back to parsing Date for bars built without a Time.
func barTime(b models.PriceBar) time.Time {
	if !b.Time.IsZero() {
		return b.Time
	}
	t, err := time.Parse(models.DateLayout, b.Date)
	if err != nil {
		return b.Time
	}
	return t
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
