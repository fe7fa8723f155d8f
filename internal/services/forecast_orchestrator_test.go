package services

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twstock-dashboard/internal/models"
)

// recordingModeler predicts the last training value for every date and records what it saw.
type recordingModeler struct {
	fitCalls     int
	predictCalls int
	training     []models.Observation
	requested    []time.Time
	fitErr       error
	dropOne      bool
}

func (m *recordingModeler) Name() string { return "recording" }

func (m *recordingModeler) Fit(_ context.Context, training []models.Observation) (Model, error) {
	m.fitCalls++
	m.training = training
	if m.fitErr != nil {
		return nil, m.fitErr
	}
	return m, nil
}

func (m *recordingModeler) Predict(_ context.Context, dates []time.Time) ([]Prediction, error) {
	m.predictCalls++
	m.requested = dates
	last := m.training[len(m.training)-1].Value
	n := len(dates)
	if m.dropOne {
		n--
	}
	out := make([]Prediction, n)
	for i := range out {
		out[i] = Prediction{Yhat: last, Lower: last - 1, Upper: last + 1}
	}
	return out, nil
}

func TestForecast_InsufficientDataNeverCallsModel(t *testing.T) {
	for _, n := range []int{0, 1, 249, 250} {
		m := &recordingModeler{}
		o := NewForecastOrchestrator(m, 250, nil)

		result, err := o.Forecast(context.Background(), seriesOf("0050", tradingBars(n)), 250)
		assert.Nil(t, result)
		assert.ErrorIs(t, err, ErrInsufficientData, "n=%d", n)
		assert.Zero(t, m.fitCalls, "n=%d", n)
		assert.Zero(t, m.predictCalls, "n=%d", n)
	}
}

func TestForecast_SplitsAtHoldout0050(t *testing.T) {
	bars := tradingBars(300)
	m := &recordingModeler{}
	o := NewForecastOrchestrator(m, 250, nil)

	result, err := o.Forecast(context.Background(), seriesOf("0050", bars), 250)
	require.NoError(t, err)

	require.Len(t, m.training, 50)
	for i, obs := range m.training {
		assert.Equal(t, bars[i].Date, obs.Date)
		assert.Equal(t, bars[i].Close, obs.Value)
	}

	require.Len(t, m.requested, 250)
	require.Len(t, result.Points, 250)
	require.Len(t, result.Requested, 250)
	for i, p := range result.Points {
		assert.Equal(t, bars[50+i].Date, p.Date)
		assert.Equal(t, bars[50+i].Date, m.requested[i].Format(models.DateLayout))
		assert.Equal(t, bars[50+i].Close, p.Actual)
	}
	assert.Equal(t, 1, m.fitCalls)
	assert.Equal(t, 1, m.predictCalls)
	assert.Equal(t, "0050", result.Ticker)
	assert.Equal(t, 250, result.Holdout)
	assert.Greater(t, result.Metrics.MAE, 0.0)
	assert.GreaterOrEqual(t, result.Metrics.RMSE, result.Metrics.MAE)
}

func TestForecast_DefaultHoldout(t *testing.T) {
	m := &recordingModeler{}
	o := NewForecastOrchestrator(m, 20, nil)

	result, err := o.Forecast(context.Background(), seriesOf("2330", tradingBars(30)), 0)
	require.NoError(t, err)
	assert.Equal(t, 20, result.Holdout)
	assert.Len(t, m.training, 10)
}

func TestForecast_ModelFailuresAreUnavailable(t *testing.T) {
	series := seriesOf("0050", tradingBars(40))

	_, err := NewForecastOrchestrator(&recordingModeler{fitErr: errors.New("singular")}, 10, nil).
		Forecast(context.Background(), series, 10)
	assert.ErrorIs(t, err, ErrForecastUnavailable)

	_, err = NewForecastOrchestrator(&recordingModeler{dropOne: true}, 10, nil).
		Forecast(context.Background(), series, 10)
	assert.ErrorIs(t, err, ErrForecastUnavailable)
	assert.NotErrorIs(t, err, ErrInsufficientData)
}

func TestForecast_LocalModeler(t *testing.T) {
	o := NewForecastOrchestrator(NewLocalModeler(), 60, nil)
	result, err := o.Forecast(context.Background(), seriesOf("0050", tradingBars(300)), 60)
	require.NoError(t, err)

	assert.Equal(t, "additive", result.Model)
	require.Len(t, result.Points, 60)
	for _, p := range result.Points {
		assert.LessOrEqual(t, p.Lower, p.Predicted)
		assert.GreaterOrEqual(t, p.Upper, p.Predicted)
		// the synthetic trend is smooth, so predictions stay near the actuals
		assert.InDelta(t, p.Actual, p.Predicted, 5)
	}
}

func TestForecast_LocalModelerFitFailure(t *testing.T) {
	o := NewForecastOrchestrator(NewLocalModeler(), 4, nil)

	_, err := o.Forecast(context.Background(), seriesOf("0050", tradingBars(5)), 4)
	assert.ErrorIs(t, err, ErrForecastUnavailable, "one training row is too few to fit")
}

func TestRemoteModeler(t *testing.T) {
	var got remoteForecastRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/timeseries/forecast", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		type row struct {
			DS    string  `json:"ds"`
			Yhat  float64 `json:"yhat"`
			Lower float64 `json:"yhat_lower"`
			Upper float64 `json:"yhat_upper"`
		}
		rows := make([]row, len(got.Future))
		for i, ds := range got.Future {
			rows[i] = row{DS: ds, Yhat: float64(i), Lower: float64(i) - 1, Upper: float64(i) + 1}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"forecast": rows})
	}))
	defer srv.Close()

	bars := tradingBars(15)
	o := NewForecastOrchestrator(NewRemoteModeler(srv.URL+"/", "prophet", 5*time.Second), 5, nil)
	result, err := o.Forecast(context.Background(), seriesOf("0050", bars), 5)
	require.NoError(t, err)

	assert.Equal(t, "prophet", got.Model)
	assert.Len(t, got.Train, 10)
	assert.Equal(t, bars[0].Date, got.Train[0].Date)
	assert.Equal(t, bars[10].Date, got.Future[0])
	assert.Equal(t, "remote:prophet", result.Model)
	require.Len(t, result.Points, 5)
	assert.Equal(t, 4.0, result.Points[4].Predicted)
}

func TestRemoteModeler_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"model crashed"}`))
	}))
	defer srv.Close()

	o := NewForecastOrchestrator(NewRemoteModeler(srv.URL, "prophet", time.Second), 5, nil)
	_, err := o.Forecast(context.Background(), seriesOf("0050", tradingBars(15)), 5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForecastUnavailable)
	assert.Contains(t, err.Error(), "model crashed")
}

func TestValidationMetrics(t *testing.T) {
	m := validationMetrics([]models.ForecastPoint{
		{Predicted: 9, Actual: 10},
		{Predicted: 12, Actual: 10},
		{Predicted: 1, Actual: 0},
	})
	assert.InDelta(t, 4.0/3.0, m.MAE, 1e-12)
	assert.InDelta(t, math.Sqrt2, m.RMSE, 1e-12)
	assert.InDelta(t, 15.0, m.MAPE, 1e-12)
}
