package additive

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dailyTimes(start time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

func TestFit_LinearTrendExtrapolates(t *testing.T) {
	start := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	times := dailyTimes(start, 400)
	values := make([]float64, len(times))
	for i := range values {
		values[i] = 100 + 0.5*float64(i)
	}

	m, err := Fit(times, values, DefaultOptions())
	require.NoError(t, err)

	future := dailyTimes(start.AddDate(0, 0, 400), 10)
	preds := m.Predict(future)
	require.Len(t, preds, 10)
	for i, p := range preds {
		want := 100 + 0.5*float64(400+i)
		assert.InDelta(t, want, p.Yhat, 0.05)
		assert.Equal(t, future[i], p.Time)
		assert.LessOrEqual(t, p.Lower, p.Yhat)
		assert.GreaterOrEqual(t, p.Upper, p.Yhat)
	}
}

func TestFit_WeeklySeasonality(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	times := dailyTimes(start, 70)
	wave := func(ts time.Time) float64 {
		days := float64(ts.Unix()) / 86400
		return 10 + 3*math.Sin(2*math.Pi*days/7)
	}
	values := make([]float64, len(times))
	for i, ts := range times {
		values[i] = wave(ts)
	}

	m, err := Fit(times, values, DefaultOptions())
	require.NoError(t, err)

	for _, p := range m.Predict(dailyTimes(start.AddDate(0, 0, 70), 7)) {
		assert.InDelta(t, wave(p.Time), p.Yhat, 0.2)
	}
}

func TestFit_IntervalCoversNoise(t *testing.T) {
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	times := dailyTimes(start, 200)
	values := make([]float64, len(times))
	for i := range values {
		values[i] = 50
		if i%2 == 0 {
			values[i] += 1
		} else {
			values[i] -= 1
		}
	}

	m, err := Fit(times, values, DefaultOptions())
	require.NoError(t, err)
	assert.Greater(t, m.Sigma(), 0.0)

	p := m.Predict([]time.Time{start.AddDate(0, 0, 200)})[0]
	assert.InDelta(t, p.Upper-p.Yhat, p.Yhat-p.Lower, 1e-9)
	assert.InDelta(t, 1.96*m.Sigma(), p.Upper-p.Yhat, 0.01)
}

func TestFit_Errors(t *testing.T) {
	now := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	_, err := Fit([]time.Time{now}, []float64{1}, DefaultOptions())
	assert.ErrorIs(t, err, ErrTooFewObservations)

	_, err = Fit(dailyTimes(now, 3), []float64{1, math.NaN(), 2}, DefaultOptions())
	assert.ErrorIs(t, err, ErrNonFinite)

	_, err = Fit(dailyTimes(now, 3), []float64{1, 2}, DefaultOptions())
	assert.Error(t, err)
}

func TestFit_ConstantSeries(t *testing.T) {
	now := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	m, err := Fit(dailyTimes(now, 5), []float64{0, 0, 0, 0, 0}, DefaultOptions())
	require.NoError(t, err)
	p := m.Predict([]time.Time{now.AddDate(0, 0, 5)})[0]
	assert.InDelta(t, 0, p.Yhat, 1e-6)
}
