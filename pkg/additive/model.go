// Package additive fits a decomposable time-series regression:
//
//	y(t) = trend(t) + yearly(t) + weekly(t) + noise
//
// The trend is piecewise linear with evenly spaced changepoints in the early
// part of the history; seasonal terms are Fourier series. All coefficients are
// estimated jointly by ridge-penalised least squares.
package additive

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

var (
	ErrTooFewObservations = errors.New("additive: at least two observations are required")
	ErrNonFinite          = errors.New("additive: observations must be finite")
)

const (
	day        = 24 * time.Hour
	yearPeriod = 365.25
	weekPeriod = 7.0
)

type Options struct {
	Changepoints       int     // maximum number of trend changepoints
	ChangepointRange   float64 // fraction of the history that may hold changepoints
	YearlyOrder        int     // 0 disables yearly seasonality
	WeeklyOrder        int     // 0 disables weekly seasonality
	IntervalWidth      float64 // e.g. 0.95
	ChangepointPenalty float64
	SeasonalityPenalty float64
}

func DefaultOptions() Options {
	return Options{
		Changepoints:       25,
		ChangepointRange:   0.8,
		YearlyOrder:        10,
		WeeklyOrder:        3,
		IntervalWidth:      0.95,
		ChangepointPenalty: 10,
		SeasonalityPenalty: 0.1,
	}
}

// Prediction is one forecast value with its uncertainty interval.
type Prediction struct {
	Time  time.Time
	Yhat  float64
	Lower float64
	Upper float64
}

type Model struct {
	opts        Options
	origin      time.Time
	span        float64 // history length in days, used to scale t into [0, 1]
	yScale      float64
	changepoint []float64
	yearly      bool
	weekly      bool
	beta        []float64
	sigma       float64 // residual standard deviation in original units
	z           float64
}

// Fit estimates a model from parallel slices of times and values.
func Fit(times []time.Time, values []float64, opts Options) (*Model, error) {
	if len(times) != len(values) {
		return nil, fmt.Errorf("additive: %d times but %d values", len(times), len(values))
	}
	n := len(values)
	if n < 2 {
		return nil, ErrTooFewObservations
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, ErrNonFinite
		}
	}

	first, last := times[0], times[0]
	for _, t := range times {
		if t.Before(first) {
			first = t
		}
		if t.After(last) {
			last = t
		}
	}

	m := &Model{opts: opts, origin: first}
	m.span = last.Sub(first).Hours() / 24
	if m.span <= 0 {
		m.span = 1
	}

	m.yScale = 0
	for _, v := range values {
		m.yScale = math.Max(m.yScale, math.Abs(v))
	}
	if m.yScale == 0 {
		m.yScale = 1
	}

	// Seasonalities are only identifiable with enough history at a fine enough spacing.
	m.yearly = opts.YearlyOrder > 0 && m.span >= 2*yearPeriod
	m.weekly = opts.WeeklyOrder > 0 && m.span >= 2*weekPeriod && m.span/float64(n-1) < weekPeriod

	k := opts.Changepoints
	if limit := int(opts.ChangepointRange*float64(n)) - 1; k > limit {
		k = limit
	}
	for j := 1; j <= k; j++ {
		m.changepoint = append(m.changepoint, opts.ChangepointRange*float64(j)/float64(k+1))
	}

	p := m.width()
	x := mat.NewDense(n, p, nil)
	y := mat.NewVecDense(n, nil)
	for i := range times {
		x.SetRow(i, m.features(times[i]))
		y.SetVec(i, values[i]/m.yScale)
	}

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	for i, pen := range m.penalties() {
		xtx.Set(i, i, xtx.At(i, i)+pen)
	}
	var xty mat.VecDense
	xty.MulVec(x.T(), y)

	var beta mat.VecDense
	if err := beta.SolveVec(&xtx, &xty); err != nil {
		return nil, fmt.Errorf("additive: solve: %w", err)
	}
	m.beta = make([]float64, p)
	for i := range m.beta {
		m.beta[i] = beta.AtVec(i)
	}

	var ssr float64
	for i := range times {
		r := values[i] - m.predict(times[i])
		ssr += r * r
	}
	m.sigma = math.Sqrt(ssr / float64(n))

	width := opts.IntervalWidth
	if width <= 0 || width >= 1 {
		width = 0.95
	}
	m.z = distuv.UnitNormal.Quantile(0.5 + width/2)
	return m, nil
}

// Predict evaluates the model at each time, in the given order.
func (m *Model) Predict(times []time.Time) []Prediction {
	out := make([]Prediction, len(times))
	for i, t := range times {
		yhat := m.predict(t)
		out[i] = Prediction{
			Time:  t,
			Yhat:  yhat,
			Lower: yhat - m.z*m.sigma,
			Upper: yhat + m.z*m.sigma,
		}
	}
	return out
}

// Sigma returns the in-sample residual standard deviation.
func (m *Model) Sigma() float64 { return m.sigma }

func (m *Model) predict(t time.Time) float64 {
	f := m.features(t)
	var s float64
	for i, v := range f {
		s += v * m.beta[i]
	}
	return s * m.yScale
}

func (m *Model) width() int {
	p := 2 + len(m.changepoint)
	if m.yearly {
		p += 2 * m.opts.YearlyOrder
	}
	if m.weekly {
		p += 2 * m.opts.WeeklyOrder
	}
	return p
}

// features lays out: intercept, slope, changepoint hinges, yearly pairs, weekly pairs.
func (m *Model) features(t time.Time) []float64 {
	f := make([]float64, 0, m.width())
	ts := t.Sub(m.origin).Hours() / 24 / m.span
	f = append(f, 1, ts)
	for _, c := range m.changepoint {
		f = append(f, math.Max(0, ts-c))
	}
	days := float64(t.Unix()) / day.Seconds()
	if m.yearly {
		f = appendFourier(f, days, yearPeriod, m.opts.YearlyOrder)
	}
	if m.weekly {
		f = appendFourier(f, days, weekPeriod, m.opts.WeeklyOrder)
	}
	return f
}

func (m *Model) penalties() []float64 {
	pen := make([]float64, 0, m.width())
	// a tiny ridge on the unpenalised terms keeps degenerate designs solvable
	pen = append(pen, 1e-9, 1e-9)
	for range m.changepoint {
		pen = append(pen, m.opts.ChangepointPenalty)
	}
	seasonal := 0
	if m.yearly {
		seasonal += 2 * m.opts.YearlyOrder
	}
	if m.weekly {
		seasonal += 2 * m.opts.WeeklyOrder
	}
	for i := 0; i < seasonal; i++ {
		pen = append(pen, m.opts.SeasonalityPenalty)
	}
	return pen
}

func appendFourier(f []float64, days, period float64, order int) []float64 {
	for k := 1; k <= order; k++ {
		arg := 2 * math.Pi * float64(k) * days / period
		f = append(f, math.Sin(arg), math.Cos(arg))
	}
	return f
}
