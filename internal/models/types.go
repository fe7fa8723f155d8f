package models

import (
	"errors"
	"math"
	"time"
)

// ErrUnknownSymbol is returned by providers when the exchange does not know the symbol.
var ErrUnknownSymbol = errors.New("unknown symbol")

// DateLayout is the calendar-date form used for every PriceBar.Date.
const DateLayout = "2006-01-02"

// ExchangeZone is the Taiwan exchange's zone (UTC+8, no DST). Calendar days
// for queries and bars are always taken here.
var ExchangeZone = time.FixedZone("CST", 8*3600)

// ParseDay parses a YYYY-MM-DD calendar day as midnight in ExchangeZone.
// An empty string yields the zero time.
func ParseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(DateLayout, s, ExchangeZone)
}

// Today is the calendar day containing t in ExchangeZone, at midnight.
func Today(t time.Time) time.Time {
	y, m, d := t.In(ExchangeZone).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, ExchangeZone)
}

// Column identifies one numeric column of a price series.
type Column string

const (
	ColOpen     Column = "open"
	ColHigh     Column = "high"
	ColLow      Column = "low"
	ColClose    Column = "close"
	ColAdjClose Column = "adj_close"
	ColVolume   Column = "volume"
)

// NumericColumns lists the numeric columns in display order.
var NumericColumns = []Column{ColOpen, ColHigh, ColLow, ColClose, ColAdjClose, ColVolume}

// PriceBar is one trading day of a single ticker.
type PriceBar struct {
	Date     string    `json:"date"`
	Time     time.Time `json:"-"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adj_close"`
	Volume   int64     `json:"volume"`
}

// Value returns the bar's value for a numeric column.
func (b PriceBar) Value(c Column) float64 {
	switch c {
	case ColOpen:
		return b.Open
	case ColHigh:
		return b.High
	case ColLow:
		return b.Low
	case ColClose:
		return b.Close
	case ColAdjClose:
		return b.AdjClose
	case ColVolume:
		return float64(b.Volume)
	}
	return math.NaN()
}

// Up reports whether the bar closed at or above its open.
func (b PriceBar) Up() bool { return b.Close >= b.Open }

// PriceSeries is the chronologically ordered history of one ticker over [Start, End].
type PriceSeries struct {
	Ticker    string     `json:"ticker"`
	Symbol    string     `json:"symbol"`
	Source    string     `json:"source"`
	Start     string     `json:"start"`
	End       string     `json:"end"`
	Bars      []PriceBar `json:"bars"`
	FetchedAt time.Time  `json:"fetched_at"`
}

func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

func (s *PriceSeries) Empty() bool { return s.Len() == 0 }

// Head returns up to the first n bars.
func (s *PriceSeries) Head(n int) []PriceBar {
	if n > s.Len() {
		n = s.Len()
	}
	if n <= 0 {
		return nil
	}
	return s.Bars[:n]
}

// Tail returns up to the last n bars.
func (s *PriceSeries) Tail(n int) []PriceBar {
	if n > s.Len() {
		n = s.Len()
	}
	if n <= 0 {
		return nil
	}
	return s.Bars[s.Len()-n:]
}

// Column extracts one numeric column.
func (s *PriceSeries) Column(c Column) []float64 {
	out := make([]float64, s.Len())
	for i := 0; i < s.Len(); i++ {
		out[i] = s.Bars[i].Value(c)
	}
	return out
}

// Dates returns the date strings of every bar.
func (s *PriceSeries) Dates() []string {
	out := make([]string, s.Len())
	for i := 0; i < s.Len(); i++ {
		out[i] = s.Bars[i].Date
	}
	return out
}

// ColumnSummary holds descriptive statistics of one column. Undefined values are NaN.
type ColumnSummary struct {
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	P25    float64
	Median float64
	P75    float64
	Max    float64
}

// Stat names one row of a summary table.
type Stat string

const (
	StatCount  Stat = "count"
	StatMean   Stat = "mean"
	StatStd    Stat = "std"
	StatMin    Stat = "min"
	StatP25    Stat = "25%"
	StatMedian Stat = "50%"
	StatP75    Stat = "75%"
	StatMax    Stat = "max"
)

// SummaryStats lists the summary rows in display order.
var SummaryStats = []Stat{StatCount, StatMean, StatStd, StatMin, StatP25, StatMedian, StatP75, StatMax}

// Get returns the value of a stat row.
func (c ColumnSummary) Get(s Stat) float64 {
	switch s {
	case StatCount:
		return float64(c.Count)
	case StatMean:
		return c.Mean
	case StatStd:
		return c.Std
	case StatMin:
		return c.Min
	case StatP25:
		return c.P25
	case StatMedian:
		return c.Median
	case StatP75:
		return c.P75
	case StatMax:
		return c.Max
	}
	return math.NaN()
}

// SummaryStatistics is derived from a PriceSeries on every render.
type SummaryStatistics struct {
	Columns []Column
	Stats   map[Column]ColumnSummary
}

// Table is a display-ready grid of strings.
type Table struct {
	Header []string   `json:"header"`
	Rows   []TableRow `json:"rows"`
}

type TableRow struct {
	Label string   `json:"label"`
	Cells []string `json:"cells"`
}

// Observation is one {date, value} row of a training frame.
type Observation struct {
	Date  string    `json:"ds"`
	Time  time.Time `json:"-"`
	Value float64   `json:"y"`
}

// ForecastPoint is the model output for one held-out date.
type ForecastPoint struct {
	Date      string    `json:"date"`
	Time      time.Time `json:"-"`
	Predicted float64   `json:"predicted"`
	Lower     float64   `json:"lower"`
	Upper     float64   `json:"upper"`
	Actual    float64   `json:"actual"`
}

// ValidationMetrics compares predictions with the withheld actual values.
type ValidationMetrics struct {
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	MAPE float64 `json:"mape"`
}

// ForecastResult is the output of one forecast run.
type ForecastResult struct {
	Ticker    string            `json:"ticker"`
	Model     string            `json:"model"`
	Holdout   int               `json:"holdout"`
	Training  []Observation     `json:"training"`
	Requested []string          `json:"requested"`
	Points    []ForecastPoint   `json:"points"`
	Metrics   ValidationMetrics `json:"metrics"`
}

// SeriesResponse is returned by GET /v1/series/:ticker.
type SeriesResponse struct {
	Series *PriceSeries `json:"series"`
	Count  int          `json:"count"`
}

// SummaryResponse is returned by GET /v1/summary/:ticker.
type SummaryResponse struct {
	Ticker  string `json:"ticker"`
	Count   int    `json:"count"`
	Summary Table  `json:"summary"`
}

// ForecastResponse is returned by GET /v1/forecast/:ticker.
type ForecastResponse struct {
	Result     *ForecastResult `json:"result"`
	Forecast   Figure          `json:"forecast_figure"`
	Validation Figure          `json:"validation_figure"`
}

// ErrorResponse represents API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}
