package services

import (
	"twstock-dashboard/internal/labels"
	"twstock-dashboard/internal/models"
)

// Taiwan convention: rising days are red, falling days green.
const (
	colorUp        = "red"
	colorDown      = "green"
	colorPredicted = "#1f77b4"
	colorBand      = "rgba(31,119,180,0.2)"
	colorHidden    = "rgba(0,0,0,0)"
	colorActual    = "#ff7f0e"
	colorTraining  = "#444444"
)

var (
	priceDomain  = []float64{0.3, 1}
	volumeDomain = []float64{0, 0.25}
)

// RenderCandles builds a candlestick figure. With volume, a bar chart of
// daily volume sits below the candles and both share the single date axis.
func RenderCandles(series *models.PriceSeries, withVolume bool, title string, l *labels.Set) models.Figure {
	var bars []models.PriceBar
	if series != nil {
		bars = series.Bars
	}
	dates := series.Dates()

	candles := models.Trace{
		Type:       "candlestick",
		Name:       l.CandleName,
		X:          dates,
		Open:       series.Column(models.ColOpen),
		High:       series.Column(models.ColHigh),
		Low:        series.Column(models.ColLow),
		Close:      series.Column(models.ColClose),
		XAxis:      "x",
		YAxis:      "y",
		Increasing: &models.CandleSide{Line: models.Line{Color: colorUp}},
		Decreasing: &models.CandleSide{Line: models.Line{Color: colorDown}},
	}

	fig := models.Figure{
		Data: []models.Trace{candles},
		Layout: models.Layout{
			Title: models.Title{Text: title},
			XAxis: &models.Axis{
				Title:       models.Title{Text: l.Date},
				Type:        "date",
				RangeSlider: &models.RangeSlider{Visible: false},
			},
			YAxis:     &models.Axis{Title: models.Title{Text: l.Price}},
			HoverMode: "x",
		},
	}
	if !withVolume {
		return fig
	}

	colors := make([]string, len(bars))
	for i, b := range bars {
		colors[i] = barColor(b)
	}
	fig.Data = append(fig.Data, models.Trace{
		Type:   "bar",
		Name:   l.Column(models.ColVolume),
		X:      dates,
		Y:      series.Column(models.ColVolume),
		XAxis:  "x",
		YAxis:  "y2",
		Marker: &models.Marker{Colors: colors},
	})
	fig.Layout.XAxis.Anchor = "y2"
	fig.Layout.YAxis.Domain = priceDomain
	fig.Layout.YAxis2 = &models.Axis{
		Title:  models.Title{Text: l.Column(models.ColVolume)},
		Domain: volumeDomain,
		Anchor: "x",
	}
	fig.Layout.Height = 700
	return fig
}

func barColor(b models.PriceBar) string {
	if b.Up() {
		return colorUp
	}
	return colorDown
}

// RenderForecast plots the training actuals, the predicted line with its
// interval band and the held-out actuals on one date axis.
func RenderForecast(result *models.ForecastResult, l *labels.Set) models.Figure {
	trainX := make([]string, len(result.Training))
	trainY := make([]float64, len(result.Training))
	for i, o := range result.Training {
		trainX[i] = o.Date
		trainY[i] = o.Value
	}
	x, predicted, lower, upper, actual := pointColumns(result.Points)

	return models.Figure{
		Data: []models.Trace{
			{Type: "scatter", Mode: "lines", Name: l.Training, X: trainX, Y: trainY, Line: &models.Line{Color: colorTraining}},
			{Type: "scatter", Mode: "lines", Name: l.Interval, X: x, Y: lower, Line: &models.Line{Color: colorHidden}},
			{Type: "scatter", Mode: "lines", Name: l.Interval, X: x, Y: upper, Fill: "tonexty", Line: &models.Line{Color: colorHidden}, Marker: &models.Marker{Color: colorBand}},
			{Type: "scatter", Mode: "lines", Name: l.Predicted, X: x, Y: predicted, Line: &models.Line{Color: colorPredicted}},
			{Type: "scatter", Mode: "markers", Name: l.Actual, X: x, Y: actual, Marker: &models.Marker{Color: colorActual, Size: 4}},
		},
		Layout: models.Layout{
			Title:      models.Title{Text: l.ForecastTitle + " " + result.Ticker},
			XAxis:      &models.Axis{Title: models.Title{Text: l.Date}, Type: "date"},
			YAxis:      &models.Axis{Title: models.Title{Text: l.Price}},
			ShowLegend: true,
			HoverMode:  "x",
		},
	}
}

// RenderValidation overlays the held-out actual values on the predicted line.
func RenderValidation(result *models.ForecastResult, l *labels.Set) models.Figure {
	x, predicted, _, _, actual := pointColumns(result.Points)
	return models.Figure{
		Data: []models.Trace{
			{Type: "scatter", Mode: "markers", Name: l.Actual, X: x, Y: actual, Marker: &models.Marker{Color: colorActual, Size: 5}},
			{Type: "scatter", Mode: "lines", Name: l.Predicted, X: x, Y: predicted, Line: &models.Line{Color: colorPredicted, Dash: "dash"}},
		},
		Layout: models.Layout{
			Title:      models.Title{Text: l.Validation + " " + result.Ticker},
			XAxis:      &models.Axis{Title: models.Title{Text: l.Date}, Type: "date"},
			YAxis:      &models.Axis{Title: models.Title{Text: l.Price}},
			ShowLegend: true,
		},
	}
}

func pointColumns(points []models.ForecastPoint) (x []string, predicted, lower, upper, actual []float64) {
	n := len(points)
	x = make([]string, n)
	predicted = make([]float64, n)
	lower = make([]float64, n)
	upper = make([]float64, n)
	actual = make([]float64, n)
	for i, p := range points {
		x[i] = p.Date
		predicted[i] = p.Predicted
		lower[i] = p.Lower
		upper[i] = p.Upper
		actual[i] = p.Actual
	}
	return
}
