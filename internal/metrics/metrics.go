// Package metrics declares the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	LoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "twstock_loads_total",
		Help: "Price history loads by provider and outcome",
	}, []string{"provider", "outcome"})

	LoadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "twstock_load_duration_seconds",
		Help:    "Duration of one price history load",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"provider"})

	ForecastsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "twstock_forecasts_total",
		Help: "Forecast runs by modeler and outcome",
	}, []string{"modeler", "outcome"})

	ForecastDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "twstock_forecast_duration_seconds",
		Help:    "Duration of model fit plus predict",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30},
	}, []string{"modeler"})

	RendersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "twstock_dashboard_renders_total",
		Help: "Dashboard renders by load status",
	}, []string{"status"})
)
