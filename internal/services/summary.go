package services

import (
	"math"
	"sort"

	"github.com/dustin/go-humanize"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"twstock-dashboard/internal/labels"
	"twstock-dashboard/internal/models"
)

// NotAvailable is rendered for statistics that are undefined, such as the mean of an empty column.
const NotAvailable = "N/A"

// Summarize computes descriptive statistics for every numeric column.
// Std is the sample standard deviation; quartiles interpolate linearly
// between the closest ranks.
func Summarize(series *models.PriceSeries) models.SummaryStatistics {
	out := models.SummaryStatistics{
		Columns: append([]models.Column(nil), models.NumericColumns...),
		Stats:   make(map[models.Column]models.ColumnSummary, len(models.NumericColumns)),
	}
	for _, c := range models.NumericColumns {
		out.Stats[c] = summarizeColumn(series.Column(c))
	}
	return out
}

func summarizeColumn(values []float64) models.ColumnSummary {
	n := len(values)
	nan := math.NaN()
	cs := models.ColumnSummary{Count: n, Mean: nan, Std: nan, Min: nan, P25: nan, Median: nan, P75: nan, Max: nan}
	if n == 0 {
		return cs
	}

	cs.Mean, cs.Std = stat.MeanStdDev(values, nil)
	if n < 2 {
		cs.Std = nan
	}
	cs.Min = floats.Min(values)
	cs.Max = floats.Max(values)

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	cs.P25 = quantile(sorted, 0.25)
	cs.Median = quantile(sorted, 0.5)
	cs.P75 = quantile(sorted, 0.75)
	return cs
}

// quantile interpolates between the closest ranks of sorted (Hyndman-Fan type 7).
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	h := float64(n-1) * p
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= n {
		return sorted[n-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

// FormatSummary renders stats as a table of thousands-grouped whole numbers.
// Header holds the column labels; each row is one statistic.
func FormatSummary(stats models.SummaryStatistics, l *labels.Set) models.Table {
	t := models.Table{Header: make([]string, 0, len(stats.Columns))}
	for _, c := range stats.Columns {
		t.Header = append(t.Header, l.Column(c))
	}
	for _, s := range models.SummaryStats {
		row := models.TableRow{Label: l.Stat(s), Cells: make([]string, 0, len(stats.Columns))}
		for _, c := range stats.Columns {
			row.Cells = append(row.Cells, FormatWhole(stats.Stats[c].Get(s)))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// FormatWhole rounds half to even and groups thousands. Undefined values give NotAvailable.
func FormatWhole(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NotAvailable
	}
	r := math.RoundToEven(v)
	if r == 0 {
		return "0"
	}
	if math.Abs(r) >= math.MaxInt64 {
		return humanize.Commaf(r)
	}
	return humanize.Comma(int64(r))
}

// FormatBars renders raw bars for the head, tail and full-data views.
func FormatBars(bars []models.PriceBar, l *labels.Set) models.Table {
	t := models.Table{Header: make([]string, 0, len(models.NumericColumns))}
	for _, c := range models.NumericColumns {
		t.Header = append(t.Header, l.Column(c))
	}
	for _, b := range bars {
		row := models.TableRow{Label: b.Date, Cells: make([]string, 0, len(models.NumericColumns))}
		for _, c := range models.NumericColumns {
			if c == models.ColVolume {
				row.Cells = append(row.Cells, humanize.Comma(b.Volume))
				continue
			}
			row.Cells = append(row.Cells, FormatPrice(b.Value(c)))
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// FormatPrice renders a price with two decimals and grouped thousands.
func FormatPrice(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NotAvailable
	}
	return humanize.FormatFloat("#,###.##", v)
}
