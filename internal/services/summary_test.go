package services

import (
	"math"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twstock-dashboard/internal/labels"
	"twstock-dashboard/internal/models"
)

func closesSeries(closes ...float64) *models.PriceSeries {
	bars := tradingBars(len(closes))
	for i, c := range closes {
		bars[i].Close = c
	}
	return seriesOf("0050", bars)
}

func TestSummarize_KnownValues(t *testing.T) {
	stats := Summarize(closesSeries(1, 2, 3, 4))
	c := stats.Stats[models.ColClose]

	assert.Equal(t, 4, c.Count)
	assert.InDelta(t, 2.5, c.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3.0), c.Std, 1e-12, "sample std")
	assert.Equal(t, 1.0, c.Min)
	assert.InDelta(t, 1.75, c.P25, 1e-12)
	assert.InDelta(t, 2.5, c.Median, 1e-12)
	assert.InDelta(t, 3.25, c.P75, 1e-12)
	assert.Equal(t, 4.0, c.Max)
	assert.Equal(t, models.NumericColumns, stats.Columns)
}

func TestSummarize_Empty(t *testing.T) {
	for _, s := range []*models.PriceSeries{nil, seriesOf("0050", nil)} {
		stats := Summarize(s)
		for _, c := range models.NumericColumns {
			cs := stats.Stats[c]
			assert.Equal(t, 0, cs.Count)
			for _, st := range models.SummaryStats[1:] {
				assert.True(t, math.IsNaN(cs.Get(st)), "%s %s", c, st)
			}
		}
	}
}

func TestSummarize_SingleRowHasUndefinedStd(t *testing.T) {
	c := Summarize(closesSeries(42)).Stats[models.ColClose]
	assert.Equal(t, 1, c.Count)
	assert.Equal(t, 42.0, c.Mean)
	assert.True(t, math.IsNaN(c.Std))
	assert.Equal(t, 42.0, c.P25)
	assert.Equal(t, 42.0, c.P75)
}

func TestFormatWhole(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{-0.4, "0"},
		{math.Copysign(0, -1), "0"},
		{2.5, "2"},
		{3.5, "4"},
		{1234567.5, "1,234,568"},
		{-9876.2, "-9,876"},
		{math.NaN(), NotAvailable},
		{math.Inf(1), NotAvailable},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatWhole(tt.in), "%v", tt.in)
	}
}

func TestFormatSummary_CellsAreWholeNumbers(t *testing.T) {
	l := labels.For(labels.LangZhTW)
	table := FormatSummary(Summarize(seriesOf("0050", tradingBars(40))), l)

	require.Len(t, table.Header, len(models.NumericColumns))
	assert.Equal(t, "開盤價", table.Header[0])
	require.Len(t, table.Rows, 8)
	wantLabels := []string{"總筆數", "平均值", "標準差", "最小值", "第1四分位數", "中位數", "第3四分位數", "最大值"}
	whole := regexp.MustCompile(`^-?[0-9]{1,3}(,[0-9]{3})*$`)
	for i, row := range table.Rows {
		assert.Equal(t, wantLabels[i], row.Label)
		require.Len(t, row.Cells, len(models.NumericColumns))
		for _, cell := range row.Cells {
			assert.Regexp(t, whole, cell)
		}
	}
	assert.Equal(t, "40", table.Rows[0].Cells[0])
}

func TestFormatSummary_EmptyDoesNotPanic(t *testing.T) {
	table := FormatSummary(Summarize(nil), labels.For(labels.LangEn))
	require.Len(t, table.Rows, 8)
	assert.Equal(t, "0", table.Rows[0].Cells[0])
	assert.Equal(t, NotAvailable, table.Rows[1].Cells[0])
}

func TestFormatBars(t *testing.T) {
	bars := tradingBars(2)
	bars[0].Open = 1234.5
	bars[0].Volume = 12345678
	table := FormatBars(bars, labels.For(labels.LangEn))

	require.Len(t, table.Rows, 2)
	assert.Equal(t, "2023-01-02", table.Rows[0].Label)
	assert.Equal(t, "1,234.50", table.Rows[0].Cells[0])
	assert.Equal(t, "12,345,678", table.Rows[0].Cells[5])
}
