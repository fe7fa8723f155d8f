package services

import (
	"context"
	"time"

	"twstock-dashboard/internal/models"
)

var taipei = models.ExchangeZone

// tradingBars returns n weekday bars starting 2023-01-02 with a gentle uptrend.
func tradingBars(n int) []models.PriceBar {
	bars := make([]models.PriceBar, 0, n)
	day := time.Date(2023, 1, 2, 0, 0, 0, 0, taipei)
	for len(bars) < n {
		if wd := day.Weekday(); wd != time.Saturday && wd != time.Sunday {
			i := float64(len(bars))
			open := 100 + 0.1*i
			closePrice := open + 0.5
			if len(bars)%3 == 0 {
				closePrice = open - 0.5
			}
			bars = append(bars, models.PriceBar{
				Date:     day.Format(models.DateLayout),
				Time:     day,
				Open:     open,
				High:     open + 1,
				Low:      open - 1,
				Close:    closePrice,
				AdjClose: closePrice - 0.2,
				Volume:   int64(1000 + len(bars)),
			})
		}
		day = day.AddDate(0, 0, 1)
	}
	return bars
}

func seriesOf(ticker string, bars []models.PriceBar) *models.PriceSeries {
	s := &models.PriceSeries{Ticker: ticker, Symbol: ticker + ".TW", Source: "stub", Bars: bars}
	if len(bars) > 0 {
		s.Start = bars[0].Date
		s.End = bars[len(bars)-1].Date
	}
	return s
}

type stubProvider struct {
	bars    []models.PriceBar
	err     error
	calls   int
	symbols []string
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Symbol(code string) string { return code + ".TW" }

func (p *stubProvider) FetchDaily(_ context.Context, symbol string, _, _ time.Time) ([]models.PriceBar, error) {
	p.calls++
	p.symbols = append(p.symbols, symbol)
	if p.err != nil {
		return nil, p.err
	}
	return append([]models.PriceBar(nil), p.bars...), nil
}
