package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twstock-dashboard/internal/models"
)

func day(s string) time.Time {
	t, err := time.ParseInLocation(models.DateLayout, s, taipei)
	if err != nil {
		panic(err)
	}
	return t
}

func TestLoad_TrimsSortsAndDeduplicates(t *testing.T) {
	bars := tradingBars(6)
	dup := bars[2]
	dup.Close = 999
	// provider answers out of order, with padding days and a duplicate
	provider := &stubProvider{bars: []models.PriceBar{bars[5], bars[0], bars[3], bars[2], bars[1], dup, bars[4]}}
	svc := NewMarketDataService(provider, nil)

	series, err := svc.Load(context.Background(), " 0050 ", day(bars[1].Date), day(bars[4].Date))
	require.NoError(t, err)
	assert.Equal(t, OutcomeOK, ClassifyLoad(series, err))

	assert.Equal(t, "0050", series.Ticker)
	assert.Equal(t, "0050.TW", series.Symbol)
	assert.Equal(t, []string{"0050.TW"}, provider.symbols)
	require.Equal(t, 4, series.Len())
	for i := 1; i < series.Len(); i++ {
		assert.Less(t, series.Bars[i-1].Date, series.Bars[i].Date)
	}
	assert.Equal(t, bars[1].Date, series.Bars[0].Date)
	assert.Equal(t, bars[4].Date, series.Bars[3].Date)
	assert.Equal(t, 999.0, series.Bars[1].Close, "last duplicate wins")
}

func TestLoad_Outcomes(t *testing.T) {
	start, end := day("2024-01-01"), day("2024-03-31")

	tests := []struct {
		name      string
		ticker    string
		start     time.Time
		provider  *stubProvider
		outcome   LoadOutcome
		sentinel  error
		wantCalls int
	}{
		{"empty", "0050", start, &stubProvider{}, OutcomeEmpty, nil, 1},
		{"unknown symbol", "9999", start, &stubProvider{err: fmt.Errorf("yahoo: %w", models.ErrUnknownSymbol)}, OutcomeInvalidSymbol, ErrInvalidSymbol, 1},
		{"provider down", "0050", start, &stubProvider{err: errors.New("connection refused")}, OutcomeFailed, ErrProvider, 1},
		{"malformed ticker", "00 50!", start, &stubProvider{}, OutcomeInvalidSymbol, ErrInvalidSymbol, 0},
		{"blank ticker", "  ", start, &stubProvider{}, OutcomeInvalidSymbol, ErrInvalidSymbol, 0},
		{"reversed range", "0050", end.AddDate(0, 0, 1), &stubProvider{}, OutcomeInvalidInput, ErrInvalidRange, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewMarketDataService(tt.provider, nil)
			series, err := svc.Load(context.Background(), tt.ticker, tt.start, end)

			assert.Equal(t, tt.outcome, ClassifyLoad(series, err))
			assert.Equal(t, tt.wantCalls, tt.provider.calls)
			if tt.sentinel == nil {
				require.NoError(t, err)
				require.NotNil(t, series)
				assert.Equal(t, 0, series.Len())
				return
			}
			require.Error(t, err)
			assert.Nil(t, series, "a failed load never returns a partial series")
			assert.ErrorIs(t, err, tt.sentinel)

			var le *LoadError
			require.True(t, errors.As(err, &le))
		})
	}
}

func TestLoadError_IsOnlyItsOwnKind(t *testing.T) {
	err := &LoadError{Kind: KindProvider, Ticker: "0050", Err: errors.New("boom")}
	assert.ErrorIs(t, err, ErrProvider)
	assert.NotErrorIs(t, err, ErrInvalidSymbol)
	assert.NotErrorIs(t, err, ErrInvalidRange)
	assert.Contains(t, err.Error(), "provider")
}

func TestProviderSymbols(t *testing.T) {
	y := &yahooProvider{suffix: ".tw"}
	assert.Equal(t, "0050.TW", y.Symbol("0050"))
	assert.Equal(t, "6488.TWO", y.Symbol("6488.TWO"))

	tw := &twseProvider{}
	assert.Equal(t, "2330", tw.Symbol("2330.TW"))
	assert.Equal(t, "2330", tw.Symbol("2330"))
}
