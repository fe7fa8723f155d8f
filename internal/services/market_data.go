package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"twstock-dashboard/internal/config"
	"twstock-dashboard/internal/metrics"
	"twstock-dashboard/internal/models"
	"twstock-dashboard/pkg/twse"
	"twstock-dashboard/pkg/validation"
	"twstock-dashboard/pkg/yahoo"
)

var (
	ErrInvalidSymbol = errors.New("invalid symbol")
	ErrInvalidRange  = errors.New("start date is after end date")
	ErrProvider      = errors.New("market data provider failed")
)

// LoadKind tags why a load failed.
type LoadKind int

const (
	KindInvalidInput LoadKind = iota + 1
	KindInvalidSymbol
	KindProvider
)

func (k LoadKind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindInvalidSymbol:
		return "invalid_symbol"
	case KindProvider:
		return "provider"
	}
	return "unknown"
}

// LoadError is the only error type returned by MarketDataService.Load.
type LoadError struct {
	Kind   LoadKind
	Ticker string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %s: %v", e.Ticker, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind.
func (e *LoadError) Is(target error) bool {
	switch target {
	case ErrInvalidSymbol:
		return e.Kind == KindInvalidSymbol
	case ErrInvalidRange:
		return e.Kind == KindInvalidInput
	case ErrProvider:
		return e.Kind == KindProvider
	}
	return false
}

// LoadOutcome is the mutually exclusive result class of one load.
type LoadOutcome string

const (
	OutcomeOK            LoadOutcome = "ok"
	OutcomeEmpty         LoadOutcome = "empty"
	OutcomeInvalidSymbol LoadOutcome = "invalid_symbol"
	OutcomeInvalidInput  LoadOutcome = "invalid_input"
	OutcomeFailed        LoadOutcome = "failed"
)

func ClassifyLoad(series *models.PriceSeries, err error) LoadOutcome {
	switch {
	case err == nil && series.Empty():
		return OutcomeEmpty
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrInvalidSymbol):
		return OutcomeInvalidSymbol
	case errors.Is(err, ErrInvalidRange):
		return OutcomeInvalidInput
	default:
		return OutcomeFailed
	}
}

// Provider fetches daily bars from one market-data source.
type Provider interface {
	Name() string
	// Symbol maps an exchange code to the provider's symbol.
	Symbol(code string) string
	FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]models.PriceBar, error)
}

type yahooProvider struct {
	client *yahoo.Client
	suffix string
}

func (p *yahooProvider) Name() string { return "yahoo" }

func (p *yahooProvider) Symbol(code string) string {
	if validation.HasMarketSuffix(code) {
		return code
	}
	return code + strings.ToUpper(p.suffix)
}

func (p *yahooProvider) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]models.PriceBar, error) {
	return p.client.GetDailyBars(ctx, symbol, start, end)
}

type twseProvider struct {
	client *twse.Client
}

func (p *twseProvider) Name() string { return "twse" }

func (p *twseProvider) Symbol(code string) string {
	if i := strings.Index(code, "."); i >= 0 {
		return code[:i]
	}
	return code
}

func (p *twseProvider) FetchDaily(ctx context.Context, symbol string, start, end time.Time) ([]models.PriceBar, error) {
	return p.client.GetDailyBars(ctx, symbol, start, end)
}

// NewProvider builds the provider selected by cfg.Provider.Name.
func NewProvider(cfg *config.Config) (Provider, error) {
	switch cfg.Provider.Name {
	case "", "yahoo":
		return &yahooProvider{
			client: yahoo.NewClient(cfg.Provider.YahooBaseURL, cfg.ProviderTimeout(), cfg.Provider.Proxy),
			suffix: cfg.Provider.MarketSuffix,
		}, nil
	case "twse":
		return &twseProvider{client: twse.NewClient(cfg.Provider.TWSEBaseURL, cfg.ProviderTimeout())}, nil
	}
	return nil, fmt.Errorf("unknown data provider %q", cfg.Provider.Name)
}

// MarketDataService loads price history. It holds no per-request state.
type MarketDataService struct {
	provider Provider
	logger   *slog.Logger
	now      func() time.Time
}

func NewMarketDataService(provider Provider, logger *slog.Logger) *MarketDataService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MarketDataService{
		provider: provider,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *MarketDataService) ProviderName() string { return s.provider.Name() }

// Load fetches the daily history of ticker over the calendar days [start, end].
// It returns either a series (possibly empty) or a *LoadError, never both.
func (s *MarketDataService) Load(ctx context.Context, ticker string, start, end time.Time) (series *models.PriceSeries, err error) {
	began := time.Now()
	defer func() {
		outcome := ClassifyLoad(series, err)
		metrics.LoadsTotal.WithLabelValues(s.provider.Name(), string(outcome)).Inc()
		metrics.LoadDuration.WithLabelValues(s.provider.Name()).Observe(time.Since(began).Seconds())
		s.logger.Info("price history loaded",
			"ticker", ticker,
			"provider", s.provider.Name(),
			"outcome", outcome,
			"rows", series.Len(),
			"duration", time.Since(began))
	}()

	code, verr := validation.SanitizeTicker(ticker)
	if verr != nil {
		return nil, &LoadError{Kind: KindInvalidSymbol, Ticker: ticker, Err: verr}
	}

	startDay := start.Format(models.DateLayout)
	endDay := end.Format(models.DateLayout)
	if startDay > endDay {
		return nil, &LoadError{Kind: KindInvalidInput, Ticker: code, Err: fmt.Errorf("%s > %s", startDay, endDay)}
	}

	symbol := s.provider.Symbol(code)
	bars, ferr := s.provider.FetchDaily(ctx, symbol, start, end)
	if ferr != nil {
		kind := KindProvider
		if errors.Is(ferr, models.ErrUnknownSymbol) {
			kind = KindInvalidSymbol
		}
		return nil, &LoadError{Kind: kind, Ticker: code, Err: ferr}
	}

	return &models.PriceSeries{
		Ticker:    code,
		Symbol:    symbol,
		Source:    s.provider.Name(),
		Start:     startDay,
		End:       endDay,
		Bars:      normalizeBars(bars, startDay, endDay),
		FetchedAt: s.now(),
	}, nil
}

// normalizeBars keeps bars inside [startDay, endDay], sorts them by date and
// collapses duplicate dates, keeping the last one seen.
func normalizeBars(bars []models.PriceBar, startDay, endDay string) []models.PriceBar {
	kept := make([]models.PriceBar, 0, len(bars))
	for _, b := range bars {
		if b.Date < startDay || b.Date > endDay {
			continue
		}
		kept = append(kept, b)
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Date < kept[j].Date })

	out := kept[:0]
	for _, b := range kept {
		if n := len(out); n > 0 && out[n-1].Date == b.Date {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
