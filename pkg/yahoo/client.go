package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"twstock-dashboard/internal/models"
)

const DefaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a chart client. An empty baseURL selects DefaultBaseURL;
// proxyURL is optional.
func NewClient(baseURL string, timeout time.Duration, proxyURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

type ChartResponse struct {
	Chart struct {
		Result []ChartResult `json:"result"`
		Error  *ChartError   `json:"error"`
	} `json:"chart"`
}

type ChartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type ChartResult struct {
	Meta struct {
		Symbol               string `json:"symbol"`
		ExchangeTimezoneName string `json:"exchangeTimezoneName"`
		GMTOffset            int    `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// GetDailyBars fetches daily bars for symbol covering the calendar days
// [start, end]. The window sent to Yahoo is padded by a day on each side;
// callers trim to the exact dates. An unknown symbol yields
// models.ErrUnknownSymbol; a known symbol without data yields an empty slice.
func (c *Client) GetDailyBars(ctx context.Context, symbol string, start, end time.Time) ([]models.PriceBar, error) {
	period1 := start.AddDate(0, 0, -1).Unix()
	period2 := end.AddDate(0, 0, 2).Unix()
	u := fmt.Sprintf("%s/%s?period1=%d&period2=%d&interval=1d&events=history&includeAdjustedClose=true",
		c.baseURL, url.PathEscape(symbol), period1, period2)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo fetch: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("yahoo read body: %w", err)
	}

	var chart ChartResponse
	decodeErr := json.Unmarshal(body, &chart)

	// Yahoo reports unknown symbols as 404 with a chart error body.
	if decodeErr == nil && chart.Chart.Error != nil {
		return nil, classifyChartError(symbol, chart.Chart.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo finance returned status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("yahoo decode: %w", decodeErr)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownSymbol, symbol)
	}
	return toBars(chart.Chart.Result[0]), nil
}

func classifyChartError(symbol string, e *ChartError) error {
	switch {
	case strings.EqualFold(e.Code, "Not Found"):
		return fmt.Errorf("%w: %s (%s)", models.ErrUnknownSymbol, symbol, e.Description)
	case strings.Contains(e.Description, "Data doesn't exist"):
		// valid symbol, empty window
		return nil
	default:
		return fmt.Errorf("yahoo api error: %s: %s", e.Code, e.Description)
	}
}

func toBars(result ChartResult) []models.PriceBar {
	loc := exchangeLocation(result)
	if len(result.Indicators.Quote) == 0 {
		return []models.PriceBar{}
	}
	quote := result.Indicators.Quote[0]
	var adj []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]models.PriceBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o, h, l, cl := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i)
		if o == nil || h == nil || l == nil || cl == nil {
			continue // no trading (holidays, suspended days)
		}
		t := time.Unix(ts, 0).In(loc)
		bar := models.PriceBar{
			Date:     t.Format(models.DateLayout),
			Time:     time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc),
			Open:     *o,
			High:     *h,
			Low:      *l,
			Close:    *cl,
			AdjClose: *cl,
		}
		if a := at(adj, i); a != nil {
			bar.AdjClose = *a
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			bar.Volume = *quote.Volume[i]
		}
		bars = append(bars, bar)
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars
}

func at(values []*float64, i int) *float64 {
	if i >= len(values) {
		return nil
	}
	return values[i]
}

func exchangeLocation(result ChartResult) *time.Location {
	if name := result.Meta.ExchangeTimezoneName; name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	if result.Meta.GMTOffset != 0 {
		return time.FixedZone("exchange", result.Meta.GMTOffset)
	}
	return models.ExchangeZone
}
