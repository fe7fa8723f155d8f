package twse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"twstock-dashboard/internal/models"
)

const DefaultBaseURL = "https://www.twse.com.tw/exchangeReport/STOCK_DAY"

// noDataStat is what STOCK_DAY answers for an unknown stock or a month without trading.
const noDataStat = "沒有符合條件的資料"

// TWSE blocks an address that sends more than about three STOCK_DAY requests
// per five seconds. Every month of a range is one request, so a multi-year
// range takes minutes; keep provider ranges short.
const (
	DefaultRequestInterval = 5 * time.Second / 3
	DefaultRequestBurst    = 3
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Every(DefaultRequestInterval), DefaultRequestBurst),
	}
}

// WithRateLimit replaces the request pacing. The limiter is shared by every
// call on this client.
func (c *Client) WithRateLimit(interval time.Duration, burst int) *Client {
	c.limiter = rate.NewLimiter(rate.Every(interval), burst)
	return c
}

// StockDayResponse is one month of daily trading for one stock.
// Rows are: date (ROC), volume, turnover, open, high, low, close, change, transactions.
type StockDayResponse struct {
	Stat   string     `json:"stat"`
	Date   string     `json:"date"`
	Fields []string   `json:"fields"`
	Data   [][]string `json:"data"`
}

// GetDailyBars walks [start, end] one calendar month per request. If every
// month reports no matching data the stock number is treated as unknown.
// TWSE publishes no adjusted close, so AdjClose equals Close.
func (c *Client) GetDailyBars(ctx context.Context, stockNo string, start, end time.Time) ([]models.PriceBar, error) {
	var bars []models.PriceBar
	anyOK := false

	month := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, models.ExchangeZone)
	last := time.Date(end.Year(), end.Month(), 1, 0, 0, 0, 0, models.ExchangeZone)
	for !month.After(last) {
		resp, err := c.fetchMonth(ctx, stockNo, month)
		if err != nil {
			return nil, err
		}
		switch {
		case resp.Stat == "OK":
			anyOK = true
			rows, err := parseRows(resp.Data)
			if err != nil {
				return nil, fmt.Errorf("twse %s %s: %w", stockNo, month.Format("2006-01"), err)
			}
			bars = append(bars, rows...)
		case strings.Contains(resp.Stat, noDataStat):
		default:
			return nil, fmt.Errorf("twse returned stat %q", resp.Stat)
		}
		month = month.AddDate(0, 1, 0)
	}

	if !anyOK {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownSymbol, stockNo)
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func (c *Client) fetchMonth(ctx context.Context, stockNo string, month time.Time) (*StockDayResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("twse rate limit: %w", err)
	}
	url := fmt.Sprintf("%s?response=json&date=%s&stockNo=%s", c.baseURL, month.Format("20060102"), stockNo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("twse fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("twse returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var out StockDayResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("twse decode: %w", err)
	}
	return &out, nil
}

func parseRows(data [][]string) ([]models.PriceBar, error) {
	bars := make([]models.PriceBar, 0, len(data))
	for _, row := range data {
		if len(row) < 7 {
			continue
		}
		t, err := parseROCDate(row[0])
		if err != nil {
			return nil, err
		}
		open, okO := parseNumber(row[3])
		high, okH := parseNumber(row[4])
		low, okL := parseNumber(row[5])
		closePrice, okC := parseNumber(row[6])
		if !okO || !okH || !okL || !okC {
			continue // "--" means no trade that day
		}
		volume, _ := parseNumber(row[1])
		bars = append(bars, models.PriceBar{
			Date:     t.Format(models.DateLayout),
			Time:     t,
			Open:     open,
			High:     high,
			Low:      low,
			Close:    closePrice,
			AdjClose: closePrice,
			Volume:   int64(volume),
		})
	}
	return bars, nil
}

// parseROCDate converts "113/01/02" (Republic of China calendar) to 2024-01-02.
func parseROCDate(s string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("bad date %q", s)
	}
	y, errY := strconv.Atoi(parts[0])
	m, errM := strconv.Atoi(parts[1])
	d, errD := strconv.Atoi(parts[2])
	if errY != nil || errM != nil || errD != nil {
		return time.Time{}, fmt.Errorf("bad date %q", s)
	}
	return time.Date(y+1911, time.Month(m), d, 0, 0, 0, 0, models.ExchangeZone), nil
}

func parseNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || s == "--" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
