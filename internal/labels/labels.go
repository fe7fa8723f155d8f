// Package labels holds every display string of the dashboard, per language.
package labels

import (
	"strings"

	"twstock-dashboard/internal/models"
)

const (
	LangZhTW = "zh-TW"
	LangEn   = "en"
)

type Set struct {
	Lang string

	PageTitle     string
	TickerPrompt  string
	PresetPrompt  string
	StartPrompt   string
	EndPrompt     string
	VolumePrompt  string
	ForecastLabel string
	Submit        string

	Loading      string // followed by the ticker
	FetchFailed  string
	NotFound     string
	InvalidRange string
	InvalidQuery string
	Loaded       string

	PriceSection   string
	Head           string
	Tail           string
	Summary        string
	ChartSection   string
	FullData       string // followed by "<start> <Through> <end>"
	Through        string
	Export         string
	ForecastTitle  string
	Validation     string
	Insufficient   string
	Unavailable    string
	MetricsCaption string

	Date       string
	Price      string
	CandleName string
	Predicted  string
	Interval   string
	Training   string
	Actual     string

	Columns map[models.Column]string
	Stats   map[models.Stat]string
}

var zhTW = Set{
	Lang:          LangZhTW,
	PageTitle:     "股市資訊",
	TickerPrompt:  "輸入股票代號",
	PresetPrompt:  "選擇股票",
	StartPrompt:   "開始日期",
	EndPrompt:     "結束日期",
	VolumePrompt:  "顯示成交量",
	ForecastLabel: "股價預測",
	Submit:        "查詢",

	Loading:      "讀取檔案: ",
	FetchFailed:  "查詢失敗",
	NotFound:     "查無此代碼",
	InvalidRange: "日期範圍錯誤",
	InvalidQuery: "查詢條件錯誤",
	Loaded:       "讀取完成...",

	PriceSection:   "股價資訊",
	Head:           "最前5筆資料",
	Tail:           "最後5筆資料",
	Summary:        "資料摘要",
	ChartSection:   "股價K線",
	FullData:       "完整資料",
	Through:        "至",
	Export:         "下載 Excel",
	ForecastTitle:  "股價預測",
	Validation:     "預測驗證",
	Insufficient:   "資料不足，無法預測/驗證",
	Unavailable:    "預測模型無法使用",
	MetricsCaption: "驗證誤差",

	Date:       "日期",
	Price:      "股價",
	CandleName: "K線",
	Predicted:  "預測值",
	Interval:   "信賴區間",
	Training:   "訓練資料",
	Actual:     "實際值",

	Columns: map[models.Column]string{
		models.ColOpen:     "開盤價",
		models.ColHigh:     "最高價",
		models.ColLow:      "最低價",
		models.ColClose:    "收盤價",
		models.ColAdjClose: "收盤價(修正後)",
		models.ColVolume:   "成交股數",
	},
	Stats: map[models.Stat]string{
		models.StatCount:  "總筆數",
		models.StatMean:   "平均值",
		models.StatStd:    "標準差",
		models.StatMin:    "最小值",
		models.StatP25:    "第1四分位數",
		models.StatMedian: "中位數",
		models.StatP75:    "第3四分位數",
		models.StatMax:    "最大值",
	},
}

var en = Set{
	Lang:          LangEn,
	PageTitle:     "Stock Market Information",
	TickerPrompt:  "Ticker",
	PresetPrompt:  "Preset",
	StartPrompt:   "Start date",
	EndPrompt:     "End date",
	VolumePrompt:  "Show volume",
	ForecastLabel: "Forecast",
	Submit:        "Load",

	Loading:      "Loading: ",
	FetchFailed:  "Query failed",
	NotFound:     "No data for this code",
	InvalidRange: "Invalid date range",
	InvalidQuery: "Invalid query",
	Loaded:       "Loaded...",

	PriceSection:   "Price data",
	Head:           "First 5 rows",
	Tail:           "Last 5 rows",
	Summary:        "Summary",
	ChartSection:   "Candlestick chart",
	FullData:       "Full data",
	Through:        "to",
	Export:         "Download Excel",
	ForecastTitle:  "Price forecast",
	Validation:     "Forecast validation",
	Insufficient:   "Insufficient data to forecast/validate",
	Unavailable:    "Forecast unavailable",
	MetricsCaption: "Validation error",

	Date:       "Date",
	Price:      "Price",
	CandleName: "Candles",
	Predicted:  "Predicted",
	Interval:   "Interval",
	Training:   "Training",
	Actual:     "Actual",

	Columns: map[models.Column]string{
		models.ColOpen:     "Open",
		models.ColHigh:     "High",
		models.ColLow:      "Low",
		models.ColClose:    "Close",
		models.ColAdjClose: "Adj Close",
		models.ColVolume:   "Volume",
	},
	Stats: map[models.Stat]string{
		models.StatCount:  "count",
		models.StatMean:   "mean",
		models.StatStd:    "std",
		models.StatMin:    "min",
		models.StatP25:    "25%",
		models.StatMedian: "50%",
		models.StatP75:    "75%",
		models.StatMax:    "max",
	},
}

// For returns the label set for lang. Anything that is not English falls back to zh-TW.
func For(lang string) *Set {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(lang)), "en") {
		return &en
	}
	return &zhTW
}

// Column returns the display label of c, or c itself when unlabelled.
func (s *Set) Column(c models.Column) string {
	if v, ok := s.Columns[c]; ok {
		return v
	}
	return string(c)
}

func (s *Set) Stat(st models.Stat) string {
	if v, ok := s.Stats[st]; ok {
		return v
	}
	return string(st)
}
