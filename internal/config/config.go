package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"twstock-dashboard/internal/models"
)

type Config struct {
	Server struct {
		Port           string `yaml:"port" validate:"required,numeric"`
		Environment    string `yaml:"environment"`
		TimeoutSeconds int    `yaml:"timeout_seconds" validate:"gt=0"`
	} `yaml:"server"`
	Provider struct {
		Name           string `yaml:"name" validate:"oneof=yahoo twse"`
		MarketSuffix   string `yaml:"market_suffix"`
		YahooBaseURL   string `yaml:"yahoo_base_url" validate:"omitempty,url"`
		TWSEBaseURL    string `yaml:"twse_base_url" validate:"omitempty,url"`
		TimeoutSeconds int    `yaml:"timeout_seconds" validate:"gt=0"`
		Proxy          string `yaml:"proxy" validate:"omitempty,url"`
	} `yaml:"provider"`
	Forecast struct {
		Mode           string `yaml:"mode" validate:"oneof=local remote"`
		ServiceURL     string `yaml:"service_url" validate:"omitempty,url"`
		ModelName      string `yaml:"model_name"`
		Holdout        int    `yaml:"holdout" validate:"gt=0"`
		TimeoutSeconds int    `yaml:"timeout_seconds" validate:"gt=0"`
	} `yaml:"forecast"`
	Dashboard struct {
		Language      string   `yaml:"language" validate:"oneof=zh-TW en"`
		DefaultTicker string   `yaml:"default_ticker" validate:"required"`
		DefaultStart  string   `yaml:"default_start" validate:"required,datetime=2006-01-02"`
		Presets       []string `yaml:"presets"`
	} `yaml:"dashboard"`
	Log struct {
		Level  string `yaml:"level" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" validate:"oneof=json text"`
	} `yaml:"log"`
}

var DefaultPresets = []string{
	"元大台灣50 (0050)",
	"台積電 (2330)",
	"鴻海 (2317)",
	"聯發科 (2454)",
}

var validate = validator.New()

// LoadEnvFile loads a .env file into the process environment. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads config from a YAML file, then applies environment variable overrides
// and defaults. A missing file yields an all-default config.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	// Environment variable overrides
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.Environment = getEnv("ENVIRONMENT", cfg.Server.Environment)
	cfg.Provider.Name = getEnv("DATA_PROVIDER", cfg.Provider.Name)
	cfg.Provider.MarketSuffix = getEnv("MARKET_SUFFIX", cfg.Provider.MarketSuffix)
	cfg.Provider.Proxy = getEnv("HTTPS_PROXY", cfg.Provider.Proxy)
	cfg.Forecast.Mode = getEnv("FORECAST_MODE", cfg.Forecast.Mode)
	cfg.Forecast.ServiceURL = getEnv("FORECAST_SERVICE_URL", cfg.Forecast.ServiceURL)
	if v := os.Getenv("FORECAST_HOLDOUT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("FORECAST_HOLDOUT: %w", err)
		}
		cfg.Forecast.Holdout = n
	}
	cfg.Dashboard.Language = getEnv("DISPLAY_LANGUAGE", cfg.Dashboard.Language)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	// Defaults
	setDefault(&cfg.Server.Port, "8080")
	setDefault(&cfg.Server.Environment, "production")
	if cfg.Server.TimeoutSeconds == 0 {
		cfg.Server.TimeoutSeconds = 30
	}
	setDefault(&cfg.Provider.Name, "yahoo")
	setDefault(&cfg.Provider.MarketSuffix, ".TW")
	if cfg.Provider.TimeoutSeconds == 0 {
		cfg.Provider.TimeoutSeconds = 10
	}
	setDefault(&cfg.Forecast.Mode, "local")
	setDefault(&cfg.Forecast.ModelName, "additive")
	if cfg.Forecast.Holdout == 0 {
		cfg.Forecast.Holdout = 250
	}
	if cfg.Forecast.TimeoutSeconds == 0 {
		cfg.Forecast.TimeoutSeconds = 30
	}
	setDefault(&cfg.Dashboard.Language, "zh-TW")
	setDefault(&cfg.Dashboard.DefaultTicker, "0050")
	if cfg.Dashboard.DefaultStart == "" && cfg.Provider.Name == "twse" {
		// one STOCK_DAY request per month; TWSE throttles long walks
		cfg.Dashboard.DefaultStart = models.Today(time.Now()).AddDate(-1, 0, 0).Format(models.DateLayout)
	}
	setDefault(&cfg.Dashboard.DefaultStart, "2019-01-01")
	if len(cfg.Dashboard.Presets) == 0 {
		cfg.Dashboard.Presets = append([]string(nil), DefaultPresets...)
	}
	setDefault(&cfg.Log.Level, "info")
	setDefault(&cfg.Log.Format, "text")

	return cfg, nil
}

// Validate checks field constraints and cross-field requirements.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Forecast.Mode == "remote" && c.Forecast.ServiceURL == "" {
		return fmt.Errorf("forecast.service_url is required when forecast.mode is remote")
	}
	return nil
}

func (c *Config) ProviderTimeout() time.Duration {
	return time.Duration(c.Provider.TimeoutSeconds) * time.Second
}

func (c *Config) ForecastTimeout() time.Duration {
	return time.Duration(c.Forecast.TimeoutSeconds) * time.Second
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.TimeoutSeconds) * time.Second
}

// DefaultStart parses Dashboard.DefaultStart; Validate guarantees the layout.
func (c *Config) DefaultStart() time.Time {
	t, err := models.ParseDay(c.Dashboard.DefaultStart)
	if err != nil || t.IsZero() {
		return time.Date(2019, 1, 1, 0, 0, 0, 0, models.ExchangeZone)
	}
	return t
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
