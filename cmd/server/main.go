package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/spf13/cobra"

	"twstock-dashboard/internal/config"
	"twstock-dashboard/internal/handlers"
	"twstock-dashboard/internal/services"
	"twstock-dashboard/pkg/logging"
	"twstock-dashboard/web"
)

var (
	configPath string
	envFile    string

	rootCmd = &cobra.Command{
		Use:           "twstock",
		Short:         "Taiwan stock price dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard and JSON API",
		RunE:  runServe,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $CONFIG_PATH or configs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")
	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// components is everything a command needs, built once from config.
type components struct {
	cfg        *config.Config
	logger     *slog.Logger
	market     *services.MarketDataService
	forecaster *services.ForecastOrchestrator
	dashboard  *services.Dashboard
}

func bootstrap() (*components, error) {
	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	path := configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		path = "configs/config.yaml"
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logging.New(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(log)

	provider, err := services.NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	modeler, err := services.NewModeler(cfg)
	if err != nil {
		return nil, err
	}

	market := services.NewMarketDataService(provider, log)
	forecaster := services.NewForecastOrchestrator(modeler, cfg.Forecast.Holdout, log)
	dashboard := services.NewDashboard(market, forecaster, services.DashboardDefaults{
		Ticker:  cfg.Dashboard.DefaultTicker,
		Start:   cfg.DefaultStart(),
		Presets: cfg.Dashboard.Presets,
		Lang:    cfg.Dashboard.Language,
	}, log)

	return &components{
		cfg:        cfg,
		logger:     log,
		market:     market,
		forecaster: forecaster,
		dashboard:  dashboard,
	}, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	c, err := bootstrap()
	if err != nil {
		return err
	}
	cfg := c.cfg

	apiHandler := handlers.NewAPIHandler(c.market, c.forecaster, c.dashboard, cfg.RequestTimeout())
	dashboardHandler := handlers.NewDashboardHandler(c.dashboard, cfg.RequestTimeout())
	healthHandler := handlers.NewHealthHandler(c.market.ProviderName(), cfg.Forecast.Mode)

	app := fiber.New(fiber.Config{
		StrictRouting: true,
		CaseSensitive: true,
		ServerHeader:  "twstock-dashboard",
		AppName:       "twstock-dashboard v1.0",
		ReadTimeout:   time.Second * 10,
		WriteTimeout:  cfg.RequestTimeout() + 5*time.Second,
		BodyLimit:     1 * 1024 * 1024,
		Views:         web.NewEngine(),
		ErrorHandler:  handlers.CustomErrorHandler,
	})

	// Middleware stack
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path} ${locals:requestid}\n",
	}))
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
		MaxAge:       3600,
	}))
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: 1 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Rate limit exceeded. Please try again later.",
			})
		},
	}))

	handlers.Register(app, apiHandler, dashboardHandler, healthHandler)

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(":" + cfg.Server.Port)
	}()

	c.logger.Info("server started",
		"port", cfg.Server.Port,
		"environment", cfg.Server.Environment,
		"provider", c.market.ProviderName(),
		"forecast_mode", cfg.Forecast.Mode)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}

	c.logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	c.logger.Info("server shutdown complete")
	return nil
}
