package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/zilazol/price-crawler/config"
	"github.com/zilazol/price-crawler/internal/browser"
	"github.com/zilazol/price-crawler/internal/crawl"
	"github.com/zilazol/price-crawler/internal/credentials"
	"github.com/zilazol/price-crawler/internal/database"
	"github.com/zilazol/price-crawler/internal/fetch"
	"github.com/zilazol/price-crawler/internal/handlers"
	"github.com/zilazol/price-crawler/internal/jobs"
	"github.com/zilazol/price-crawler/internal/middleware"
	"github.com/zilazol/price-crawler/internal/retailers"
	"github.com/zilazol/price-crawler/internal/schedule"
	"github.com/zilazol/price-crawler/internal/storage"
	"github.com/zilazol/price-crawler/internal/telemetry"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)

	logger.Info().Msg("Starting price crawler")

	ctx := context.Background()

	shutdownTelemetry := telemetry.MustInit(ctx, telemetry.GetConfigFromEnv())
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Warn().Err(err).Msg("Telemetry shutdown failed")
		}
	}()

	dbURL := config.GetDatabaseURL()
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL not set")
	}

	if err := database.Connect(
		ctx,
		dbURL,
		cfg.Database.MaxConnections,
		cfg.Database.MinConnections,
		cfg.Database.MaxConnLifetime,
		cfg.Database.MaxConnIdleTime,
	); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	logger.Info().Msg("Database connected")

	store, err := storage.NewLocalStorage(cfg.Storage.BasePath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Storage.BasePath).Msg("Failed to open archive storage")
	}

	catalog, err := retailers.Load(cfg.Crawler.CatalogPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.Crawler.CatalogPath).Msg("Failed to load retailer catalog")
	}
	logger.Info().Int("retailers", len(catalog.Retailers)).Msg("Catalog loaded")

	creds, err := credentials.New(catalog.PublishedPricesTenants())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load portal credentials")
	}

	headless := cfg.Crawler.Headless
	controller := crawl.NewController(&crawl.Deps{
		Launch: func() (browser.Browser, error) {
			opts := browser.DefaultLaunchOptions()
			opts.Headless = headless
			return browser.Launch(opts)
		},
		Gateway:     database.NewPG(),
		Store:       store,
		Credentials: creds,
		Throttle:    fetch.NewThrottle(cfg.Crawler.ThrottleRPS, 1),
		Log:         *logger,
	},
		crawl.WithConcurrency(cfg.Crawler.Concurrency),
		crawl.WithDeadline(cfg.Crawler.RunDeadline),
	)

	handlers.Configure(handlers.Deps{
		Catalog:  catalog,
		Store:    store,
		StartRun: controller.Run,
	})

	var schedulers []*schedule.Scheduler
	if cfg.Crawler.Schedule > 0 {
		crawlSched := schedule.New("crawl", func(ctx context.Context) error {
			_, err := controller.Run(ctx, catalog.Active(), "schedule")
			return err
		}, logger, cfg.Crawler.Schedule)
		go crawlSched.Start(ctx)
		schedulers = append(schedulers, crawlSched)
	}

	retention := schedule.New("retention",
		jobs.RetentionTask(store, cfg.Crawler.SnapshotRetention, cfg.Crawler.BlobRetention, logger),
		logger, 24*time.Hour)
	go retention.Start(ctx)
	schedulers = append(schedulers, retention)

	if cfg.Logging.Level == "info" || cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	setupMiddleware(router, logger)

	public := router.Group("/")
	public.Use(middleware.RateLimitMiddleware())
	{
		public.GET("/health", handlers.HealthCheck)
		public.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	internal := router.Group("/internal")
	internal.Use(middleware.InternalAuthMiddleware())
	internal.Use(middleware.ServiceRateLimitMiddleware(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst))
	{
		internal.GET("/health", handlers.HealthCheck)
		internal.GET("/retailers", handlers.ListRetailers)
		internal.GET("/retailers/:slug", handlers.GetRetailer)

		runs := internal.Group("/runs")
		{
			runs.GET("", handlers.ListRuns)
			runs.GET("/:runId", handlers.GetRun)
		}

		prices := internal.Group("/prices")
		{
			prices.GET("/:slug", handlers.GetLatestPrices)
		}

		admin := internal.Group("/admin")
		{
			admin.POST("/crawl/:selector", handlers.TriggerCrawl)
		}
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server...")
	for _, s := range schedulers {
		s.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited")
}

func initLogger(cfg config.LoggingConfig) *zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	logger := zerolog.New(output).Level(level).With().Timestamp().Str("service", "price-crawler").Logger()
	return &logger
}

func setupMiddleware(router *gin.Engine, logger *zerolog.Logger) {
	router.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		end := time.Now()
		latency := end.Sub(start)

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", query).
			Int("status", c.Writer.Status()).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Msg("HTTP request")
	})
}
