package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Vansh-Dwivedi/5wh-sub000/internal/cache"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/clock"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/config"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/dashboard"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/geo"
	httphandler "github.com/Vansh-Dwivedi/5wh-sub000/internal/http"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/lifecycle"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/models"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/observability"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/person"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/quote"
	"github.com/Vansh-Dwivedi/5wh-sub000/internal/weather"
)

func main() {
	_ = godotenv.Load()

	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	clk := clock.Real{}

	var weatherCache cache.Cache[models.WeatherReading]
	var photoCache cache.Cache[string]
	var cachePing func() error
	switch cfg.CacheBackend {
	case "memcached":
		wc, err := cache.NewMemcached[models.WeatherReading](cfg.MemcachedAddrs, "weather", cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		if err != nil {
			logger.Fatal("memcached weather cache", zap.Error(err))
		}
		pc, err := cache.NewMemcached[string](cfg.MemcachedAddrs, "photo", cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		if err != nil {
			logger.Fatal("memcached photo cache", zap.Error(err))
		}
		weatherCache = wc
		photoCache = pc
		cachePing = wc.Ping
		logger.Info("cache backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
	default:
		weatherCache = cache.NewInMemory[models.WeatherReading](clk)
		photoCache = cache.NewInMemory[string](clk)
		logger.Info("cache backend: in_memory")
	}

	var weatherClient weather.Client
	if cfg.WeatherAPIKey != "" {
		wc, err := weather.NewAPIClientWithRetry(
			cfg.WeatherAPIKey,
			cfg.WeatherAPIURL,
			cfg.WeatherAPITimeout,
			cfg.RetryAttempts,
			cfg.RetryBaseDelay,
			cfg.RetryMaxDelay,
		)
		if err != nil {
			logger.Fatal("weather client", zap.Error(err))
		}
		weatherClient = wc
	} else {
		logger.Warn("no weather API key configured; dashboard weather panel will be empty")
		weatherClient = weather.Unconfigured{}
	}
	weatherService := weather.NewService(weatherClient, weatherCache, cfg.WeatherTTL, logger)

	quotable := quote.NewQuotableClient(cfg.QuoteAPIURL, cfg.QuoteAPITimeout, 0, 0)
	quoteService := quote.NewService(clk, quotable, cfg.ShareBaseURL, logger)

	searcher := person.NewImageSearchClient(cfg.ImageAPIURL, cfg.ImageAPIKey, cfg.ImageAPITimeout)
	personService := person.NewService(clk, searcher, photoCache, cfg.PhotoTTL, cfg.AvatarURL, logger)

	resolver := geo.NewResolver(cfg.GeoProviderURL, clk, logger)

	orch := dashboard.New(resolver, quoteService, personService, weatherService, clk, logger)
	if cfg.WarmOnStart {
		warmCtx, warmCancel := context.WithTimeout(context.Background(), 30*time.Second)
		orch.Refresh(warmCtx, nil, "", "startup")
		warmCancel()
	}
	if err := orch.Start(cfg.RefreshInterval); err != nil {
		logger.Fatal("dashboard scheduler", zap.Error(err))
	}

	healthConfig := &httphandler.HealthConfig{
		WeatherKeyConfigured: cfg.WeatherAPIKey != "",
		ProviderErrorWindow:  cfg.ProviderErrorWindow,
		ProviderErrorPct:     cfg.ProviderErrorPct,
		StartTime:            time.Now(),
	}
	if cachePing != nil {
		healthConfig.CachePing = cachePing
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	handler := httphandler.NewHandler(orch, quoteService, personService, weatherService, healthConfig, logger)

	router := mux.NewRouter()
	router.Use(httphandler.CorrelationIDMiddleware(logger))
	router.Use(httphandler.MetricsMiddleware)
	router.HandleFunc("/health", handler.GetHealth).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler())

	api := router.PathPrefix("/api/dashboard").Subrouter()
	api.Use(httphandler.RateLimitMiddleware(limiter))
	api.Use(httphandler.TimeoutMiddleware(cfg.RequestTimeout))
	api.HandleFunc("", handler.GetDashboard).Methods("GET")
	api.HandleFunc("/quote", handler.GetQuote).Methods("GET")
	api.HandleFunc("/quotes/search", handler.SearchQuotes).Methods("GET")
	api.HandleFunc("/quotes/categories", handler.GetQuoteCategories).Methods("GET")
	api.HandleFunc("/quotes", handler.ListQuotes).Methods("GET")
	api.HandleFunc("/quotes", handler.PostQuote).Methods("POST")
	api.HandleFunc("/person", handler.GetPerson).Methods("GET")
	api.HandleFunc("/persons", handler.ListPersons).Methods("GET")
	api.HandleFunc("/persons", handler.PostPerson).Methods("POST")
	api.HandleFunc("/regions", handler.GetRegions).Methods("GET")
	api.HandleFunc("/weather", handler.GetWeatherPanel).Methods("GET")
	api.HandleFunc("/weather/{city}", handler.GetCityWeather).Methods("GET")

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	orch.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httphandler.InFlightCount()
	logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownInFlightTimeout)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, cfg.ShutdownInFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}

	logger.Info("shutdown complete")
}
