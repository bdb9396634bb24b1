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
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"temperature-forecast/internal/config"
	"temperature-forecast/internal/earthdata"
	"temperature-forecast/internal/forecast"
	"temperature-forecast/internal/handlers"
	"temperature-forecast/internal/repository"
	"temperature-forecast/internal/services"
	"temperature-forecast/pkg/database"
	"temperature-forecast/pkg/logging"
	"temperature-forecast/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logLevel := logging.InfoLevel
	if cfg.Logging.Level == "debug" {
		logLevel = logging.DebugLevel
	}

	logger := logging.NewStructuredLogger("forecast-api", "1.0.0", logLevel)

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting temperature forecast API server", logging.Fields{
		"version":     "1.0.0",
		"server_host": cfg.Server.Host,
		"server_port": cfg.Server.Port,
		"db_host":     cfg.Database.Host,
		"db_name":     cfg.Database.Database,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("temperature_forecast")

	// Initialize database
	dbConfig := &database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Database:        cfg.Database.Database,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}

	db, err := database.NewPostgresDB(dbConfig, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	// Initialize repository
	forecastRepo := repository.NewForecastRepository(db, logger, metricsCollector)

	// Establish the archive session. The server keeps working without one,
	// but acquisition requests will fail until credentials are configured.
	var archive services.ArchiveClient
	if cfg.Earthdata.Username != "" {
		session, err := earthdata.NewSession(ctx, earthdata.Config{
			TokenURL:   cfg.Earthdata.TokenURL,
			SearchURL:  cfg.Earthdata.SearchURL,
			SeriesURL:  cfg.Earthdata.SeriesURL,
			Timeout:    cfg.Earthdata.Timeout,
			MaxRetries: cfg.Earthdata.MaxRetries,
		}, earthdata.Credentials{
			Username: cfg.Earthdata.Username,
			Password: cfg.Earthdata.Password,
		}, logger)
		if err != nil {
			logger.Fatal(ctx, "[STARTUP_ERROR] Failed to establish archive session", logging.Fields{}, err)
		}
		archive = session
	} else {
		logger.Warn(ctx, "[STARTUP] No archive credentials configured, acquisition disabled", logging.Fields{})
	}

	// Initialize services
	acquisitionService := services.NewAcquisitionService(archive, forecastRepo, logger, metricsCollector)
	forecastService := services.NewForecastService(forecastRepo, forecast.NewArimaFitter(), services.ForecastOptions{
		MaxP:          cfg.Forecast.MaxP,
		MaxD:          cfg.Forecast.MaxD,
		MaxQ:          cfg.Forecast.MaxQ,
		TrainFraction: cfg.Forecast.TrainFraction,
		HorizonDays:   cfg.Forecast.HorizonDays,
	}, logger, metricsCollector)

	// Initialize handlers
	forecastHandler := handlers.NewForecastHandler(acquisitionService, forecastService, logger, metricsCollector)

	// Setup router
	router := mux.NewRouter()

	// Register routes
	forecastHandler.RegisterRoutes(router)

	// API documentation
	router.HandleFunc("/api/docs/openapi.json", handlers.OpenAPISpec).Methods("GET")
	router.HandleFunc("/api/docs", handlers.SwaggerUI).Methods("GET")

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
