package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sartorproj/goarima/timeseries"

	"temperature-forecast/internal/config"
	"temperature-forecast/internal/earthdata"
	"temperature-forecast/internal/forecast"
	"temperature-forecast/internal/report"
	"temperature-forecast/internal/repository"
	"temperature-forecast/internal/series"
	"temperature-forecast/internal/services"
	"temperature-forecast/pkg/database"
	"temperature-forecast/pkg/logging"
	"temperature-forecast/pkg/metrics"
)

func main() {
	// Parse command-line flags
	city := flag.String("city", "", "City to acquire and forecast (e.g. madrid)")
	days := flag.Int("days", 365, "Days of history to acquire from the archive")
	horizon := flag.Int("horizon", 7, "Days to forecast beyond the last observation")
	maxP := flag.Int("max-p", 3, "Maximum autoregressive order to consider")
	maxD := flag.Int("max-d", 1, "Maximum differencing order to consider")
	maxQ := flag.Int("max-q", 3, "Maximum moving-average order to consider")
	csvPath := flag.String("csv", "", "Forecast a local daily Celsius CSV instead of the archive")
	login := flag.Bool("login", false, "Store archive credentials and exit")
	username := flag.String("username", "", "Earthdata username for -login")
	password := flag.String("password", "", "Earthdata password for -login")
	flag.Parse()

	if *login {
		if err := saveCredentials(*username, *password); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to store credentials: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Credentials stored")
		return
	}

	if *city == "" && *csvPath == "" {
		fmt.Fprintln(os.Stderr, "Either -city or -csv is required")
		fmt.Fprintf(os.Stderr, "Supported cities: %s\n", strings.Join(earthdata.LocationNames(), ", "))
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logLevel := logging.InfoLevel
	if cfg.Logging.Level == "debug" {
		logLevel = logging.DebugLevel
	}

	logger := logging.NewStructuredLogger("forecaster", "1.0.0", logLevel)

	ctx := context.Background()
	logger.Info(ctx, "[FORECASTER_START] Starting forecaster", logging.Fields{
		"version": "1.0.0",
		"city":    *city,
		"csv":     *csvPath,
		"horizon": *horizon,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("temperature_forecaster")

	opts := services.ForecastOptions{
		MaxP:          *maxP,
		MaxD:          *maxD,
		MaxQ:          *maxQ,
		TrainFraction: cfg.Forecast.TrainFraction,
		HorizonDays:   *horizon,
	}

	if *csvPath != "" {
		if err := forecastCSV(ctx, *csvPath, *horizon, opts, logger, metricsCollector); err != nil {
			logger.Fatal(ctx, "[FORECASTER_ERROR] CSV forecast failed", logging.Fields{
				"csv": *csvPath,
			}, err)
		}
		return
	}

	if err := forecastCity(ctx, cfg, *city, *days, *horizon, opts, logger, metricsCollector); err != nil {
		logger.Fatal(ctx, "[FORECASTER_ERROR] Forecast failed", logging.Fields{
			"city": *city,
		}, err)
	}
}

// saveCredentials persists archive credentials for later runs.
func saveCredentials(username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("-username and -password are required with -login")
	}
	store, err := earthdata.NewCredentialStore()
	if err != nil {
		return err
	}
	return store.Save(earthdata.Credentials{Username: username, Password: password})
}

// forecastCSV selects and forecasts a local daily Celsius series without
// touching the archive or the database.
func forecastCSV(ctx context.Context, path string, horizon int, opts services.ForecastOptions, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) error {
	ts, err := timeseries.LoadCSV(path, nil)
	if err != nil {
		return fmt.Errorf("failed to load CSV: %w", err)
	}

	daily, err := series.NewDaily(ts.Timestamps, ts.Values)
	if err != nil {
		return fmt.Errorf("CSV is not a gap-free daily series: %w", err)
	}

	forecastService := services.NewForecastService(nil, forecast.NewArimaFitter(), opts, logger, metricsCollector)

	sf, err := forecastService.ForecastSeries(ctx, daily, nil, horizon)
	if err != nil {
		return err
	}

	printSummary(path, daily.Start(), daily.End(), sf)
	return nil
}

// forecastCity acquires the archive series for a city, stores it, runs the
// forecast, and prints the result.
func forecastCity(ctx context.Context, cfg *config.Config, city string, days, horizon int, opts services.ForecastOptions, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) error {
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
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	forecastRepo := repository.NewForecastRepository(db, logger, metricsCollector)

	creds, err := resolveCredentials(cfg)
	if err != nil {
		return err
	}

	session, err := earthdata.NewSession(ctx, earthdata.Config{
		TokenURL:   cfg.Earthdata.TokenURL,
		SearchURL:  cfg.Earthdata.SearchURL,
		SeriesURL:  cfg.Earthdata.SeriesURL,
		Timeout:    cfg.Earthdata.Timeout,
		MaxRetries: cfg.Earthdata.MaxRetries,
	}, creds, logger)
	if err != nil {
		return err
	}

	acquisitionService := services.NewAcquisitionService(session, forecastRepo, logger, metricsCollector)
	forecastService := services.NewForecastService(forecastRepo, forecast.NewArimaFitter(), opts, logger, metricsCollector)

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -days)

	acquisition, err := acquisitionService.AcquireLocation(ctx, city, from, to)
	if err != nil {
		return err
	}

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("ACQUISITION COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Location:  %s\n", acquisition.Location)
	fmt.Printf("Samples:   %d\n", acquisition.Samples)
	fmt.Printf("Days:      %d (%s to %s)\n", acquisition.Days,
		acquisition.Start.Format("2006-01-02"), acquisition.End.Format("2006-01-02"))
	fmt.Printf("Duration:  %v\n", acquisition.Duration)

	result, err := forecastService.Run(ctx, services.RunRequest{
		LocationName: city,
		HorizonDays:  horizon,
	})
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("FORECAST COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Run ID: %s\n\n", result.Run.ID)
	printSummary(acquisition.Location, acquisition.Start, acquisition.End, result.Forecast)

	return nil
}

// resolveCredentials prefers configured credentials over the stored file.
func resolveCredentials(cfg *config.Config) (earthdata.Credentials, error) {
	if cfg.Earthdata.Username != "" && cfg.Earthdata.Password != "" {
		return earthdata.Credentials{
			Username: cfg.Earthdata.Username,
			Password: cfg.Earthdata.Password,
		}, nil
	}

	store, err := earthdata.NewCredentialStore()
	if err != nil {
		return earthdata.Credentials{}, err
	}
	return store.Load()
}

func printSummary(location string, start, end time.Time, sf *services.SeriesForecast) {
	summary := &report.RunSummary{
		Location:    location,
		SeriesStart: start,
		SeriesEnd:   end,
		SeriesDays:  sf.TrainDays + sf.ValidationDays,
		TrainDays:   sf.TrainDays,
		Order:       sf.Order,
		AIC:         sf.AIC,
		Accuracy:    sf.Accuracy,
		Attempts:    sf.Attempts,
		Days:        sf.Days,
		Values:      sf.Values,
	}
	fmt.Print(summary.Render())
}
