package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"temperature-forecast/internal/models"
	"temperature-forecast/pkg/database"
	"temperature-forecast/pkg/logging"
	"temperature-forecast/pkg/metrics"
)

// ForecastRepository provides data access for locations, daily temperatures,
// and forecast runs
type ForecastRepository interface {
	// Location operations
	CreateLocation(ctx context.Context, location *models.Location) error
	GetLocationByName(ctx context.Context, name string) (*models.Location, error)
	ListLocations(ctx context.Context, limit, offset int) ([]*models.Location, error)

	// Daily temperature operations
	UpsertDailyTemperaturesBatch(ctx context.Context, temps []*models.DailyTemperature) error
	GetDailyTemperatures(ctx context.Context, filter TemperatureFilter) ([]*models.DailyTemperature, int, error)

	// Forecast run operations
	CreateForecastRun(ctx context.Context, run *models.ForecastRun, points []*models.ForecastPoint) error
	GetForecastRuns(ctx context.Context, filter RunFilter) ([]*models.ForecastRun, int, error)
	GetForecastPoints(ctx context.Context, runID string) ([]*models.ForecastPoint, error)

	// Utility operations
	HealthCheck(ctx context.Context) error
}

// TemperatureFilter defines filters for querying daily temperatures
type TemperatureFilter struct {
	LocationID *int64
	StartDate  *time.Time
	EndDate    *time.Time
	Limit      int
	Offset     int
}

// RunFilter defines filters for querying forecast runs
type RunFilter struct {
	LocationID *int64
	Limit      int
	Offset     int
}

// forecastRepository implements ForecastRepository
type forecastRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewForecastRepository creates a new forecast repository
func NewForecastRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) ForecastRepository {
	return &forecastRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// CreateLocation creates a new location, filling in the generated ID. An
// existing location with the same name is reused.
func (r *forecastRepository) CreateLocation(ctx context.Context, location *models.Location) error {
	query := `
		INSERT INTO locations (name, latitude, longitude, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (name) DO UPDATE SET
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude
		RETURNING id
	`

	err := r.db.DB().QueryRowContext(ctx, query,
		location.Name,
		location.Latitude,
		location.Longitude,
		location.CreatedAt,
	).Scan(&location.ID)

	if err != nil {
		return fmt.Errorf("failed to create location: %w", err)
	}

	r.logger.Debug(ctx, "[REPO_CREATE_LOCATION] Location created", logging.Fields{
		"location_id": location.ID,
		"name":        location.Name,
	})

	return nil
}

// GetLocationByName retrieves a location by its name
func (r *forecastRepository) GetLocationByName(ctx context.Context, name string) (*models.Location, error) {
	query := `
		SELECT id, name, latitude, longitude, created_at
		FROM locations
		WHERE name = $1
	`

	var location models.Location
	err := r.db.GetContext(ctx, "get_location", &location, query, name)

	if err == sql.ErrNoRows {
		return nil, &NotFoundError{
			Resource: "location",
			ID:       name,
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get location: %w", err)
	}

	return &location, nil
}

// ListLocations retrieves all locations with pagination
func (r *forecastRepository) ListLocations(ctx context.Context, limit, offset int) ([]*models.Location, error) {
	query := `
		SELECT id, name, latitude, longitude, created_at
		FROM locations
		ORDER BY name
		LIMIT $1 OFFSET $2
	`

	var locations []*models.Location
	err := r.db.SelectContext(ctx, "list_locations", &locations, query, limit, offset)

	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}

	return locations, nil
}

// UpsertDailyTemperaturesBatch inserts or updates daily temperatures in a
// single transaction
func (r *forecastRepository) UpsertDailyTemperaturesBatch(ctx context.Context, temps []*models.DailyTemperature) error {
	if len(temps) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		r.metrics.AcquisitionBatchSize.Observe(float64(len(temps)))
		r.logger.Debug(ctx, "[REPO_BATCH_UPSERT] Batch upsert completed", logging.Fields{
			"count":       len(temps),
			"duration_ms": duration.Milliseconds(),
		})
	}()

	// Begin transaction
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Prepare statement
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_temperatures (
			location_id, day, temperature_celsius, sample_count, created_at
		)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (location_id, day) DO UPDATE SET
			temperature_celsius = EXCLUDED.temperature_celsius,
			sample_count = EXCLUDED.sample_count
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	// Execute batch
	for _, temp := range temps {
		_, err := stmt.ExecContext(ctx,
			temp.LocationID,
			temp.Day,
			temp.TemperatureCelsius,
			temp.SampleCount,
			temp.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert daily temperature: %w", err)
		}
	}

	// Commit transaction
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.AcquisitionSamplesTotal.Add(float64(len(temps)))

	return nil
}

// GetDailyTemperatures retrieves daily temperatures with filtering and pagination
func (r *forecastRepository) GetDailyTemperatures(ctx context.Context, filter TemperatureFilter) ([]*models.DailyTemperature, int, error) {
	// Build query with filters
	query := `
		SELECT id, location_id, day, temperature_celsius, sample_count, created_at
		FROM daily_temperatures
		WHERE 1=1
	`
	args := []interface{}{}
	argNum := 1

	if filter.LocationID != nil {
		query += fmt.Sprintf(" AND location_id = $%d", argNum)
		args = append(args, *filter.LocationID)
		argNum++
	}

	if filter.StartDate != nil {
		query += fmt.Sprintf(" AND day >= $%d", argNum)
		args = append(args, *filter.StartDate)
		argNum++
	}

	if filter.EndDate != nil {
		query += fmt.Sprintf(" AND day <= $%d", argNum)
		args = append(args, *filter.EndDate)
		argNum++
	}

	// Get total count
	countQuery := "SELECT COUNT(*) FROM (" + query + ") AS count_query"
	var totalCount int
	err := r.db.GetContext(ctx, "count_temperatures", &totalCount, countQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count daily temperatures: %w", err)
	}

	// Add ordering and pagination
	query += " ORDER BY day, location_id"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	// Execute query
	var temps []*models.DailyTemperature
	err = r.db.SelectContext(ctx, "get_temperatures", &temps, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get daily temperatures: %w", err)
	}

	return temps, totalCount, nil
}

// CreateForecastRun persists a run and its predicted points in a single
// transaction
func (r *forecastRepository) CreateForecastRun(ctx context.Context, run *models.ForecastRun, points []*models.ForecastPoint) error {
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	runQuery := `
		INSERT INTO forecast_runs (
			id, location_id, order_p, order_d, order_q, aic, mae, rmse,
			horizon_days, train_days, validation_days, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = tx.ExecContext(ctx, runQuery,
		run.ID,
		run.LocationID,
		run.OrderP,
		run.OrderD,
		run.OrderQ,
		run.AIC,
		run.MAE,
		run.RMSE,
		run.HorizonDays,
		run.TrainDays,
		run.ValidationDays,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create forecast run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO forecast_points (run_id, day, temperature_celsius)
		VALUES ($1, $2, $3)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, point := range points {
		_, err := stmt.ExecContext(ctx, run.ID, point.Day, point.TemperatureCelsius)
		if err != nil {
			return fmt.Errorf("failed to insert forecast point: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.ForecastRunsTotal.Inc()
	r.logger.Debug(ctx, "[REPO_CREATE_RUN] Forecast run persisted", logging.Fields{
		"run_id":      run.ID,
		"location_id": run.LocationID,
		"points":      len(points),
	})

	return nil
}

// GetForecastRuns retrieves forecast runs with filtering and pagination
func (r *forecastRepository) GetForecastRuns(ctx context.Context, filter RunFilter) ([]*models.ForecastRun, int, error) {
	// Build query with filters
	query := `
		SELECT id, location_id, order_p, order_d, order_q, aic, mae, rmse,
		       horizon_days, train_days, validation_days, created_at
		FROM forecast_runs
		WHERE 1=1
	`
	args := []interface{}{}
	argNum := 1

	if filter.LocationID != nil {
		query += fmt.Sprintf(" AND location_id = $%d", argNum)
		args = append(args, *filter.LocationID)
		argNum++
	}

	// Get total count
	countQuery := "SELECT COUNT(*) FROM (" + query + ") AS count_query"
	var totalCount int
	err := r.db.GetContext(ctx, "count_runs", &totalCount, countQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count forecast runs: %w", err)
	}

	// Add ordering and pagination
	query += " ORDER BY created_at DESC"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	// Execute query
	var runs []*models.ForecastRun
	err = r.db.SelectContext(ctx, "get_runs", &runs, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get forecast runs: %w", err)
	}

	return runs, totalCount, nil
}

// GetForecastPoints retrieves the predicted points of a run in day order
func (r *forecastRepository) GetForecastPoints(ctx context.Context, runID string) ([]*models.ForecastPoint, error) {
	query := `
		SELECT id, run_id, day, temperature_celsius
		FROM forecast_points
		WHERE run_id = $1
		ORDER BY day
	`

	var points []*models.ForecastPoint
	err := r.db.SelectContext(ctx, "get_points", &points, query, runID)

	if err != nil {
		return nil, fmt.Errorf("failed to get forecast points: %w", err)
	}

	if len(points) == 0 {
		return nil, &NotFoundError{
			Resource: "forecast_run",
			ID:       runID,
		}
	}

	return points, nil
}

// HealthCheck performs a repository health check
func (r *forecastRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}
