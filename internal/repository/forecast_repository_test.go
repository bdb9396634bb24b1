package repository_test

import (
	"context"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"temperature-forecast/internal/models"
	"temperature-forecast/internal/repository"
	"temperature-forecast/pkg/database"
	"temperature-forecast/pkg/logging"
	"temperature-forecast/pkg/metrics"
)

// testMetrics is shared across tests: prometheus collectors may only be
// registered once per process.
var testMetrics = metrics.NewCollector("test_repository")

func newTestRepo(t *testing.T) (repository.ForecastRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New(): %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := logging.NewStructuredLogger("test", "test", logging.ErrorLevel)
	logger.SetOutput(io.Discard)

	pg := database.NewPostgresDBFromConn(sqlx.NewDb(db, "sqlmock"), &database.Config{}, logger, testMetrics)
	return repository.NewForecastRepository(pg, logger, testMetrics), mock
}

func TestCreateLocation(t *testing.T) {
	repo, mock := newTestRepo(t)

	location := &models.Location{
		Name:      "madrid",
		Latitude:  40.4168,
		Longitude: -3.7038,
		CreatedAt: time.Now().UTC(),
	}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO locations")).
		WithArgs(location.Name, location.Latitude, location.Longitude, location.CreatedAt).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	if err := repo.CreateLocation(context.Background(), location); err != nil {
		t.Fatalf("CreateLocation() error = %v", err)
	}
	if location.ID != 7 {
		t.Errorf("ID = %d, want 7", location.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetLocationByName(t *testing.T) {
	repo, mock := newTestRepo(t)

	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM locations")).
		WithArgs("madrid").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "latitude", "longitude", "created_at"}).
			AddRow(int64(1), "madrid", 40.4168, -3.7038, created))

	location, err := repo.GetLocationByName(context.Background(), "madrid")
	if err != nil {
		t.Fatalf("GetLocationByName() error = %v", err)
	}
	if location.Name != "madrid" || location.ID != 1 {
		t.Errorf("location = %+v", location)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetLocationByName_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM locations")).
		WithArgs("atlantis").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "latitude", "longitude", "created_at"}))

	_, err := repo.GetLocationByName(context.Background(), "atlantis")

	var notFound *repository.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %v, want NotFoundError", err)
	}
	if notFound.Resource != "location" || notFound.ID != "atlantis" {
		t.Errorf("NotFoundError = %+v", notFound)
	}
	if notFound.IsTransient() {
		t.Error("NotFoundError should not be transient")
	}
}

func TestUpsertDailyTemperaturesBatch(t *testing.T) {
	repo, mock := newTestRepo(t)

	now := time.Now().UTC()
	temps := []*models.DailyTemperature{
		{LocationID: 1, Day: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), TemperatureCelsius: 12.5, SampleCount: 24, CreatedAt: now},
		{LocationID: 1, Day: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), TemperatureCelsius: 13.1, SampleCount: 24, CreatedAt: now},
	}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO daily_temperatures"))
	for _, temp := range temps {
		prep.ExpectExec().
			WithArgs(temp.LocationID, temp.Day, temp.TemperatureCelsius, temp.SampleCount, temp.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	if err := repo.UpsertDailyTemperaturesBatch(context.Background(), temps); err != nil {
		t.Fatalf("UpsertDailyTemperaturesBatch() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsertDailyTemperaturesBatch_Empty(t *testing.T) {
	repo, mock := newTestRepo(t)

	if err := repo.UpsertDailyTemperaturesBatch(context.Background(), nil); err != nil {
		t.Fatalf("empty batch should be a no-op, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no statements expected: %v", err)
	}
}

func TestUpsertDailyTemperaturesBatch_RollsBackOnError(t *testing.T) {
	repo, mock := newTestRepo(t)

	temps := []*models.DailyTemperature{
		{LocationID: 1, Day: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), TemperatureCelsius: 12.5, SampleCount: 24},
	}

	mock.ExpectBegin()
	prep := mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO daily_temperatures"))
	prep.ExpectExec().WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	if err := repo.UpsertDailyTemperaturesBatch(context.Background(), temps); err == nil {
		t.Fatal("expected error from failed insert")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetDailyTemperatures(t *testing.T) {
	repo, mock := newTestRepo(t)

	locationID := int64(1)
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs(locationID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	mock.ExpectQuery(regexp.QuoteMeta("FROM daily_temperatures")).
		WithArgs(locationID, 100, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "location_id", "day", "temperature_celsius", "sample_count", "created_at"}).
			AddRow(int64(10), locationID, day, 12.5, 24, day))

	temps, total, err := repo.GetDailyTemperatures(context.Background(), repository.TemperatureFilter{
		LocationID: &locationID,
		Limit:      100,
	})
	if err != nil {
		t.Fatalf("GetDailyTemperatures() error = %v", err)
	}
	if total != 1 || len(temps) != 1 {
		t.Errorf("total = %d, rows = %d, want 1/1", total, len(temps))
	}
	if temps[0].TemperatureCelsius != 12.5 {
		t.Errorf("TemperatureCelsius = %v", temps[0].TemperatureCelsius)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateForecastRun(t *testing.T) {
	repo, mock := newTestRepo(t)

	mae, rmse := 1.2, 1.5
	run := &models.ForecastRun{
		ID:             "11111111-2222-3333-4444-555555555555",
		LocationID:     1,
		OrderP:         2,
		OrderD:         0,
		OrderQ:         1,
		AIC:            287.3,
		MAE:            &mae,
		RMSE:           &rmse,
		HorizonDays:    2,
		TrainDays:      51,
		ValidationDays: 9,
		CreatedAt:      time.Now().UTC(),
	}
	points := []*models.ForecastPoint{
		{RunID: run.ID, Day: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), TemperatureCelsius: 12.5},
		{RunID: run.ID, Day: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), TemperatureCelsius: 13.1},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO forecast_runs")).
		WithArgs(run.ID, run.LocationID, run.OrderP, run.OrderD, run.OrderQ, run.AIC,
			run.MAE, run.RMSE, run.HorizonDays, run.TrainDays, run.ValidationDays, run.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep := mock.ExpectPrepare(regexp.QuoteMeta("INSERT INTO forecast_points"))
	for _, point := range points {
		prep.ExpectExec().
			WithArgs(run.ID, point.Day, point.TemperatureCelsius).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	if err := repo.CreateForecastRun(context.Background(), run, points); err != nil {
		t.Fatalf("CreateForecastRun() error = %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetForecastPoints_NotFound(t *testing.T) {
	repo, mock := newTestRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM forecast_points")).
		WithArgs("missing-run").
		WillReturnRows(sqlmock.NewRows([]string{"id", "run_id", "day", "temperature_celsius"}))

	_, err := repo.GetForecastPoints(context.Background(), "missing-run")

	var notFound *repository.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("error = %v, want NotFoundError", err)
	}
}
