package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"temperature-forecast/internal/earthdata"
	"temperature-forecast/internal/models"
	"temperature-forecast/internal/repository"
	"temperature-forecast/internal/series"
	"temperature-forecast/pkg/logging"
	"temperature-forecast/pkg/metrics"
)

// ArchiveClient is the slice of an Earthdata session the acquisition
// service depends on.
type ArchiveClient interface {
	FetchSeries(ctx context.Context, coords earthdata.Coordinates, from, to time.Time) ([]series.Sample, error)
}

// AcquisitionService pulls hourly archive readings for a city, averages them
// into daily Celsius records, and persists them.
type AcquisitionService struct {
	client  ArchiveClient
	repo    repository.ForecastRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// AcquisitionResult contains acquisition statistics
type AcquisitionResult struct {
	Location   string
	LocationID int64
	Samples    int
	Days       int
	Start      time.Time
	End        time.Time
	Duration   time.Duration
}

// NewAcquisitionService creates a new acquisition service
func NewAcquisitionService(client ArchiveClient, repo repository.ForecastRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *AcquisitionService {
	return &AcquisitionService{
		client:  client,
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// AcquireLocation fetches the archive temperature series for a supported
// city over a date range and stores the daily averages.
func (s *AcquisitionService) AcquireLocation(ctx context.Context, name string, from, to time.Time) (*AcquisitionResult, error) {
	startTime := time.Now()

	coords, err := earthdata.LookupLocation(name)
	if err != nil {
		return nil, err
	}
	normalized := strings.ToLower(strings.TrimSpace(name))

	s.logger.Info(ctx, "[ACQUIRE_START] Starting data acquisition", logging.Fields{
		"location": normalized,
		"from":     from.Format("2006-01-02"),
		"to":       to.Format("2006-01-02"),
		"stage":    "INITIALIZATION",
	})

	location := &models.Location{
		Name:      normalized,
		Latitude:  coords.Latitude,
		Longitude: coords.Longitude,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateLocation(ctx, location); err != nil {
		return nil, fmt.Errorf("failed to register location: %w", err)
	}

	samples, err := s.client.FetchSeries(ctx, coords, from, to)
	if err != nil {
		s.metrics.RecordAcquisitionError("fetch_error")
		return nil, fmt.Errorf("failed to fetch archive series: %w", err)
	}

	averages, err := series.AverageByDay(samples)
	if err != nil {
		s.metrics.RecordAcquisitionError("aggregation_error")
		return nil, fmt.Errorf("failed to aggregate samples: %w", err)
	}

	temps := make([]*models.DailyTemperature, len(averages))
	now := time.Now().UTC()
	for i, avg := range averages {
		temps[i] = &models.DailyTemperature{
			LocationID:         location.ID,
			Day:                avg.Day,
			TemperatureCelsius: avg.Celsius,
			SampleCount:        avg.Samples,
			CreatedAt:          now,
		}
	}

	if err := s.repo.UpsertDailyTemperaturesBatch(ctx, temps); err != nil {
		s.metrics.RecordAcquisitionError("persistence_error")
		return nil, fmt.Errorf("failed to persist daily temperatures: %w", err)
	}

	result := &AcquisitionResult{
		Location:   normalized,
		LocationID: location.ID,
		Samples:    len(samples),
		Days:       len(averages),
		Start:      averages[0].Day,
		End:        averages[len(averages)-1].Day,
		Duration:   time.Since(startTime),
	}

	s.metrics.AcquisitionDuration.Observe(result.Duration.Seconds())

	s.logger.Info(ctx, "[ACQUIRE_COMPLETE] Data acquisition completed", logging.Fields{
		"location":         result.Location,
		"samples":          result.Samples,
		"days":             result.Days,
		"duration_seconds": result.Duration.Seconds(),
		"stage":            "COMPLETE",
	})

	return result, nil
}

// GetDailyTemperatures retrieves stored daily temperatures with filtering
func (s *AcquisitionService) GetDailyTemperatures(ctx context.Context, filter repository.TemperatureFilter) ([]*models.DailyTemperature, int, error) {
	return s.repo.GetDailyTemperatures(ctx, filter)
}

// GetLocations retrieves all registered locations
func (s *AcquisitionService) GetLocations(ctx context.Context, limit, offset int) ([]*models.Location, error) {
	return s.repo.ListLocations(ctx, limit, offset)
}

// GetLocation retrieves a registered location by name
func (s *AcquisitionService) GetLocation(ctx context.Context, name string) (*models.Location, error) {
	return s.repo.GetLocationByName(ctx, strings.ToLower(strings.TrimSpace(name)))
}
