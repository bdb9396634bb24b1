package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sartorproj/goarima/stats"
	"github.com/sartorproj/goarima/timeseries"

	"temperature-forecast/internal/forecast"
	"temperature-forecast/internal/models"
	"temperature-forecast/internal/report"
	"temperature-forecast/internal/repository"
	"temperature-forecast/internal/series"
	"temperature-forecast/pkg/logging"
	"temperature-forecast/pkg/metrics"
)

// maxSeriesDays bounds how much history a run loads from storage.
const maxSeriesDays = 36500

// ForecastOptions configures candidate enumeration and splitting.
type ForecastOptions struct {
	MaxP          int
	MaxD          int
	MaxQ          int
	TrainFraction float64
	HorizonDays   int
}

// RunRequest describes one forecast run against stored data.
type RunRequest struct {
	LocationName string
	HorizonDays  int
	// Candidates overrides the derived candidate grid when non-empty.
	Candidates []forecast.Order
}

// SeriesForecast is the outcome of selecting and forecasting over one series.
type SeriesForecast struct {
	Order          forecast.Order
	AIC            float64
	Accuracy       *report.Accuracy
	Attempts       []forecast.Attempt
	TrainDays      int
	ValidationDays int
	Days           []time.Time
	Values         []float64
}

// RunResult pairs the persisted run with its computed forecast.
type RunResult struct {
	Run      *models.ForecastRun
	Points   []*models.ForecastPoint
	Forecast *SeriesForecast
}

// ForecastService selects the best ARIMA order for a location's stored
// series and produces its forecast.
type ForecastService struct {
	repo     repository.ForecastRepository
	fitter   forecast.Fitter
	selector *forecast.Selector
	opts     ForecastOptions
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
}

// NewForecastService creates a new forecast service. The repository may be
// nil when only ForecastSeries is used.
func NewForecastService(repo repository.ForecastRepository, fitter forecast.Fitter, opts ForecastOptions, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *ForecastService {
	if opts.MaxP <= 0 {
		opts.MaxP = 3
	}
	if opts.MaxD < 0 {
		opts.MaxD = 0
	}
	if opts.MaxQ <= 0 {
		opts.MaxQ = 3
	}
	if opts.TrainFraction <= 0 || opts.TrainFraction > 1 {
		opts.TrainFraction = 0.85
	}
	if opts.HorizonDays <= 0 {
		opts.HorizonDays = 7
	}

	return &ForecastService{
		repo:     repo,
		fitter:   fitter,
		selector: forecast.NewSelector(fitter, logger, metricsCollector),
		opts:     opts,
		logger:   logger,
		metrics:  metricsCollector,
	}
}

// ForecastSeries selects the minimum-AIC candidate on the training split,
// scores it against the held-out suffix, then re-fits the winning order on
// the full series to produce the forecast.
func (s *ForecastService) ForecastSeries(ctx context.Context, daily *series.Daily, candidates []forecast.Order, horizon int) (*SeriesForecast, error) {
	if horizon < 1 {
		return nil, fmt.Errorf("horizon must be at least 1 day, got %d", horizon)
	}

	if len(candidates) == 0 {
		var err error
		candidates, err = s.candidateGrid(ctx, daily)
		if err != nil {
			return nil, err
		}
	}

	train, validation, err := daily.Split(s.opts.TrainFraction)
	if err != nil {
		return nil, err
	}

	selection, err := s.selector.Select(ctx, train.Values(), candidates)
	if err != nil {
		return nil, err
	}

	var accuracy *report.Accuracy
	if validation.Len() > 0 {
		predicted, err := selection.Model.Forecast(validation.Len())
		if err != nil {
			s.logger.Warn(ctx, "[FORECAST_VALIDATION_SKIP] Validation forecast failed", logging.Fields{
				"order": selection.Order.String(),
			})
		} else {
			accuracy, err = report.Score(validation.Values(), predicted)
			if err != nil {
				return nil, fmt.Errorf("failed to score validation split: %w", err)
			}
		}
	}

	// Re-fit the winning order on the complete series so the forecast uses
	// every observation. A failed re-fit falls back to the training fit.
	final := selection.Model
	if validation.Len() > 0 {
		refit, err := s.fitter.Fit(daily.Values(), selection.Order)
		if err != nil {
			s.logger.Warn(ctx, "[FORECAST_REFIT_FALLBACK] Full-series re-fit failed, using training fit", logging.Fields{
				"order": selection.Order.String(),
			})
		} else {
			final = refit
		}
	}

	values, err := final.Forecast(horizon)
	if err != nil {
		return nil, fmt.Errorf("failed to forecast %d days: %w", horizon, err)
	}

	return &SeriesForecast{
		Order:          selection.Order,
		AIC:            selection.AIC,
		Accuracy:       accuracy,
		Attempts:       selection.Attempts,
		TrainDays:      train.Len(),
		ValidationDays: validation.Len(),
		Days:           daily.FutureDays(horizon),
		Values:         values,
	}, nil
}

// Run loads a location's stored series, forecasts it, and persists the run.
func (s *ForecastService) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	name := strings.ToLower(strings.TrimSpace(req.LocationName))
	location, err := s.repo.GetLocationByName(ctx, name)
	if err != nil {
		return nil, err
	}

	daily, err := s.loadSeries(ctx, location.ID)
	if err != nil {
		return nil, err
	}

	horizon := req.HorizonDays
	if horizon <= 0 {
		horizon = s.opts.HorizonDays
	}

	sf, err := s.ForecastSeries(ctx, daily, req.Candidates, horizon)
	if err != nil {
		return nil, err
	}

	run := &models.ForecastRun{
		ID:             uuid.NewString(),
		LocationID:     location.ID,
		OrderP:         sf.Order.P,
		OrderD:         sf.Order.D,
		OrderQ:         sf.Order.Q,
		AIC:            sf.AIC,
		HorizonDays:    horizon,
		TrainDays:      sf.TrainDays,
		ValidationDays: sf.ValidationDays,
		CreatedAt:      time.Now().UTC(),
	}
	if sf.Accuracy != nil {
		mae, rmse := sf.Accuracy.MAE, sf.Accuracy.RMSE
		run.MAE = &mae
		run.RMSE = &rmse
	}

	points := make([]*models.ForecastPoint, len(sf.Values))
	for i, v := range sf.Values {
		points[i] = &models.ForecastPoint{
			RunID:              run.ID,
			Day:                sf.Days[i],
			TemperatureCelsius: v,
		}
	}

	if err := s.repo.CreateForecastRun(ctx, run, points); err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "[FORECAST_RUN_COMPLETE] Forecast run persisted", logging.Fields{
		"run_id":   run.ID,
		"location": name,
		"order":    run.ModelOrder(),
		"aic":      run.AIC,
		"horizon":  horizon,
	})

	return &RunResult{Run: run, Points: points, Forecast: sf}, nil
}

// loadSeries reads a location's stored daily temperatures and assembles the
// gap-free series model selection requires.
func (s *ForecastService) loadSeries(ctx context.Context, locationID int64) (*series.Daily, error) {
	temps, _, err := s.repo.GetDailyTemperatures(ctx, repository.TemperatureFilter{
		LocationID: &locationID,
		Limit:      maxSeriesDays,
	})
	if err != nil {
		return nil, err
	}
	if len(temps) == 0 {
		return nil, &repository.NotFoundError{
			Resource: "daily_temperatures",
			ID:       fmt.Sprintf("location %d", locationID),
		}
	}

	days := make([]time.Time, len(temps))
	values := make([]float64, len(temps))
	for i, t := range temps {
		days[i] = t.Day
		values[i] = t.TemperatureCelsius
	}

	daily, err := series.NewDaily(days, values)
	if err != nil {
		return nil, fmt.Errorf("stored series for location %d is not forecastable: %w", locationID, err)
	}
	return daily, nil
}

// candidateGrid derives the candidate orders for a series. A unit-root test
// on the observations caps the differencing component, then all (p, q)
// combinations up to the configured maxima are enumerated.
func (s *ForecastService) candidateGrid(ctx context.Context, daily *series.Daily) ([]forecast.Order, error) {
	maxD := s.opts.MaxD
	if maxD > 0 {
		d := stats.NDiffs(timeseries.New(daily.Values()), maxD, "adf")
		if d < maxD {
			maxD = d
		}
		s.logger.Debug(ctx, "[FORECAST_DIFFERENCING] Differencing bound derived", logging.Fields{
			"max_d": maxD,
		})
	}

	return forecast.Grid(s.opts.MaxP, maxD, s.opts.MaxQ)
}

// GetForecastRuns retrieves stored forecast runs with filtering
func (s *ForecastService) GetForecastRuns(ctx context.Context, filter repository.RunFilter) ([]*models.ForecastRun, int, error) {
	return s.repo.GetForecastRuns(ctx, filter)
}

// GetForecastPoints retrieves the predicted points of a stored run
func (s *ForecastService) GetForecastPoints(ctx context.Context, runID string) ([]*models.ForecastPoint, error) {
	return s.repo.GetForecastPoints(ctx, runID)
}
