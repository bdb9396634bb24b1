package models

import (
	"fmt"
	"time"
)

// Location represents a named geographic point temperature series are
// acquired for
type Location struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Latitude  float64   `json:"latitude" db:"latitude"`
	Longitude float64   `json:"longitude" db:"longitude"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// DailyTemperature represents a single day of averaged temperature for a
// location, in Celsius
type DailyTemperature struct {
	ID                 int64     `json:"id" db:"id"`
	LocationID         int64     `json:"location_id" db:"location_id"`
	Day                time.Time `json:"day" db:"day"`
	TemperatureCelsius float64   `json:"temperature_celsius" db:"temperature_celsius"`
	SampleCount        int       `json:"sample_count" db:"sample_count"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
}

// ForecastRun records one completed model selection and forecast.
// MAE/RMSE are NULL when the validation split was empty.
type ForecastRun struct {
	ID             string    `json:"id" db:"id"`
	LocationID     int64     `json:"location_id" db:"location_id"`
	OrderP         int       `json:"order_p" db:"order_p"`
	OrderD         int       `json:"order_d" db:"order_d"`
	OrderQ         int       `json:"order_q" db:"order_q"`
	AIC            float64   `json:"aic" db:"aic"`
	MAE            *float64  `json:"mae,omitempty" db:"mae"`
	RMSE           *float64  `json:"rmse,omitempty" db:"rmse"`
	HorizonDays    int       `json:"horizon_days" db:"horizon_days"`
	TrainDays      int       `json:"train_days" db:"train_days"`
	ValidationDays int       `json:"validation_days" db:"validation_days"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// ForecastPoint is a single predicted day of a run
type ForecastPoint struct {
	ID                 int64     `json:"id" db:"id"`
	RunID              string    `json:"run_id" db:"run_id"`
	Day                time.Time `json:"day" db:"day"`
	TemperatureCelsius float64   `json:"temperature_celsius" db:"temperature_celsius"`
}

// ModelOrder returns the run's order formatted as ARIMA(p,d,q)
func (r *ForecastRun) ModelOrder() string {
	return fmt.Sprintf("ARIMA(%d,%d,%d)", r.OrderP, r.OrderD, r.OrderQ)
}

// ValidationError represents a data validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}
