package forecast

import (
	"errors"
	"fmt"
	"math"

	"github.com/sartorproj/goarima/arima"
	"github.com/sartorproj/goarima/timeseries"
)

// Fitted is a fitted model artifact. The estimation internals are owned by
// the underlying statistics library.
type Fitted interface {
	// AIC returns the Akaike Information Criterion of the fit.
	AIC() float64
	// Forecast produces steps successive point forecasts in chronological
	// order immediately following the last training observation.
	Forecast(steps int) ([]float64, error)
}

// Fitter estimates a model of the given order against a series. A failed
// estimation (non-convergence, singularity, insufficient data) is returned
// as an error, never as a model with a sentinel score.
type Fitter interface {
	Fit(values []float64, order Order) (Fitted, error)
}

// ArimaFitter fits ARIMA models using the goarima library.
type ArimaFitter struct{}

// NewArimaFitter creates a library-backed fitter.
func NewArimaFitter() *ArimaFitter {
	return &ArimaFitter{}
}

// Fit estimates an ARIMA model of the given order. A fit that produces a
// non-finite AIC is treated as a failure.
func (f *ArimaFitter) Fit(values []float64, order Order) (Fitted, error) {
	if !order.Valid() {
		return nil, fmt.Errorf("invalid order %s: components must be non-negative", order)
	}

	model := arima.New(order.P, order.D, order.Q)
	if err := model.Fit(timeseries.New(values)); err != nil {
		return nil, fmt.Errorf("fit %s: %w", order, err)
	}

	if math.IsNaN(model.AIC) || math.IsInf(model.AIC, 0) {
		return nil, fmt.Errorf("fit %s: non-finite AIC", order)
	}

	return &arimaModel{model: model}, nil
}

// arimaModel adapts a goarima model to the Fitted interface.
type arimaModel struct {
	model *arima.Model
}

func (m *arimaModel) AIC() float64 {
	return m.model.AIC
}

func (m *arimaModel) Forecast(steps int) ([]float64, error) {
	if steps < 1 {
		return nil, errors.New("forecast steps must be at least 1")
	}
	return m.model.Predict(steps)
}
