// Package forecast implements AIC-based ARIMA order selection. Estimation
// itself is delegated to an external statistics library behind the Fitter
// interface; this package only enumerates candidates and picks the best fit.
package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"temperature-forecast/pkg/logging"
	"temperature-forecast/pkg/metrics"
)

// ErrNoViableModel is returned when every candidate order failed to fit.
var ErrNoViableModel = errors.New("no viable model: all candidate orders failed to fit")

// Attempt records the outcome of one candidate fit.
type Attempt struct {
	Order Order
	AIC   float64
	Err   error
}

// OK reports whether the attempt produced a usable fit.
func (a Attempt) OK() bool {
	return a.Err == nil
}

// Selection is the winning candidate of a search: the order with strictly
// minimum AIC among all successful fits, its fitted artifact, and the full
// attempt trail for diagnostics.
type Selection struct {
	Order    Order
	AIC      float64
	Model    Fitted
	Attempts []Attempt
}

// Selector searches a fixed candidate set for the minimum-AIC order.
type Selector struct {
	fitter  Fitter
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewSelector creates a selector around the given fitter.
func NewSelector(fitter Fitter, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *Selector {
	return &Selector{
		fitter:  fitter,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Select fits every candidate order against the series and returns the one
// with the lowest AIC. Exact ties go to the earlier candidate in the given
// slice order, so repeated runs over the same inputs are deterministic.
//
// Per-candidate fit failures are absorbed: the candidate is excluded and the
// search continues. Only precondition violations (empty series, empty or
// invalid candidate set) and total exhaustion (ErrNoViableModel) reach the
// caller.
func (s *Selector) Select(ctx context.Context, values []float64, candidates []Order) (*Selection, error) {
	if len(values) == 0 {
		return nil, errors.New("series must not be empty")
	}
	if len(candidates) == 0 {
		return nil, errors.New("candidate set must not be empty")
	}
	for _, c := range candidates {
		if !c.Valid() {
			return nil, fmt.Errorf("invalid candidate %s: components must be non-negative", c)
		}
	}

	if s.metrics != nil {
		s.metrics.CandidatesPerSearch.Observe(float64(len(candidates)))
	}

	var best *Selection
	attempts := make([]Attempt, 0, len(candidates))

	for _, candidate := range candidates {
		attempt, fitted := s.fitCandidate(ctx, values, candidate)
		attempts = append(attempts, attempt)

		if !attempt.OK() {
			continue
		}

		// Strict < keeps the first-encountered candidate on exact ties.
		if best == nil || attempt.AIC < best.AIC {
			best = &Selection{
				Order: candidate,
				AIC:   attempt.AIC,
				Model: fitted,
			}
		}
	}

	if best == nil {
		if s.logger != nil {
			s.logger.Warn(ctx, "[SELECT_EXHAUSTED] Every candidate failed to fit", logging.Fields{
				"candidates": len(candidates),
				"series_len": len(values),
			})
		}
		return nil, ErrNoViableModel
	}

	best.Attempts = attempts

	if s.logger != nil {
		s.logger.Info(ctx, "[SELECT_COMPLETE] Best order selected", logging.Fields{
			"order":      best.Order.String(),
			"aic":        best.AIC,
			"candidates": len(candidates),
			"failures":   len(candidates) - successCount(attempts),
		})
	}

	return best, nil
}

func successCount(attempts []Attempt) int {
	n := 0
	for _, a := range attempts {
		if a.OK() {
			n++
		}
	}
	return n
}

// fitCandidate attempts one candidate and records the outcome.
func (s *Selector) fitCandidate(ctx context.Context, values []float64, candidate Order) (Attempt, Fitted) {
	// A candidate needing more parameters than there are observations can
	// never be estimated; exclude it without calling the library.
	if candidate.ParamCount()+candidate.D > len(values) {
		err := fmt.Errorf("%s requires %d observations, have %d",
			candidate, candidate.ParamCount()+candidate.D, len(values))
		s.recordFailure(ctx, candidate, err)
		return Attempt{Order: candidate, Err: err}, nil
	}

	start := time.Now()
	fitted, err := s.fitter.Fit(values, candidate)
	if s.metrics != nil {
		s.metrics.FitDuration.Observe(time.Since(start).Seconds())
	}

	if err != nil {
		s.recordFailure(ctx, candidate, err)
		return Attempt{Order: candidate, Err: err}, nil
	}

	if s.metrics != nil {
		s.metrics.RecordFitAttempt("success")
	}

	return Attempt{Order: candidate, AIC: fitted.AIC()}, fitted
}

func (s *Selector) recordFailure(ctx context.Context, candidate Order, err error) {
	if s.metrics != nil {
		s.metrics.RecordFitAttempt("failure")
	}
	if s.logger != nil {
		s.logger.Debug(ctx, "[SELECT_CANDIDATE_SKIP] Candidate excluded", logging.Fields{
			"order":  candidate.String(),
			"reason": err.Error(),
		})
	}
}
