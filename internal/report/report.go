// Package report computes forecast accuracy metrics and renders run
// summaries for the CLI.
package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"temperature-forecast/internal/forecast"
)

// MAE returns the mean absolute error between actual and predicted values.
func MAE(actual, predicted []float64) (float64, error) {
	if err := checkLengths(actual, predicted); err != nil {
		return 0, err
	}

	sum := 0.0
	for i := range actual {
		sum += math.Abs(actual[i] - predicted[i])
	}
	return sum / float64(len(actual)), nil
}

// RMSE returns the root mean squared error between actual and predicted
// values.
func RMSE(actual, predicted []float64) (float64, error) {
	if err := checkLengths(actual, predicted); err != nil {
		return 0, err
	}

	sum := 0.0
	for i := range actual {
		diff := actual[i] - predicted[i]
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(actual))), nil
}

func checkLengths(actual, predicted []float64) error {
	if len(actual) == 0 {
		return fmt.Errorf("cannot score an empty series")
	}
	if len(actual) != len(predicted) {
		return fmt.Errorf("length mismatch: %d actual vs %d predicted", len(actual), len(predicted))
	}
	return nil
}

// Accuracy holds validation scores for a selected model.
type Accuracy struct {
	MAE  float64
	RMSE float64
}

// Score computes both accuracy metrics in one pass over the inputs.
func Score(actual, predicted []float64) (*Accuracy, error) {
	mae, err := MAE(actual, predicted)
	if err != nil {
		return nil, err
	}
	rmse, err := RMSE(actual, predicted)
	if err != nil {
		return nil, err
	}
	return &Accuracy{MAE: mae, RMSE: rmse}, nil
}

// RunSummary is everything the CLI prints about one completed run.
type RunSummary struct {
	Location    string
	SeriesStart time.Time
	SeriesEnd   time.Time
	SeriesDays  int
	TrainDays   int
	Order       forecast.Order
	AIC         float64
	Accuracy    *Accuracy // nil when the validation split was empty
	Attempts    []forecast.Attempt
	Days        []time.Time
	Values      []float64
}

// Render formats the summary as a human-readable block.
func (s *RunSummary) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Temperature forecast for %s\n", s.Location)
	fmt.Fprintf(&b, "  observations: %d days (%s to %s)\n",
		s.SeriesDays,
		s.SeriesStart.Format("2006-01-02"),
		s.SeriesEnd.Format("2006-01-02"))
	fmt.Fprintf(&b, "  selected model: %s (AIC %.2f, %d of %d candidates fit)\n",
		s.Order, s.AIC, s.fitCount(), len(s.Attempts))

	if s.Accuracy != nil {
		fmt.Fprintf(&b, "  validation (%d days held out): MAE %.2f°C, RMSE %.2f°C\n",
			s.SeriesDays-s.TrainDays, s.Accuracy.MAE, s.Accuracy.RMSE)
	} else {
		b.WriteString("  validation: skipped, no held-out days\n")
	}

	b.WriteString("\n")
	for i, day := range s.Days {
		fmt.Fprintf(&b, "  %s  %6.2f°C\n", day.Format("2006-01-02"), s.Values[i])
	}

	if len(s.Values) > 0 {
		min, max, mean := summarize(s.Values)
		fmt.Fprintf(&b, "\n  forecast range: %.2f°C to %.2f°C, mean %.2f°C\n", min, max, mean)
	}

	return b.String()
}

func summarize(values []float64) (min, max, mean float64) {
	min, max = values[0], values[0]
	sum := 0.0
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	return min, max, sum / float64(len(values))
}

func (s *RunSummary) fitCount() int {
	n := 0
	for _, a := range s.Attempts {
		if a.OK() {
			n++
		}
	}
	return n
}
