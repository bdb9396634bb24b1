// Package series provides the daily temperature time series consumed by
// model selection and reporting.
package series

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

// kelvinOffset is the difference between the Kelvin and Celsius scales.
const kelvinOffset = 273.15

// KelvinToCelsius converts a temperature from Kelvin to Celsius.
func KelvinToCelsius(k float64) float64 {
	return k - kelvinOffset
}

// CelsiusToKelvin converts a temperature from Celsius to Kelvin.
func CelsiusToKelvin(c float64) float64 {
	return c + kelvinOffset
}

// Sample is a raw timestamped archive reading in Kelvin.
type Sample struct {
	Time   time.Time
	Kelvin float64
}

// DayAverage is one calendar day of averaged readings, converted to Celsius.
type DayAverage struct {
	Day     time.Time
	Celsius float64
	Samples int
}

// Daily is an immutable, gap-free daily temperature series in Celsius.
// Days are normalized to midnight UTC and strictly consecutive.
type Daily struct {
	days   []time.Time
	values []float64
}

// ErrEmptySeries indicates a series with no observations.
var ErrEmptySeries = errors.New("series is empty")

// dateOf truncates a timestamp to its UTC calendar day.
func dateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// NewDaily builds a Daily series, validating that days are strictly
// consecutive with no duplicates or gaps.
func NewDaily(days []time.Time, values []float64) (*Daily, error) {
	if len(days) == 0 {
		return nil, ErrEmptySeries
	}
	if len(days) != len(values) {
		return nil, fmt.Errorf("days and values length mismatch: %d vs %d", len(days), len(values))
	}

	normalized := make([]time.Time, len(days))
	for i, d := range days {
		normalized[i] = dateOf(d)
	}

	for i := 1; i < len(normalized); i++ {
		expected := normalized[i-1].AddDate(0, 0, 1)
		if normalized[i].Equal(normalized[i-1]) {
			return nil, fmt.Errorf("duplicate date %s at position %d", normalized[i].Format("2006-01-02"), i)
		}
		if !normalized[i].Equal(expected) {
			return nil, fmt.Errorf("gap in series: expected %s, got %s",
				expected.Format("2006-01-02"), normalized[i].Format("2006-01-02"))
		}
	}

	copied := make([]float64, len(values))
	copy(copied, values)

	return &Daily{days: normalized, values: copied}, nil
}

// AverageByDay groups raw archive samples by UTC calendar day and averages
// them into Celsius day records, sorted chronologically.
func AverageByDay(samples []Sample) ([]DayAverage, error) {
	if len(samples) == 0 {
		return nil, ErrEmptySeries
	}

	sums := make(map[time.Time]float64)
	counts := make(map[time.Time]int)

	for _, s := range samples {
		day := dateOf(s.Time)
		sums[day] += KelvinToCelsius(s.Kelvin)
		counts[day]++
	}

	days := make([]time.Time, 0, len(sums))
	for day := range sums {
		days = append(days, day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	averages := make([]DayAverage, len(days))
	for i, day := range days {
		averages[i] = DayAverage{
			Day:     day,
			Celsius: sums[day] / float64(counts[day]),
			Samples: counts[day],
		}
	}

	return averages, nil
}

// FromDayAverages builds a Daily series from day records, enforcing the
// gap-free guarantee.
func FromDayAverages(averages []DayAverage) (*Daily, error) {
	days := make([]time.Time, len(averages))
	values := make([]float64, len(averages))
	for i, a := range averages {
		days[i] = a.Day
		values[i] = a.Celsius
	}
	return NewDaily(days, values)
}

// Len returns the number of observations.
func (d *Daily) Len() int {
	return len(d.values)
}

// Start returns the first observed day.
func (d *Daily) Start() time.Time {
	if len(d.days) == 0 {
		return time.Time{}
	}
	return d.days[0]
}

// End returns the last observed day.
func (d *Daily) End() time.Time {
	if len(d.days) == 0 {
		return time.Time{}
	}
	return d.days[len(d.days)-1]
}

// Days returns a copy of the observation dates.
func (d *Daily) Days() []time.Time {
	out := make([]time.Time, len(d.days))
	copy(out, d.days)
	return out
}

// Values returns a copy of the observation values.
func (d *Daily) Values() []float64 {
	out := make([]float64, len(d.values))
	copy(out, d.values)
	return out
}

// Mean returns the arithmetic mean of the series.
func (d *Daily) Mean() float64 {
	if len(d.values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range d.values {
		sum += v
	}
	return sum / float64(len(d.values))
}

// Min returns the minimum value.
func (d *Daily) Min() float64 {
	if len(d.values) == 0 {
		return math.NaN()
	}
	min := d.values[0]
	for _, v := range d.values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

// Max returns the maximum value.
func (d *Daily) Max() float64 {
	if len(d.values) == 0 {
		return math.NaN()
	}
	max := d.values[0]
	for _, v := range d.values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// Split divides the series into a training prefix and a validation suffix.
// The validation part may be empty when trainFraction rounds to the whole
// series.
func (d *Daily) Split(trainFraction float64) (train, validation *Daily, err error) {
	if trainFraction <= 0 || trainFraction > 1 {
		return nil, nil, fmt.Errorf("train fraction must be in (0, 1], got %v", trainFraction)
	}
	if len(d.values) == 0 {
		return nil, nil, ErrEmptySeries
	}

	cut := int(float64(len(d.values)) * trainFraction)
	if cut < 1 {
		cut = 1
	}
	if cut > len(d.values) {
		cut = len(d.values)
	}

	train = &Daily{
		days:   append([]time.Time(nil), d.days[:cut]...),
		values: append([]float64(nil), d.values[:cut]...),
	}
	validation = &Daily{
		days:   append([]time.Time(nil), d.days[cut:]...),
		values: append([]float64(nil), d.values[cut:]...),
	}

	return train, validation, nil
}

// FutureDays returns the n consecutive days immediately following the last
// observed day.
func (d *Daily) FutureDays(n int) []time.Time {
	out := make([]time.Time, n)
	last := d.End()
	for i := 0; i < n; i++ {
		out[i] = last.AddDate(0, 0, i+1)
	}
	return out
}
