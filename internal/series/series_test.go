package series

import (
	"errors"
	"math"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func consecutiveDays(start time.Time, n int) []time.Time {
	days := make([]time.Time, n)
	for i := range days {
		days[i] = start.AddDate(0, 0, i)
	}
	return days
}

func TestKelvinToCelsius(t *testing.T) {
	tests := []struct {
		name   string
		kelvin float64
		want   float64
	}{
		{"absolute zero", 0, -273.15},
		{"freezing point", 273.15, 0},
		{"archive reading", 288.15, 15},
		{"summer reading", 303.15, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KelvinToCelsius(tt.kelvin); got != tt.want {
				t.Errorf("KelvinToCelsius(%v) = %v, want %v", tt.kelvin, got, tt.want)
			}
		})
	}
}

func TestCelsiusKelvinRoundTrip(t *testing.T) {
	for _, c := range []float64{-40, -5.5, 0, 12.34, 41.7} {
		got := KelvinToCelsius(CelsiusToKelvin(c))
		if math.Abs(got-c) > 1e-9 {
			t.Errorf("round trip of %v = %v", c, got)
		}
	}
}

func TestNewDaily_Validation(t *testing.T) {
	start := day(2024, time.March, 1)

	t.Run("valid series", func(t *testing.T) {
		d, err := NewDaily(consecutiveDays(start, 5), []float64{1, 2, 3, 4, 5})
		if err != nil {
			t.Fatalf("NewDaily() error = %v", err)
		}
		if d.Len() != 5 {
			t.Errorf("Len() = %d, want 5", d.Len())
		}
		if !d.Start().Equal(start) {
			t.Errorf("Start() = %v, want %v", d.Start(), start)
		}
		if !d.End().Equal(day(2024, time.March, 5)) {
			t.Errorf("End() = %v, want 2024-03-05", d.End())
		}
	})

	t.Run("empty series", func(t *testing.T) {
		_, err := NewDaily(nil, nil)
		if !errors.Is(err, ErrEmptySeries) {
			t.Errorf("error = %v, want ErrEmptySeries", err)
		}
	})

	t.Run("length mismatch", func(t *testing.T) {
		if _, err := NewDaily(consecutiveDays(start, 3), []float64{1, 2}); err == nil {
			t.Error("length mismatch should be rejected")
		}
	})

	t.Run("gap rejected", func(t *testing.T) {
		days := []time.Time{start, start.AddDate(0, 0, 1), start.AddDate(0, 0, 3)}
		if _, err := NewDaily(days, []float64{1, 2, 3}); err == nil {
			t.Error("gapped series should be rejected")
		}
	})

	t.Run("duplicate rejected", func(t *testing.T) {
		days := []time.Time{start, start, start.AddDate(0, 0, 1)}
		if _, err := NewDaily(days, []float64{1, 2, 3}); err == nil {
			t.Error("duplicate day should be rejected")
		}
	})

	t.Run("intraday timestamps normalize to one day", func(t *testing.T) {
		days := []time.Time{
			time.Date(2024, time.March, 1, 9, 30, 0, 0, time.UTC),
			time.Date(2024, time.March, 2, 23, 0, 0, 0, time.UTC),
		}
		d, err := NewDaily(days, []float64{1, 2})
		if err != nil {
			t.Fatalf("NewDaily() error = %v", err)
		}
		if !d.Start().Equal(day(2024, time.March, 1)) {
			t.Errorf("Start() = %v, want midnight UTC", d.Start())
		}
	})
}

func TestAverageByDay(t *testing.T) {
	samples := []Sample{
		{Time: time.Date(2024, time.March, 2, 1, 0, 0, 0, time.UTC), Kelvin: 283.15},
		{Time: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), Kelvin: 288.15},
		{Time: time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC), Kelvin: 290.15},
		{Time: time.Date(2024, time.March, 2, 13, 0, 0, 0, time.UTC), Kelvin: 285.15},
	}

	averages, err := AverageByDay(samples)
	if err != nil {
		t.Fatalf("AverageByDay() error = %v", err)
	}

	if len(averages) != 2 {
		t.Fatalf("got %d day records, want 2", len(averages))
	}

	// Sorted chronologically regardless of input order.
	if !averages[0].Day.Equal(day(2024, time.March, 1)) {
		t.Errorf("first day = %v, want 2024-03-01", averages[0].Day)
	}

	// (15 + 17) / 2 and (10 + 12) / 2 in Celsius.
	if math.Abs(averages[0].Celsius-16.0) > 1e-9 {
		t.Errorf("day 1 average = %v, want 16.0", averages[0].Celsius)
	}
	if math.Abs(averages[1].Celsius-11.0) > 1e-9 {
		t.Errorf("day 2 average = %v, want 11.0", averages[1].Celsius)
	}
	if averages[0].Samples != 2 || averages[1].Samples != 2 {
		t.Errorf("sample counts = %d/%d, want 2/2", averages[0].Samples, averages[1].Samples)
	}

	if _, err := AverageByDay(nil); !errors.Is(err, ErrEmptySeries) {
		t.Errorf("empty input error = %v, want ErrEmptySeries", err)
	}
}

func TestFromDayAverages(t *testing.T) {
	averages := []DayAverage{
		{Day: day(2024, time.March, 1), Celsius: 10, Samples: 24},
		{Day: day(2024, time.March, 2), Celsius: 11, Samples: 24},
		{Day: day(2024, time.March, 3), Celsius: 12, Samples: 24},
	}

	d, err := FromDayAverages(averages)
	if err != nil {
		t.Fatalf("FromDayAverages() error = %v", err)
	}
	if d.Len() != 3 {
		t.Errorf("Len() = %d, want 3", d.Len())
	}

	// A dropped day breaks the gap-free guarantee.
	gapped := []DayAverage{averages[0], averages[2]}
	if _, err := FromDayAverages(gapped); err == nil {
		t.Error("gapped averages should be rejected")
	}
}

func TestDaily_Split(t *testing.T) {
	start := day(2024, time.January, 1)
	d, err := NewDaily(consecutiveDays(start, 20), make([]float64, 20))
	if err != nil {
		t.Fatalf("NewDaily() error = %v", err)
	}

	train, validation, err := d.Split(0.85)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}

	if train.Len() != 17 {
		t.Errorf("train length = %d, want 17", train.Len())
	}
	if validation.Len() != 3 {
		t.Errorf("validation length = %d, want 3", validation.Len())
	}
	if !validation.Start().Equal(train.End().AddDate(0, 0, 1)) {
		t.Error("validation must start the day after training ends")
	}

	t.Run("whole-series fraction", func(t *testing.T) {
		train, validation, err := d.Split(1.0)
		if err != nil {
			t.Fatalf("Split(1.0) error = %v", err)
		}
		if train.Len() != 20 || validation.Len() != 0 {
			t.Errorf("lengths = %d/%d, want 20/0", train.Len(), validation.Len())
		}
	})

	t.Run("invalid fraction", func(t *testing.T) {
		if _, _, err := d.Split(0); err == nil {
			t.Error("Split(0) expected error")
		}
		if _, _, err := d.Split(1.5); err == nil {
			t.Error("Split(1.5) expected error")
		}
	})
}

func TestDaily_FutureDays(t *testing.T) {
	d, err := NewDaily(consecutiveDays(day(2024, time.February, 26), 5), make([]float64, 5))
	if err != nil {
		t.Fatalf("NewDaily() error = %v", err)
	}

	future := d.FutureDays(3)
	if len(future) != 3 {
		t.Fatalf("FutureDays(3) returned %d days", len(future))
	}

	// Starts the day after the last observation and crosses the leap day.
	want := []time.Time{
		day(2024, time.March, 2),
		day(2024, time.March, 3),
		day(2024, time.March, 4),
	}
	if !d.End().Equal(day(2024, time.March, 1)) {
		t.Fatalf("End() = %v, want 2024-03-01", d.End())
	}
	for i := range want {
		if !future[i].Equal(want[i]) {
			t.Errorf("future[%d] = %v, want %v", i, future[i], want[i])
		}
	}
}

func TestDaily_ValueAccessorsCopy(t *testing.T) {
	d, err := NewDaily(consecutiveDays(day(2024, time.May, 1), 3), []float64{1, 2, 3})
	if err != nil {
		t.Fatalf("NewDaily() error = %v", err)
	}

	values := d.Values()
	values[0] = 99
	if d.Values()[0] != 1 {
		t.Error("Values() must return a copy")
	}

	if d.Mean() != 2 {
		t.Errorf("Mean() = %v, want 2", d.Mean())
	}
	if d.Min() != 1 || d.Max() != 3 {
		t.Errorf("Min/Max = %v/%v, want 1/3", d.Min(), d.Max())
	}
}
