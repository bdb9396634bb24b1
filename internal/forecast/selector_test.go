package forecast

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"
)

// fakeFitted is a canned fit result.
type fakeFitted struct {
	aic float64
}

func (f *fakeFitted) AIC() float64 {
	return f.aic
}

func (f *fakeFitted) Forecast(steps int) ([]float64, error) {
	out := make([]float64, steps)
	for i := range out {
		out[i] = f.aic
	}
	return out, nil
}

// fakeFitter returns scripted AICs or errors per order.
type fakeFitter struct {
	aics map[Order]float64
	errs map[Order]error
}

func (f *fakeFitter) Fit(values []float64, order Order) (Fitted, error) {
	if err, ok := f.errs[order]; ok {
		return nil, err
	}
	aic, ok := f.aics[order]
	if !ok {
		return nil, errors.New("unscripted order")
	}
	return &fakeFitted{aic: aic}, nil
}

func testValues(n int) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = float64(i % 7)
	}
	return values
}

func TestSelect_PicksMinimumAIC(t *testing.T) {
	fitter := &fakeFitter{
		aics: map[Order]float64{
			{1, 0, 0}: 310.2,
			{2, 0, 0}: 295.7,
			{1, 0, 1}: 301.4,
		},
	}
	selector := NewSelector(fitter, nil, nil)

	candidates := []Order{{1, 0, 0}, {2, 0, 0}, {1, 0, 1}}
	selection, err := selector.Select(context.Background(), testValues(60), candidates)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	if selection.Order != (Order{2, 0, 0}) {
		t.Errorf("Order = %v, want ARIMA(2,0,0)", selection.Order)
	}
	if selection.AIC != 295.7 {
		t.Errorf("AIC = %v, want 295.7", selection.AIC)
	}
	if selection.Model == nil {
		t.Error("Model should not be nil")
	}
}

func TestSelect_TieGoesToFirstCandidate(t *testing.T) {
	fitter := &fakeFitter{
		aics: map[Order]float64{
			{1, 0, 0}: 300.0,
			{2, 0, 0}: 300.0,
			{1, 0, 1}: 300.0,
		},
	}
	selector := NewSelector(fitter, nil, nil)

	candidates := []Order{{1, 0, 0}, {2, 0, 0}, {1, 0, 1}}
	selection, err := selector.Select(context.Background(), testValues(60), candidates)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	if selection.Order != candidates[0] {
		t.Errorf("Order = %v, want first candidate %v on exact tie", selection.Order, candidates[0])
	}
}

func TestSelect_AbsorbsCandidateFailures(t *testing.T) {
	fitter := &fakeFitter{
		aics: map[Order]float64{
			{1, 0, 1}: 288.1,
		},
		errs: map[Order]error{
			{1, 0, 0}: errors.New("did not converge"),
			{2, 0, 0}: errors.New("singular matrix"),
		},
	}
	selector := NewSelector(fitter, nil, nil)

	candidates := []Order{{1, 0, 0}, {2, 0, 0}, {1, 0, 1}}
	selection, err := selector.Select(context.Background(), testValues(60), candidates)
	if err != nil {
		t.Fatalf("Select() error = %v, failures should be absorbed", err)
	}

	if selection.Order != (Order{1, 0, 1}) {
		t.Errorf("Order = %v, want the only viable candidate", selection.Order)
	}

	if len(selection.Attempts) != len(candidates) {
		t.Fatalf("Attempts = %d, want %d", len(selection.Attempts), len(candidates))
	}
	failed := 0
	for _, a := range selection.Attempts {
		if !a.OK() {
			failed++
		}
	}
	if failed != 2 {
		t.Errorf("failed attempts = %d, want 2", failed)
	}
}

func TestSelect_NoViableModel(t *testing.T) {
	fitter := &fakeFitter{
		errs: map[Order]error{
			{1, 0, 0}: errors.New("did not converge"),
			{2, 0, 0}: errors.New("did not converge"),
		},
	}
	selector := NewSelector(fitter, nil, nil)

	_, err := selector.Select(context.Background(), testValues(60), []Order{{1, 0, 0}, {2, 0, 0}})
	if !errors.Is(err, ErrNoViableModel) {
		t.Errorf("Select() error = %v, want ErrNoViableModel", err)
	}
}

func TestSelect_InputValidation(t *testing.T) {
	selector := NewSelector(&fakeFitter{}, nil, nil)
	ctx := context.Background()

	if _, err := selector.Select(ctx, nil, []Order{{1, 0, 0}}); err == nil {
		t.Error("empty series should be rejected")
	}
	if _, err := selector.Select(ctx, testValues(60), nil); err == nil {
		t.Error("empty candidate set should be rejected")
	}
	if _, err := selector.Select(ctx, testValues(60), []Order{{P: -1}}); err == nil {
		t.Error("invalid candidate should be rejected")
	}
}

func TestSelect_Idempotent(t *testing.T) {
	fitter := &fakeFitter{
		aics: map[Order]float64{
			{1, 0, 0}: 312.9,
			{2, 0, 0}: 298.3,
			{2, 0, 1}: 298.3,
		},
	}
	selector := NewSelector(fitter, nil, nil)

	candidates := []Order{{1, 0, 0}, {2, 0, 0}, {2, 0, 1}}
	values := testValues(60)

	first, err := selector.Select(context.Background(), values, candidates)
	if err != nil {
		t.Fatalf("first Select() error = %v", err)
	}
	second, err := selector.Select(context.Background(), values, candidates)
	if err != nil {
		t.Fatalf("second Select() error = %v", err)
	}

	if first.Order != second.Order || first.AIC != second.AIC {
		t.Errorf("repeated selection differs: %v/%v vs %v/%v",
			first.Order, first.AIC, second.Order, second.AIC)
	}
}

// syntheticSeries generates a seeded stationary AR(1)-like temperature
// series.
func syntheticSeries(n int) []float64 {
	rng := rand.New(rand.NewSource(42))
	values := make([]float64, n)
	values[0] = 15.0
	for i := 1; i < n; i++ {
		values[i] = 4.5 + 0.7*values[i-1] + rng.NormFloat64()
	}
	return values
}

func TestSelect_SyntheticSeriesAgainstLibrary(t *testing.T) {
	values := syntheticSeries(60)
	candidates := []Order{
		{1, 0, 0},
		{2, 0, 0},
		{1, 0, 1},
		{2, 0, 1},
		{1, 1, 1},
	}

	fitter := NewArimaFitter()
	selector := NewSelector(fitter, nil, nil)

	selection, err := selector.Select(context.Background(), values, candidates)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	// Fitting each candidate directly must reproduce the winner.
	bestAIC := math.Inf(1)
	for _, c := range candidates {
		fitted, err := fitter.Fit(values, c)
		if err != nil {
			continue
		}
		if fitted.AIC() < bestAIC {
			bestAIC = fitted.AIC()
		}
	}
	if math.IsInf(bestAIC, 1) {
		t.Fatal("no candidate fit the synthetic series")
	}
	if selection.AIC != bestAIC {
		t.Errorf("selected AIC = %v, want minimum %v", selection.AIC, bestAIC)
	}

	// And the selection must be reproducible.
	again, err := selector.Select(context.Background(), values, candidates)
	if err != nil {
		t.Fatalf("repeat Select() error = %v", err)
	}
	if again.Order != selection.Order {
		t.Errorf("repeat selection order = %v, want %v", again.Order, selection.Order)
	}
}

func TestArimaFitter_ForecastHorizon(t *testing.T) {
	values := syntheticSeries(60)

	fitted, err := NewArimaFitter().Fit(values, Order{P: 1, D: 0, Q: 0})
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	horizon := 7
	out, err := fitted.Forecast(horizon)
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}
	if len(out) != horizon {
		t.Errorf("Forecast() returned %d values, want %d", len(out), horizon)
	}
	for i, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("forecast value %d is not finite: %v", i, v)
		}
	}

	if _, err := fitted.Forecast(0); err == nil {
		t.Error("Forecast(0) expected error, got nil")
	}
}

func TestArimaFitter_RejectsShortSeries(t *testing.T) {
	if _, err := NewArimaFitter().Fit([]float64{1, 2, 3}, Order{P: 2, D: 0, Q: 1}); err == nil {
		t.Error("fitting a 3-point series should fail")
	}
}
