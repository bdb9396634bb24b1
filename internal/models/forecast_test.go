package models

import (
	"testing"
)

func TestForecastRun_ModelOrder(t *testing.T) {
	tests := []struct {
		name string
		run  ForecastRun
		want string
	}{
		{
			name: "plain autoregressive order",
			run:  ForecastRun{OrderP: 2, OrderD: 0, OrderQ: 0},
			want: "ARIMA(2,0,0)",
		},
		{
			name: "mixed order with differencing",
			run:  ForecastRun{OrderP: 1, OrderD: 1, OrderQ: 1},
			want: "ARIMA(1,1,1)",
		},
		{
			name: "zero order",
			run:  ForecastRun{},
			want: "ARIMA(0,0,0)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.run.ModelOrder(); got != tt.want {
				t.Errorf("ModelOrder() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestValidationError tests error handling
func TestValidationError(t *testing.T) {
	err := &ValidationError{
		Field:   "location",
		Value:   "atlantis",
		Message: "unknown location",
	}

	if err.Error() != "unknown location" {
		t.Errorf("Error() = %v, want %v", err.Error(), "unknown location")
	}

	if err.IsTransient() {
		t.Error("ValidationError should not be transient")
	}
}
