package forecast

import "fmt"

// Order is a candidate ARIMA model order (p, d, q).
type Order struct {
	P int `json:"p"`
	D int `json:"d"`
	Q int `json:"q"`
}

// String formats the order as ARIMA(p,d,q).
func (o Order) String() string {
	return fmt.Sprintf("ARIMA(%d,%d,%d)", o.P, o.D, o.Q)
}

// Valid reports whether all components are non-negative.
func (o Order) Valid() bool {
	return o.P >= 0 && o.D >= 0 && o.Q >= 0
}

// ParamCount returns the number of estimated parameters (AR + MA terms
// plus the intercept).
func (o Order) ParamCount() int {
	return o.P + o.Q + 1
}

// Grid enumerates the full Cartesian candidate grid 0..maxP x 0..maxD x
// 0..maxQ, inclusive, in ascending p, then d, then q order. That enumeration
// order is also the tie-break order used by the selector.
func Grid(maxP, maxD, maxQ int) ([]Order, error) {
	if maxP < 0 || maxD < 0 || maxQ < 0 {
		return nil, fmt.Errorf("order maxima must be non-negative, got (%d,%d,%d)", maxP, maxD, maxQ)
	}

	orders := make([]Order, 0, (maxP+1)*(maxD+1)*(maxQ+1))
	for p := 0; p <= maxP; p++ {
		for d := 0; d <= maxD; d++ {
			for q := 0; q <= maxQ; q++ {
				orders = append(orders, Order{P: p, D: d, Q: q})
			}
		}
	}

	return orders, nil
}
