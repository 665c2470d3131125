// Package analysis computes descriptive statistics of a price series.
package analysis

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/stocktool/timeseries"
)

var hundred = decimal.NewFromInt(100)

// Return is the simple rate of return between the first and last value.
type Return struct {
	First   decimal.Decimal
	Last    decimal.Decimal
	NetDiff decimal.Decimal
	// Percent is (last - first) / first * 100 rounded half to even.
	Percent decimal.Decimal
}

// IsLoss reports whether the series closed below its first value.
func (r *Return) IsLoss() bool { return r.NetDiff.IsNegative() }

// IsProfit reports whether the series closed above its first value.
func (r *Return) IsProfit() bool { return r.NetDiff.IsPositive() }

// SimpleReturn computes the return of holding from the first to the last
// observation.
func SimpleReturn(series *timeseries.Series) (*Return, error) {
	if series.Len() == 0 {
		return nil, errors.New("return of an empty series")
	}
	first := decimal.NewFromFloat(series.Values[0])
	last := decimal.NewFromFloat(series.Values[series.Len()-1])
	if first.IsZero() {
		return nil, errors.New("return is undefined for a zero first value")
	}

	net := last.Sub(first)
	return &Return{
		First:   first,
		Last:    last,
		NetDiff: net,
		Percent: net.Div(first).Mul(hundred).RoundBank(0),
	}, nil
}

// Drawdown holds the rolling maximum drawdown of a series.
type Drawdown struct {
	Window int
	// Max is, for each date, the worst drawdown within the trailing window,
	// as a fraction (-0.25 is 25% below the trailing peak).
	Max *timeseries.Series
	// MeanPercent is the mean of Max in percent, rounded half to even.
	MeanPercent decimal.Decimal
}

// WindowDays returns the drawdown window for a date range: the number of
// whole days between start and end, at least one.
func WindowDays(start, end time.Time) int {
	return max(int(end.Sub(start)/timeseries.Day), 1)
}

// MaxDrawdown computes v/rollingMax(v) - 1 over a trailing window, then the
// rolling minimum of that over the same window. Windows shorter than window
// at the start of the series use the observations available.
func MaxDrawdown(series *timeseries.Series, window int) (*Drawdown, error) {
	n := series.Len()
	if n == 0 {
		return nil, errors.New("drawdown of an empty series")
	}
	if window < 1 {
		return nil, fmt.Errorf("drawdown window must be at least 1, got %d", window)
	}

	dd := make([]float64, n)
	for i, v := range series.Values {
		peak := v
		for j := max(0, i-window+1); j < i; j++ {
			peak = max(peak, series.Values[j])
		}
		if peak == 0 {
			return nil, fmt.Errorf("drawdown is undefined for a zero peak at index %d", i)
		}
		dd[i] = v/peak - 1
	}

	worst := make([]float64, n)
	for i := range dd {
		m := dd[i]
		for j := max(0, i-window+1); j < i; j++ {
			m = min(m, dd[j])
		}
		worst[i] = m
	}

	out, err := series.WithValues(worst)
	if err != nil {
		return nil, err
	}
	mean := decimal.NewFromFloat(stat.Mean(worst, nil))
	return &Drawdown{
		Window:      window,
		Max:         out,
		MeanPercent: mean.Mul(hundred).RoundBank(0),
	}, nil
}
