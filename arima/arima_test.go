package arima

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/stocktool/timeseries"
)

func ar1Series(n int, phi float64, seed int64) *timeseries.Series {
	rng := rand.New(rand.NewSource(seed))
	values := make([]float64, n)
	values[0] = 100
	for i := 1; i < n; i++ {
		values[i] = phi*(values[i-1]-100) + 100 + rng.NormFloat64()
	}
	return timeseries.New(values)
}

func TestNewARIMA(t *testing.T) {
	model := New(2, 1, 1)

	assert.Equal(t, Order{P: 2, D: 1, Q: 1}, model.Order)
	assert.Equal(t, "ARIMA(2,1,1)", model.String())

	seasonal := NewSeasonal(Order{P: 1}, SeasonalOrder{P: 1, D: 1, M: 12})
	assert.Equal(t, "ARIMA(1,0,0)(1,1,0)[12]", seasonal.String())

	// A period without seasonal terms collapses to a plain model.
	assert.Equal(t, "ARIMA(1,0,0)", NewSeasonal(Order{P: 1}, SeasonalOrder{M: 12}).String())
}

func TestARIMAFitAR1(t *testing.T) {
	model := New(1, 0, 0)
	require.NoError(t, model.Fit(ar1Series(300, 0.7, 1)))

	require.Len(t, model.ARCoeffs, 1)
	assert.InDelta(t, 0.7, model.ARCoeffs[0], 0.15)
	assert.InDelta(t, 100, model.Intercept, 1.5)
	assert.InDelta(t, 1.0, model.Variance, 0.35)
	assert.NotEmpty(t, model.Residuals())
}

func TestARIMAFitMA1(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	n := 400
	e := make([]float64, n)
	for i := range e {
		e[i] = rng.NormFloat64()
	}
	values := make([]float64, n)
	values[0] = 50 + e[0]
	for i := 1; i < n; i++ {
		values[i] = 50 + e[i] + 0.5*e[i-1]
	}

	model := New(0, 0, 1)
	require.NoError(t, model.Fit(timeseries.New(values)))

	require.Len(t, model.MACoeffs, 1)
	assert.InDelta(t, 0.5, model.MACoeffs[0], 0.2)
}

func TestARIMAPredictRandomWalkWithDrift(t *testing.T) {
	n := 100
	values := make([]float64, n)
	for i := range values {
		values[i] = 100 + 2*float64(i)
	}

	model := New(0, 1, 0)
	require.NoError(t, model.Fit(timeseries.New(values)))

	forecasts, err := model.Predict(5)
	require.NoError(t, err)
	require.Len(t, forecasts, 5)
	for h, f := range forecasts {
		assert.InDelta(t, values[n-1]+2*float64(h+1), f, 1e-9)
	}
}

func TestARIMAPredictSecondDifference(t *testing.T) {
	n := 60
	values := make([]float64, n)
	for i := range values {
		x := float64(i)
		values[i] = x * x
	}

	model := New(0, 2, 0)
	require.NoError(t, model.Fit(timeseries.New(values)))

	// Without a drift term the second difference forecasts to zero, so the
	// level extends along the last slope.
	forecasts, err := model.Predict(3)
	require.NoError(t, err)
	slope := values[n-1] - values[n-2]
	for h, f := range forecasts {
		assert.InDelta(t, values[n-1]+float64(h+1)*slope, f, 1e-6)
	}
}

func TestARIMAPredictSeasonalDifference(t *testing.T) {
	period := 4
	pattern := []float64{10, 20, 15, 5}
	values := make([]float64, 40)
	for i := range values {
		values[i] = pattern[i%period]
	}

	model := NewSeasonal(Order{}, SeasonalOrder{D: 1, M: period})
	require.NoError(t, model.Fit(timeseries.New(values)))

	forecasts, err := model.Predict(6)
	require.NoError(t, err)
	for h, f := range forecasts {
		assert.InDelta(t, pattern[(len(values)+h)%period], f, 1e-6)
	}
}

func TestARIMAConstantSeries(t *testing.T) {
	values := make([]float64, 30)
	for i := range values {
		values[i] = 42
	}

	model := New(0, 0, 0)
	require.NoError(t, model.Fit(timeseries.New(values)))
	assert.False(t, math.IsInf(model.AIC, 0))

	forecasts, err := model.Predict(3)
	require.NoError(t, err)
	assert.Equal(t, []float64{42, 42, 42}, forecasts)
}

func TestARIMAPredictWithInterval(t *testing.T) {
	model := New(1, 1, 0)
	require.NoError(t, model.Fit(ar1Series(150, 0.5, 3)))

	f, lo, hi, err := model.PredictWithInterval(10, 0.9)
	require.NoError(t, err)
	require.Len(t, f, 10)

	prevWidth := 0.0
	for h := range f {
		assert.Less(t, lo[h], f[h])
		assert.Greater(t, hi[h], f[h])
		width := hi[h] - lo[h]
		assert.GreaterOrEqual(t, width, prevWidth)
		prevWidth = width
	}
}

func TestARIMAPredictErrors(t *testing.T) {
	_, err := New(1, 0, 0).Predict(3)
	assert.ErrorIs(t, err, ErrNotFitted)

	model := New(0, 0, 0)
	require.NoError(t, model.Fit(ar1Series(20, 0.2, 1)))
	_, err = model.Predict(0)
	assert.ErrorIs(t, err, ErrInvalidHorizon)
}

func TestARIMAInsufficientData(t *testing.T) {
	series := timeseries.New([]float64{1, 2, 3})

	assert.ErrorIs(t, New(5, 2, 5).Fit(series), ErrInsufficientData)
	assert.ErrorIs(t, New(0, 0, 0).Fit(timeseries.New([]float64{1})), ErrInsufficientData)
	assert.NoError(t, New(0, 0, 0).Fit(series))
}

func TestARIMASummary(t *testing.T) {
	n := 100
	model := New(1, 0, 1)
	require.NoError(t, model.Fit(ar1Series(n, 0.4, 5)))

	summary := model.Summary()
	require.NotNil(t, summary)
	assert.Equal(t, n, summary.NObs)
	assert.Equal(t, "ARIMA(1,0,1)", summary.Model)
	assert.NotNil(t, summary.LjungBox)

	text := summary.String()
	assert.Contains(t, text, "ARIMA(1,0,1)")
	assert.Contains(t, text, "ar.L1:")
	assert.Contains(t, text, "ma.L1:")

	assert.Nil(t, New(1, 0, 0).Summary())
}

func TestARIMASummaryFlagsResidualCorrelation(t *testing.T) {
	series := ar1Series(200, 0.8, 9)

	// White noise leaves the AR structure in the residuals.
	mean := New(0, 0, 0)
	require.NoError(t, mean.Fit(series))
	summary := mean.Summary()
	assert.Contains(t, summary.SignificantLags, 1)
	assert.Contains(t, summary.String(), "residual ACF lags outside bound")
	assert.Less(t, summary.LjungBox.PValue, 0.05)
}

func TestARIMAFittedValues(t *testing.T) {
	series := ar1Series(100, 0.5, 9)
	model := New(1, 0, 0)
	require.NoError(t, model.Fit(series))

	fitted := model.FittedValues()
	resid := model.Residuals()
	require.Len(t, fitted, series.Len())
	for i := range fitted {
		assert.InDelta(t, series.Values[i], fitted[i]+resid[i], 1e-9)
	}
}

func TestARIMAMultipleOrders(t *testing.T) {
	tests := []struct {
		name    string
		p, d, q int
	}{
		{"AR1", 1, 0, 0},
		{"AR2", 2, 0, 0},
		{"MA1", 0, 0, 1},
		{"MA2", 0, 0, 2},
		{"ARMA11", 1, 0, 1},
		{"ARIMA110", 1, 1, 0},
		{"ARIMA011", 0, 1, 1},
		{"ARIMA111", 1, 1, 1},
		{"ARIMA212", 2, 1, 2},
	}

	series := ar1Series(150, 0.6, 11)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := New(tt.p, tt.d, tt.q)
			require.NoError(t, model.Fit(series))

			forecasts, err := model.Predict(3)
			require.NoError(t, err)
			require.Len(t, forecasts, 3)
			for _, f := range forecasts {
				assert.False(t, math.IsNaN(f) || math.IsInf(f, 0))
			}
			for _, c := range append(model.ARCoeffs, model.MACoeffs...) {
				assert.Less(t, math.Abs(c), coefBound)
			}
		})
	}
}

func TestARIMADeterministic(t *testing.T) {
	series := ar1Series(120, 0.5, 13)

	a := New(1, 0, 1)
	b := New(1, 0, 1)
	require.NoError(t, a.Fit(series))
	require.NoError(t, b.Fit(series))

	fa, err := a.Predict(5)
	require.NoError(t, err)
	fb, err := b.Predict(5)
	require.NoError(t, err)
	assert.Equal(t, fa, fb)
}

func TestYuleWalker(t *testing.T) {
	// AR(1) autocorrelations rho^k give phi = (0.6, 0)
	acf := []float64{1.0, 0.6, 0.36, 0.216, 0.1296}

	coeffs := yuleWalker(acf, 2)
	require.Len(t, coeffs, 2)
	assert.InDelta(t, 0.6, coeffs[0], 1e-9)
	assert.InDelta(t, 0.0, coeffs[1], 1e-9)

	assert.Nil(t, yuleWalker(acf[:2], 2))
}

func TestPolyMul(t *testing.T) {
	// (1 - 0.5B)(1 - 0.3B^2) = 1 - 0.5B - 0.3B^2 + 0.15B^3
	got := polyMul(lagPoly([]float64{0.5}, 1, -1), lagPoly([]float64{0.3}, 2, -1))
	require.Len(t, got, 4)
	assert.InDeltaSlice(t, []float64{1, -0.5, -0.3, 0.15}, got, 1e-12)
}
