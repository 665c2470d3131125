package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sartorproj/stocktool/timeseries"
)

func TestSimpleReturn(t *testing.T) {
	tests := []struct {
		name    string
		values  []float64
		percent int64
		profit  bool
		loss    bool
	}{
		{"profit", []float64{100, 90, 125}, 25, true, false},
		{"loss", []float64{200, 150}, -25, false, true},
		{"flat", []float64{10, 12, 10}, 0, false, false},
		{"half to even", []float64{200, 205}, 2, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := SimpleReturn(timeseries.New(tt.values))
			require.NoError(t, err)
			assert.Equal(t, tt.percent, r.Percent.IntPart())
			assert.Equal(t, tt.profit, r.IsProfit())
			assert.Equal(t, tt.loss, r.IsLoss())
		})
	}
}

func TestSimpleReturnErrors(t *testing.T) {
	_, err := SimpleReturn(timeseries.New(nil))
	assert.Error(t, err)

	_, err = SimpleReturn(timeseries.New([]float64{0, 5}))
	assert.Error(t, err)
}

func TestWindowDays(t *testing.T) {
	start := time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 58, WindowDays(start, time.Date(2015, time.February, 28, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 3653, WindowDays(start, time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 1, WindowDays(start, start))
}

func TestMaxDrawdownMonotone(t *testing.T) {
	dd, err := MaxDrawdown(timeseries.New([]float64{1, 2, 3, 4, 5}), 3)
	require.NoError(t, err)

	for _, v := range dd.Max.Values {
		assert.Equal(t, 0.0, v)
	}
	assert.True(t, dd.MeanPercent.IsZero())
}

func TestMaxDrawdown(t *testing.T) {
	values := []float64{100, 80, 90, 60, 120}
	dd, err := MaxDrawdown(timeseries.New(values), 10)
	require.NoError(t, err)

	want := []float64{0, -0.2, -0.2, -0.4, -0.4}
	assert.InDeltaSlice(t, want, dd.Max.Values, 1e-12)
	// mean -0.24
	assert.Equal(t, int64(-24), dd.MeanPercent.IntPart())
}

func TestMaxDrawdownWindow(t *testing.T) {
	values := []float64{100, 50, 60, 70, 80}
	dd, err := MaxDrawdown(timeseries.New(values), 2)
	require.NoError(t, err)

	// Peaks over two observations forget the 100 after one step.
	want := []float64{0, -0.5, -0.5, 0, 0}
	assert.InDeltaSlice(t, want, dd.Max.Values, 1e-12)
	assert.Equal(t, 2, dd.Window)
}

func TestMaxDrawdownErrors(t *testing.T) {
	_, err := MaxDrawdown(timeseries.New(nil), 3)
	assert.Error(t, err)

	_, err = MaxDrawdown(timeseries.New([]float64{1, 2}), 0)
	assert.Error(t, err)
}
