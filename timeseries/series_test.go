package timeseries

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestNewDaily(t *testing.T) {
	s := NewDaily(date("2020-01-30"), []float64{1, 2, 3})

	require.Equal(t, 3, s.Len())
	assert.Equal(t, date("2020-01-30"), s.First())
	assert.Equal(t, date("2020-02-01"), s.Last())
	assert.NoError(t, s.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		series *Series
	}{
		{"empty", &Series{}},
		{"undated", &Series{Values: []float64{1, 2}}},
		{"unsorted", &Series{
			Timestamps: []time.Time{date("2020-01-02"), date("2020-01-01")},
			Values:     []float64{1, 2},
		}},
		{"duplicate", &Series{
			Timestamps: []time.Time{date("2020-01-01"), date("2020-01-01")},
			Values:     []float64{1, 2},
		}},
		{"nan", NewDaily(date("2020-01-01"), []float64{1, math.NaN()})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.series.Validate())
		})
	}
}

func TestMeanVariance(t *testing.T) {
	s := New([]float64{2, 4, 4, 4, 5, 5, 7, 9})

	assert.InDelta(t, 5.0, s.Mean(), 1e-10)
	assert.InDelta(t, 4.571428571428571, s.Variance(), 1e-10)
	assert.InDelta(t, math.Sqrt(4.571428571428571), s.Std(), 1e-10)
	assert.Equal(t, 2.0, s.Min())
	assert.Equal(t, 9.0, s.Max())

	empty := New(nil)
	assert.Equal(t, 0.0, empty.Mean())
	assert.True(t, math.IsNaN(empty.Min()))
}

func TestDiff(t *testing.T) {
	s := NewDaily(date("2020-01-01"), []float64{1, 3, 6, 10})
	d := s.Diff()

	assert.Equal(t, []float64{2, 3, 4}, d.Values)
	assert.Equal(t, date("2020-01-02"), d.First())

	sd := New([]float64{1, 2, 3, 11, 12, 13}).SeasonalDiff(3)
	assert.Equal(t, []float64{10, 10, 10}, sd.Values)

	assert.Equal(t, 0, New([]float64{1}).Diff().Len())
}

func TestIsConstant(t *testing.T) {
	assert.True(t, New([]float64{4, 4, 4}).IsConstant())
	assert.False(t, New([]float64{4, 4, 5}).IsConstant())
}

func TestSliceCopies(t *testing.T) {
	s := New([]float64{1, 2, 3, 4, 5})
	sub := s.Slice(1, 3)
	sub.Values[0] = 99

	assert.Equal(t, 3.0, sub.Values[1])
	assert.Equal(t, 2.0, s.Values[1])
	assert.Equal(t, 0, s.Slice(4, 2).Len())
}

func TestWithValues(t *testing.T) {
	s := New([]float64{1, 2, 3})

	w, err := s.WithValues([]float64{7, 8, 9})
	require.NoError(t, err)
	assert.Equal(t, s.Timestamps, w.Timestamps)

	_, err = s.WithValues([]float64{1})
	assert.Error(t, err)
}
