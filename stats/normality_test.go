package stats

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"
)

func normalQuantiles(n int) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = 10 + 2*distuv.UnitNormal.Quantile((float64(i)+0.5)/float64(n))
	}
	return values
}

func TestNormalTestNormalSample(t *testing.T) {
	res, err := NormalTest(normalQuantiles(200))
	require.NoError(t, err)

	assert.InDelta(t, 0.0, res.Skewness, 1e-9)
	assert.Greater(t, res.PValue, 0.5)
	assert.LessOrEqual(t, res.PValue, 1.0)
}

func TestNormalTestSkewedSample(t *testing.T) {
	values := make([]float64, 60)
	v := 1.0
	for i := range values {
		values[i] = v
		v *= 1.15
	}

	res, err := NormalTest(values)
	require.NoError(t, err)
	assert.Greater(t, res.Skewness, 0.0)
	assert.Less(t, res.PValue, 0.01)

	normal, err := NormalTest(normalQuantiles(60))
	require.NoError(t, err)
	assert.Greater(t, normal.PValue, res.PValue)
}

func TestNormalTestDeterministic(t *testing.T) {
	a, err := NormalTest(normalQuantiles(50))
	require.NoError(t, err)
	b, err := NormalTest(normalQuantiles(50))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestNormalTestErrors(t *testing.T) {
	_, err := NormalTest([]float64{1, 2, 3, 4, 5, 6, 7})
	assert.Error(t, err)

	_, err = NormalTest([]float64{2, 2, 2, 2, 2, 2, 2, 2, 2})
	assert.True(t, errors.Is(err, ErrConstantSample))
}
