package stats

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// MinNormalTestObs is the smallest sample the skewness test is valid for.
const MinNormalTestObs = 8

// ErrConstantSample is returned when a test statistic is undefined because
// the sample has zero variance.
var ErrConstantSample = errors.New("sample has zero variance")

// NormalTestResult holds the D'Agostino-Pearson omnibus test.
type NormalTestResult struct {
	Statistic float64 // K² = ZSkew² + ZKurtosis²
	PValue    float64 // chi-squared survival with 2 degrees of freedom
	ZSkew     float64
	ZKurtosis float64
	Skewness  float64 // biased sample skewness
	Kurtosis  float64 // biased Pearson kurtosis (3 for a normal sample)
}

// NormalTest performs the D'Agostino-Pearson K² test of the null hypothesis
// that values come from a normal distribution. It needs at least
// MinNormalTestObs values that are not all equal.
func NormalTest(values []float64) (*NormalTestResult, error) {
	n := len(values)
	if n < MinNormalTestObs {
		return nil, fmt.Errorf("normality test needs at least %d observations, got %d", MinNormalTestObs, n)
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.New("normality test sample contains non-finite values")
		}
	}

	m2 := stat.Moment(2, values, nil)
	if m2 == 0 {
		return nil, ErrConstantSample
	}
	skew := stat.Moment(3, values, nil) / math.Pow(m2, 1.5)
	kurt := stat.Moment(4, values, nil) / (m2 * m2)

	zs := skewZ(skew, float64(n))
	zk := kurtosisZ(kurt, float64(n))
	k2 := zs*zs + zk*zk
	if math.IsNaN(k2) {
		return nil, errors.New("normality statistic is undefined for this sample")
	}

	return &NormalTestResult{
		Statistic: k2,
		PValue:    distuv.ChiSquared{K: 2}.Survival(k2),
		ZSkew:     zs,
		ZKurtosis: zk,
		Skewness:  skew,
		Kurtosis:  kurt,
	}, nil
}

// skewZ transforms sample skewness to an approximately standard normal score
// (D'Agostino 1970).
func skewZ(b2, n float64) float64 {
	y := b2 * math.Sqrt((n+1)*(n+3)/(6*(n-2)))
	beta2 := 3 * (n*n + 27*n - 70) * (n + 1) * (n + 3) /
		((n - 2) * (n + 5) * (n + 7) * (n + 9))
	w2 := -1 + math.Sqrt(2*(beta2-1))
	delta := 1 / math.Sqrt(0.5*math.Log(w2))
	alpha := math.Sqrt(2 / (w2 - 1))
	if y == 0 {
		y = 1
	}
	return delta * math.Log(y/alpha+math.Sqrt((y/alpha)*(y/alpha)+1))
}

// kurtosisZ transforms Pearson kurtosis to an approximately standard normal
// score (Anscombe & Glynn 1983).
func kurtosisZ(b2, n float64) float64 {
	e := 3 * (n - 1) / (n + 1)
	varb2 := 24 * n * (n - 2) * (n - 3) / ((n + 1) * (n + 1) * (n + 3) * (n + 5))
	x := (b2 - e) / math.Sqrt(varb2)
	sqrtBeta1 := 6 * (n*n - 5*n + 2) / ((n + 7) * (n + 9)) *
		math.Sqrt(6*(n+3)*(n+5)/(n*(n-2)*(n-3)))
	a := 6 + 8/sqrtBeta1*(2/sqrtBeta1+math.Sqrt(1+4/(sqrtBeta1*sqrtBeta1)))
	term1 := 1 - 2/(9*a)
	denom := 1 + x*math.Sqrt(2/(a-4))
	if denom == 0 {
		return math.NaN()
	}
	term2 := math.Pow((1-2/a)/math.Abs(denom), 1.0/3.0)
	if denom < 0 {
		term2 = -term2
	}
	return (term1 - term2) / math.Sqrt(2/(9*a))
}
