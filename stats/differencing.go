package stats

import (
	"math"

	"github.com/sartorproj/stocktool/timeseries"
)

// NDiffs determines the number of first differences required for stationarity.
// testType "adf" uses ADF alone; the default "kpss" requires KPSS and ADF to
// agree, or KPSS alone with p > 0.1. A constant series needs no differencing.
func NDiffs(series *timeseries.Series, maxD int, testType string) int {
	if maxD <= 0 {
		maxD = 2
	}

	current := series
	for d := 0; d < maxD; d++ {
		if current.IsConstant() || isStationary(current, testType) {
			return d
		}

		current = current.Diff()
		if current.Len() < 10 {
			return d
		}
	}

	return maxD
}

func isStationary(series *timeseries.Series, testType string) bool {
	adf := ADF(series, 0)
	adfStationary := adf != nil && adf.IsStationary
	if testType == "adf" {
		return adfStationary
	}

	kpss := KPSS(series, "c", 0)
	if kpss == nil || !kpss.IsStationary {
		return false
	}
	return adfStationary || kpss.PValue > 0.1
}

// NSDiffs determines the number of seasonal differences required. One
// seasonal difference is suggested while the autocorrelation at the seasonal
// lag exceeds 0.5 in magnitude.
func NSDiffs(series *timeseries.Series, period int, maxD int) int {
	if maxD <= 0 {
		maxD = 1
	}
	if period <= 1 {
		return 0
	}

	current := series
	for d := 0; d < maxD; d++ {
		if current.Len() < 2*period {
			return d
		}
		r := ACF(current, period)
		if r == nil || len(r) <= period || math.Abs(r[period]) <= 0.5 {
			return d
		}
		current = current.SeasonalDiff(period)
	}

	return maxD
}

// InformationCriteria holds the likelihood-based criteria of a fitted model.
type InformationCriteria struct {
	AIC    float64
	AICc   float64
	BIC    float64
	LogLik float64
}

// CalculateIC calculates all information criteria.
// logLik is the log-likelihood, nObs is the number of observations,
// nParams is the number of estimated parameters.
func CalculateIC(logLik float64, nObs int, nParams int) *InformationCriteria {
	k := float64(nParams)
	n := float64(nObs)

	aic := -2*logLik + 2*k
	bic := -2*logLik + k*math.Log(n)

	aicc := math.Inf(1)
	if n-k-1 > 0 {
		aicc = aic + 2*k*(k+1)/(n-k-1)
	}

	return &InformationCriteria{
		AIC:    aic,
		AICc:   aicc,
		BIC:    bic,
		LogLik: logLik,
	}
}
