// Package stats provides statistical tests and analysis functions for time series.
//
// # Stationarity
//
//	adf := stats.ADF(series, 0)         // H0: unit root
//	kpss := stats.KPSS(series, "c", 0)  // H0: level stationary
//	d := stats.NDiffs(series, 2, "kpss")
//	sd := stats.NSDiffs(series, 12, 1)
//
// Tests return nil when the series is too short (fewer than 10 points) or the
// regression they rely on is singular.
//
// # Autocorrelation
//
//	acf := stats.ACF(series, 20)
//	lags := stats.SignificantLags(acf, stats.ConfidenceBound(series.Len()))
//
// # Residual Diagnostics
//
//	lb := stats.LjungBox(residuals, 10, p+q)
//
// # Normality
//
// NormalTest is the D'Agostino-Pearson K² omnibus test, combining skewness and
// kurtosis z-scores. The p-value is the chi-squared(2) survival of K².
//
//	res, err := stats.NormalTest(values)
package stats
