package arima

import (
	"fmt"
	"strings"

	"github.com/sartorproj/stocktool/stats"
	"github.com/sartorproj/stocktool/timeseries"
)

// Summary describes a fitted model.
type Summary struct {
	Model     string
	Order     Order
	Seasonal  SeasonalOrder
	ARCoeffs  []float64
	MACoeffs  []float64
	SARCoeffs []float64
	SMACoeffs []float64
	Intercept float64
	Variance  float64
	AIC       float64
	AICc      float64 // Corrected AIC
	BIC       float64
	LogLik    float64
	NObs      int
	LjungBox  *stats.LjungBoxResult
	// SignificantLags lists residual autocorrelation lags outside the 95%
	// white-noise bound.
	SignificantLags []int
}

// Summary returns a summary of the fitted model, or nil before Fit.
func (m *Model) Summary() *Summary {
	if !m.fitted {
		return nil
	}

	fitdf := m.Order.P + m.Order.Q + m.Seasonal.P + m.Seasonal.Q
	resid := timeseries.New(m.residuals[m.start:])
	lb := stats.LjungBox(resid, 10, fitdf)
	lags := stats.SignificantLags(stats.ACF(resid, 10), stats.ConfidenceBound(resid.Len()))

	return &Summary{
		Model:     m.String(),
		Order:     m.Order,
		Seasonal:  m.Seasonal,
		ARCoeffs:  append([]float64(nil), m.ARCoeffs...),
		MACoeffs:  append([]float64(nil), m.MACoeffs...),
		SARCoeffs: append([]float64(nil), m.SARCoeffs...),
		SMACoeffs: append([]float64(nil), m.SMACoeffs...),
		Intercept: m.Intercept,
		Variance:  m.Variance,
		AIC:       m.AIC,
		AICc:      m.AICc,
		BIC:       m.BIC,
		LogLik:    m.LogLik,
		NObs:      m.nObs,
		LjungBox:  lb,

		SignificantLags: lags,
	}
}

// String renders the summary as a small text table.
func (s *Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Model:          %s\n", s.Model)
	fmt.Fprintf(&b, "Observations:   %d\n", s.NObs)
	fmt.Fprintf(&b, "Log likelihood: %.4f\n", s.LogLik)
	fmt.Fprintf(&b, "AIC:            %.4f\n", s.AIC)
	fmt.Fprintf(&b, "AICc:           %.4f\n", s.AICc)
	fmt.Fprintf(&b, "BIC:            %.4f\n", s.BIC)
	fmt.Fprintf(&b, "sigma2:         %.6g\n", s.Variance)
	fmt.Fprintf(&b, "intercept:      %.6g\n", s.Intercept)
	writeCoeffs(&b, "ar", s.ARCoeffs)
	writeCoeffs(&b, "ma", s.MACoeffs)
	writeCoeffs(&b, "ar.S", s.SARCoeffs)
	writeCoeffs(&b, "ma.S", s.SMACoeffs)
	if s.LjungBox != nil {
		fmt.Fprintf(&b, "Ljung-Box (L%d): Q=%.4f p=%.4f\n", s.LjungBox.Lags, s.LjungBox.Statistic, s.LjungBox.PValue)
	}
	if len(s.SignificantLags) > 0 {
		fmt.Fprintf(&b, "residual ACF lags outside bound: %v\n", s.SignificantLags)
	}
	return b.String()
}

func writeCoeffs(b *strings.Builder, label string, coeffs []float64) {
	for i, c := range coeffs {
		fmt.Fprintf(b, "%-15s %.6f\n", fmt.Sprintf("%s.L%d:", label, i+1), c)
	}
}
