// Package arima implements seasonal AutoRegressive Integrated Moving Average
// models, ARIMA(p,d,q)(P,D,Q)[m], fitted by conditional sum of squares.
package arima

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/stocktool/stats"
	"github.com/sartorproj/stocktool/timeseries"
)

const (
	// coefBound keeps every AR/MA coefficient inside (-coefBound, coefBound).
	coefBound = 0.99
	// minVariance floors the innovation variance so perfect fits keep a
	// finite likelihood.
	minVariance = 1e-12
	maxEvals    = 4000
)

var (
	ErrNotFitted         = errors.New("model must be fitted before prediction")
	ErrInsufficientData  = errors.New("insufficient data points for the specified order")
	ErrInvalidHorizon    = errors.New("steps must be at least 1")
	ErrNonFiniteEstimate = errors.New("estimation produced non-finite parameters")
)

// Order represents the non-seasonal order (p, d, q).
type Order struct {
	P int // AR order (number of autoregressive terms)
	D int // Differencing order
	Q int // MA order (number of moving average terms)
}

// SeasonalOrder represents the seasonal order (P, D, Q) with period M.
// The zero value means no seasonal component.
type SeasonalOrder struct {
	P int
	D int
	Q int
	M int
}

func (s SeasonalOrder) active() bool {
	return s.M > 1 && (s.P > 0 || s.D > 0 || s.Q > 0)
}

// Model represents an ARIMA model.
type Model struct {
	Order     Order
	Seasonal  SeasonalOrder
	ARCoeffs  []float64 // AR coefficients (phi)
	MACoeffs  []float64 // MA coefficients (theta)
	SARCoeffs []float64 // Seasonal AR coefficients (Phi)
	SMACoeffs []float64 // Seasonal MA coefficients (Theta)
	Intercept float64   // Mean (d+D == 0) or drift (d+D == 1) of the differenced series
	Variance  float64   // Residual variance
	AIC       float64
	AICc      float64 // Corrected AIC for small sample sizes
	BIC       float64
	LogLik    float64

	fitted     bool
	nObs       int
	levels     [][]float64 // series before each differencing step
	diffData   []float64
	start      int
	residuals  []float64
	fittedVals []float64
}

// New creates a new non-seasonal ARIMA(p,d,q) model.
func New(p, d, q int) *Model {
	return NewSeasonal(Order{P: p, D: d, Q: q}, SeasonalOrder{})
}

// NewSeasonal creates an ARIMA(p,d,q)(P,D,Q)[m] model.
func NewSeasonal(order Order, seasonal SeasonalOrder) *Model {
	if !seasonal.active() {
		seasonal = SeasonalOrder{}
	}
	return &Model{
		Order:    order,
		Seasonal: seasonal,
	}
}

// String returns the model order in the usual ARIMA(p,d,q)(P,D,Q)[m] notation.
func (m *Model) String() string {
	s := fmt.Sprintf("ARIMA(%d,%d,%d)", m.Order.P, m.Order.D, m.Order.Q)
	if m.Seasonal.active() {
		s += fmt.Sprintf("(%d,%d,%d)[%d]", m.Seasonal.P, m.Seasonal.D, m.Seasonal.Q, m.Seasonal.M)
	}
	return s
}

// MinObservations returns the series length Fit requires for this order.
func (m *Model) MinObservations() int {
	o, s := m.Order, m.Seasonal
	if o.P+o.Q+s.P+s.Q == 0 {
		return o.D + s.D*s.M + 2
	}
	if s.active() {
		return o.P + o.Q + o.D + (s.P+s.D+s.Q)*s.M + 20
	}
	return o.P + o.Q + o.D + 10
}

func (m *Model) hasIntercept() bool {
	return m.Order.D+m.Seasonal.D < 2
}

func (m *Model) numParams() int {
	k := m.Order.P + m.Order.Q + m.Seasonal.P + m.Seasonal.Q
	if m.hasIntercept() {
		k++
	}
	return k
}

// Fit fits the model to the given time series data.
func (m *Model) Fit(series *timeseries.Series) error {
	if series.Len() < m.MinObservations() {
		return ErrInsufficientData
	}

	levels := make([][]float64, 0, m.Order.D+m.Seasonal.D)
	w := append([]float64(nil), series.Values...)
	for i := 0; i < m.Order.D; i++ {
		levels = append(levels, w)
		w = lagDiff(w, 1)
	}
	for i := 0; i < m.Seasonal.D; i++ {
		levels = append(levels, w)
		w = lagDiff(w, m.Seasonal.M)
	}
	if len(w) < 2 {
		return errors.New("differencing left fewer than two observations")
	}

	m.levels = levels
	m.diffData = w
	m.nObs = series.Len()
	m.Intercept = 0
	if m.hasIntercept() {
		m.Intercept = floats.Sum(w) / float64(len(w))
	}

	if err := m.fitCSS(); err != nil {
		return err
	}
	m.calculateIC()

	m.fitted = true
	return nil
}

// fitCSS estimates the coefficients by minimizing the conditional sum of
// squares with Nelder-Mead.
func (m *Model) fitCSS() error {
	o, s := m.Order, m.Seasonal
	m.start = o.P + s.P*s.M
	if m.start >= len(m.diffData)-1 {
		return ErrInsufficientData
	}

	x0 := m.initialParams()
	if len(x0) > 0 {
		sst := 0.0
		for _, v := range m.diffData {
			sst += (v - m.Intercept) * (v - m.Intercept)
		}
		penalty := 1e10 * (1 + sst)

		problem := optimize.Problem{
			Func: func(x []float64) float64 {
				for _, v := range x {
					if math.Abs(v) >= coefBound {
						return penalty
					}
				}
				m.setParams(x)
				sse, _ := m.css()
				return sse
			},
		}
		settings := &optimize.Settings{FuncEvaluations: maxEvals}

		res, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
		if res == nil {
			return fmt.Errorf("css optimization: %w", err)
		}
		if math.IsNaN(res.F) || math.IsInf(res.F, 0) || res.F >= penalty {
			return ErrNonFiniteEstimate
		}
		m.setParams(res.X)
	}

	_, resid := m.css()
	m.residuals = resid
	m.fittedVals = make([]float64, len(resid))
	for i := range resid {
		m.fittedVals[i] = m.diffData[i] - resid[i]
	}
	return nil
}

// initialParams packs Yule-Walker AR estimates and small MA values as in
// [phi, theta, Phi, Theta] order.
func (m *Model) initialParams() []float64 {
	o, s := m.Order, m.Seasonal
	x := make([]float64, 0, o.P+o.Q+s.P+s.Q)

	maxLag := max(o.P, s.P*s.M)
	r := stats.ACF(timeseries.New(m.diffData), maxLag)

	ar := make([]float64, o.P)
	if o.P > 0 && r != nil {
		if yw := yuleWalker(r, o.P); yw != nil {
			copy(ar, yw)
		}
	}
	for _, v := range ar {
		x = append(x, clamp(v, 0.9))
	}
	for i := 0; i < o.Q; i++ {
		x = append(x, 0.1)
	}
	for i := 0; i < s.P; i++ {
		v := 0.0
		if lag := (i + 1) * s.M; r != nil && lag < len(r) {
			v = r[lag] * 0.5
		}
		x = append(x, clamp(v, 0.9))
	}
	for i := 0; i < s.Q; i++ {
		x = append(x, 0.1)
	}
	return x
}

func (m *Model) setParams(x []float64) {
	o, s := m.Order, m.Seasonal
	i := 0
	take := func(n int) []float64 {
		out := append([]float64(nil), x[i:i+n]...)
		i += n
		return out
	}
	m.ARCoeffs = take(o.P)
	m.MACoeffs = take(o.Q)
	m.SARCoeffs = take(s.P)
	m.SMACoeffs = take(s.Q)
}

// css returns the conditional sum of squares and residuals of the
// differenced series under the current coefficients.
func (m *Model) css() (float64, []float64) {
	a := m.arPoly()
	b := m.maPoly()
	w := m.diffData
	mu := m.Intercept

	resid := make([]float64, len(w))
	sse := 0.0
	for t := m.start; t < len(w); t++ {
		pred := mu
		for k := 1; k < len(a); k++ {
			if t-k >= 0 {
				pred += a[k] * (w[t-k] - mu)
			}
		}
		for k := 1; k < len(b); k++ {
			if t-k >= 0 {
				pred += b[k] * resid[t-k]
			}
		}
		resid[t] = w[t] - pred
		sse += resid[t] * resid[t]
	}
	return sse, resid
}

// arPoly returns a with w_t = sum_k a[k] w_{t-k} + ..., the expansion of
// phi(B) * Phi(B^m). a[0] is unused.
func (m *Model) arPoly() []float64 {
	phi := lagPoly(m.ARCoeffs, 1, -1)
	sphi := lagPoly(m.SARCoeffs, m.Seasonal.M, -1)
	c := polyMul(phi, sphi)
	for k := 1; k < len(c); k++ {
		c[k] = -c[k]
	}
	return c
}

// maPoly returns the expansion of theta(B) * Theta(B^m).
func (m *Model) maPoly() []float64 {
	return polyMul(lagPoly(m.MACoeffs, 1, 1), lagPoly(m.SMACoeffs, m.Seasonal.M, 1))
}

// calculateIC calculates the Gaussian CSS likelihood, AIC, AICc and BIC.
func (m *Model) calculateIC() {
	n := len(m.diffData) - m.start
	k := m.numParams()

	sse := 0.0
	for t := m.start; t < len(m.residuals); t++ {
		sse += m.residuals[t] * m.residuals[t]
	}

	sigma2 := math.Max(sse/float64(n), minVariance)
	m.Variance = sigma2
	if n > k {
		m.Variance = math.Max(sse/float64(n-k), minVariance)
	}

	m.LogLik = -float64(n) / 2 * (math.Log(2*math.Pi*sigma2) + 1)
	ic := stats.CalculateIC(m.LogLik, n, k)
	m.AIC = ic.AIC
	m.AICc = ic.AICc
	m.BIC = ic.BIC
}

// Predict generates forecasts for the specified number of steps ahead.
func (m *Model) Predict(steps int) ([]float64, error) {
	forecasts, _, _, err := m.PredictWithInterval(steps, 0.95)
	return forecasts, err
}

// PredictWithInterval generates forecasts with prediction intervals at the
// given confidence level (0.95 when out of range).
func (m *Model) PredictWithInterval(steps int, confidence float64) (forecasts, lower, upper []float64, err error) {
	if !m.fitted {
		return nil, nil, nil, ErrNotFitted
	}
	if steps < 1 {
		return nil, nil, nil, ErrInvalidHorizon
	}
	if confidence <= 0 || confidence >= 1 {
		confidence = 0.95
	}

	a := m.arPoly()
	b := m.maPoly()
	w := m.diffData
	n := len(w)
	mu := m.Intercept

	extW := make([]float64, n+steps)
	copy(extW, w)
	extE := make([]float64, n+steps)
	copy(extE, m.residuals)

	for h := 0; h < steps; h++ {
		t := n + h
		pred := mu
		for k := 1; k < len(a); k++ {
			if t-k >= 0 {
				pred += a[k] * (extW[t-k] - mu)
			}
		}
		for k := 1; k < len(b); k++ {
			if t-k >= 0 {
				pred += b[k] * extE[t-k]
			}
		}
		extW[t] = pred
	}

	forecasts = append([]float64(nil), extW[n:]...)
	forecasts = m.integrate(forecasts)

	psi := m.psiWeights(steps)
	z := distuv.UnitNormal.Quantile((1 + confidence) / 2)
	lower = make([]float64, steps)
	upper = make([]float64, steps)
	cum := 0.0
	for h := 0; h < steps; h++ {
		cum += psi[h] * psi[h]
		se := math.Sqrt(m.Variance * cum)
		lower[h] = forecasts[h] - z*se
		upper[h] = forecasts[h] + z*se
	}

	return forecasts, lower, upper, nil
}

// integrate undoes the differencing steps in reverse order.
func (m *Model) integrate(forecasts []float64) []float64 {
	out := forecasts
	for i := len(m.levels) - 1; i >= 0; i-- {
		lag := 1
		if i >= m.Order.D {
			lag = m.Seasonal.M
		}
		history := m.levels[i]
		next := make([]float64, len(out))
		for h := range out {
			if h-lag >= 0 {
				next[h] = out[h] + next[h-lag]
			} else {
				next[h] = out[h] + history[len(history)+h-lag]
			}
		}
		out = next
	}
	return out
}

// psiWeights returns the first n MA(infinity) weights of the integrated model.
func (m *Model) psiWeights(n int) []float64 {
	// c(B) = phi(B) Phi(B^m) (1-B)^d (1-B^m)^D, written as 1 + c1 B + ...
	c := polyMul(lagPoly(m.ARCoeffs, 1, -1), lagPoly(m.SARCoeffs, m.Seasonal.M, -1))
	for i := 0; i < m.Order.D; i++ {
		c = polyMul(c, []float64{1, -1})
	}
	for i := 0; i < m.Seasonal.D; i++ {
		c = polyMul(c, lagPoly([]float64{1}, m.Seasonal.M, -1))
	}
	b := m.maPoly()

	psi := make([]float64, n)
	for j := 0; j < n; j++ {
		v := 0.0
		if j < len(b) {
			v = b[j]
		}
		for k := 1; k <= j && k < len(c); k++ {
			v -= c[k] * psi[j-k]
		}
		psi[j] = v
	}
	return psi
}

// Residuals returns the model residuals on the differenced scale.
func (m *Model) Residuals() []float64 {
	if !m.fitted {
		return nil
	}
	return append([]float64(nil), m.residuals...)
}

// FittedValues returns the one-step fitted values on the differenced scale.
func (m *Model) FittedValues() []float64 {
	if !m.fitted {
		return nil
	}
	return append([]float64(nil), m.fittedVals...)
}

// lagPoly builds 1 + sign*(c[0] B^lag + c[1] B^(2 lag) + ...).
func lagPoly(coeffs []float64, lag int, sign float64) []float64 {
	if len(coeffs) == 0 || lag < 1 {
		return []float64{1}
	}
	p := make([]float64, len(coeffs)*lag+1)
	p[0] = 1
	for i, c := range coeffs {
		p[(i+1)*lag] = sign * c
	}
	return p
}

func polyMul(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, x := range a {
		for j, y := range b {
			out[i+j] += x * y
		}
	}
	return out
}

func lagDiff(values []float64, lag int) []float64 {
	if len(values) <= lag {
		return nil
	}
	out := make([]float64, len(values)-lag)
	for i := lag; i < len(values); i++ {
		out[i-lag] = values[i] - values[i-lag]
	}
	return out
}

func clamp(v, bound float64) float64 {
	return math.Max(-bound, math.Min(bound, v))
}

// yuleWalker estimates AR coefficients from autocorrelations with the
// Levinson-Durbin recursion.
func yuleWalker(acf []float64, order int) []float64 {
	if order <= 0 || len(acf) <= order {
		return nil
	}

	phi := make([]float64, order)
	phi[0] = acf[1]
	v := 1 - phi[0]*phi[0]

	for i := 1; i < order; i++ {
		if v <= 0 {
			break
		}
		lambda := acf[i+1]
		for j := 0; j < i; j++ {
			lambda -= phi[j] * acf[i-j]
		}
		lambda /= v

		next := make([]float64, i+1)
		for j := 0; j < i; j++ {
			next[j] = phi[j] - lambda*phi[i-1-j]
		}
		next[i] = lambda
		copy(phi, next)

		v *= 1 - lambda*lambda
	}

	return phi
}
