package transform

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

const (
	BoxCoxName = "boxcox"

	// DefaultFloor replaces non-positive shifted values under NegFloor.
	DefaultFloor = 1e-16

	minLambda = -2.0
	maxLambda = 2.0
)

// NegAction selects how BoxCox treats values with y + Shift <= 0.
type NegAction int

const (
	// NegRaise rejects the data.
	NegRaise NegAction = iota
	// NegFloor replaces offending values with Floor.
	NegFloor
)

// ErrConstantData is returned when lambda cannot be estimated because every
// value is equal.
var ErrConstantData = errors.New("box-cox lambda is undefined for constant data")

// BoxCox applies the Box-Cox power transform to y + Shift. When Lambda is nil
// the exponent is estimated by maximum likelihood over [-2, 2].
type BoxCox struct {
	Shift     float64
	Lambda    *float64
	NegAction NegAction
	Floor     float64

	lambda float64
	fitted bool
}

// NewBoxCox returns a Box-Cox transform with DefaultShift that floors
// non-positive values.
func NewBoxCox() *BoxCox {
	return &BoxCox{
		Shift:     DefaultShift,
		NegAction: NegFloor,
		Floor:     DefaultFloor,
	}
}

// Name returns BoxCoxName.
func (b *BoxCox) Name() string { return BoxCoxName }

// FittedLambda returns the exponent in use after Fit.
func (b *BoxCox) FittedLambda() float64 { return b.lambda }

func (b *BoxCox) shifted(values []float64) ([]float64, error) {
	floor := b.Floor
	if floor <= 0 {
		floor = DefaultFloor
	}
	out := make([]float64, len(values))
	for i, v := range values {
		x := v + b.Shift
		if x <= 0 {
			if b.NegAction != NegFloor {
				return nil, &DomainError{Index: i, Value: v, Shift: b.Shift}
			}
			x = floor
		}
		out[i] = x
	}
	return out, nil
}

// Fit uses the fixed Lambda when set and otherwise estimates it by
// maximum likelihood. Constant data cannot be estimated.
func (b *BoxCox) Fit(values []float64) error {
	if err := checkFinite(values); err != nil {
		return err
	}
	x, err := b.shifted(values)
	if err != nil {
		return err
	}

	if b.Lambda != nil {
		b.lambda = *b.Lambda
		b.fitted = true
		return nil
	}

	if floats.Min(x) == floats.Max(x) {
		return ErrConstantData
	}
	lambda, err := estimateLambda(x)
	if err != nil {
		return err
	}
	b.lambda = lambda
	b.fitted = true
	return nil
}

// Transform applies the fitted Box-Cox map to the shifted values.
func (b *BoxCox) Transform(values []float64) ([]float64, error) {
	if !b.fitted {
		return nil, errors.New("box-cox transform is not fitted")
	}
	x, err := b.shifted(values)
	if err != nil {
		return nil, err
	}
	for i, v := range x {
		x[i] = boxcox(v, b.lambda)
	}
	return x, nil
}

// Inverse maps values back to the original scale. Values below the image
// of the transform come back as -Shift (λ > 0) or +Inf (λ < 0).
func (b *BoxCox) Inverse(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if b.lambda == 0 {
			out[i] = math.Exp(v) - b.Shift
			continue
		}
		base := b.lambda*v + 1
		switch {
		case base > 0:
			out[i] = math.Pow(base, 1/b.lambda) - b.Shift
		case b.lambda > 0:
			// below the image of the transform, clamp to its lower limit
			out[i] = -b.Shift
		default:
			out[i] = math.Inf(1)
		}
	}
	return out
}

// Clone returns an unfitted copy with the same settings.
func (b *BoxCox) Clone() Transformer {
	c := &BoxCox{
		Shift:     b.Shift,
		NegAction: b.NegAction,
		Floor:     b.Floor,
	}
	if b.Lambda != nil {
		l := *b.Lambda
		c.Lambda = &l
	}
	return c
}

func boxcox(x, lambda float64) float64 {
	if lambda == 0 {
		return math.Log(x)
	}
	return (math.Pow(x, lambda) - 1) / lambda
}

// boxcoxLLF is the profile log-likelihood of lambda for positive x.
func boxcoxLLF(x []float64, lambda float64) float64 {
	y := make([]float64, len(x))
	logSum := 0.0
	for i, v := range x {
		y[i] = boxcox(v, lambda)
		logSum += math.Log(v)
	}
	mean := stat.Mean(y, nil)
	variance := 0.0
	for _, v := range y {
		variance += (v - mean) * (v - mean)
	}
	variance /= float64(len(y))
	return (lambda-1)*logSum - float64(len(x))/2*math.Log(variance)
}

// estimateLambda maximizes the profile likelihood: a coarse scan picks the
// start and Nelder-Mead refines it inside [minLambda, maxLambda].
func estimateLambda(x []float64) (float64, error) {
	negLLF := func(lambda float64) float64 {
		if lambda < minLambda || lambda > maxLambda {
			return math.MaxFloat64
		}
		v := -boxcoxLLF(x, lambda)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return math.MaxFloat64
		}
		return v
	}

	start, best := 1.0, negLLF(1.0)
	for l := minLambda; l <= maxLambda+1e-9; l += 0.25 {
		if v := negLLF(l); v < best {
			start, best = l, v
		}
	}
	if best == math.MaxFloat64 {
		return 0, errors.New("box-cox likelihood is not finite for any lambda")
	}

	problem := optimize.Problem{
		Func: func(p []float64) float64 { return negLLF(p[0]) },
	}
	res, err := optimize.Minimize(problem, []float64{start}, &optimize.Settings{FuncEvaluations: 500}, &optimize.NelderMead{})
	if res == nil {
		return 0, fmt.Errorf("box-cox lambda search: %w", err)
	}
	if res.F > best {
		return start, nil
	}
	return res.X[0], nil
}
