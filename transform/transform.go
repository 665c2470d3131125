package transform

import (
	"fmt"
	"math"
)

// Transformer is a fitted, invertible map applied to series values before
// modelling.
type Transformer interface {
	// Name identifies the transform, e.g. "log" or "boxcox".
	Name() string
	// Fit estimates parameters from values and checks they lie in the
	// transform's domain.
	Fit(values []float64) error
	// Transform maps values with the fitted parameters.
	Transform(values []float64) ([]float64, error)
	// Inverse maps transformed values back to the original scale.
	Inverse(values []float64) []float64
	// Clone returns an unfitted copy with the same configuration.
	Clone() Transformer
}

// Stage names the step at which a candidate failed.
type Stage string

const (
	StageFit       Stage = "fit"
	StageTransform Stage = "transform"
	StageScore     Stage = "score"
)

// FitError reports a candidate transform that rejected the data.
type FitError struct {
	Transform string
	Stage     Stage
	Err       error
}

func (e *FitError) Error() string {
	return fmt.Sprintf("transform %s failed at %s: %v", e.Transform, e.Stage, e.Err)
}

func (e *FitError) Unwrap() error { return e.Err }

// DomainError is returned when a value falls outside a transform's domain.
type DomainError struct {
	Index int
	Value float64
	Shift float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("value %g at index %d is not positive after shift %g", e.Value, e.Index, e.Shift)
}

// Default returns the default candidate set: log and Box-Cox, each shifted by
// 1e-6.
func Default() []Transformer {
	return []Transformer{NewLog(), NewBoxCox()}
}

// ByName returns a fresh default-configured transformer.
func ByName(name string) (Transformer, error) {
	switch name {
	case LogName:
		return NewLog(), nil
	case BoxCoxName:
		return NewBoxCox(), nil
	default:
		return nil, fmt.Errorf("unknown transform %q", name)
	}
}

func checkFinite(values []float64) error {
	if len(values) == 0 {
		return fmt.Errorf("no values")
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("value at index %d is not finite", i)
		}
	}
	return nil
}
