package transform

import "math"

const (
	LogName = "log"

	// DefaultShift keeps log and Box-Cox away from the singularity at zero.
	DefaultShift = 1e-6
)

// Log applies log(y + Shift). Non-positive shifted values are rejected.
type Log struct {
	Shift float64
}

// NewLog returns a log transform with DefaultShift.
func NewLog() *Log {
	return &Log{Shift: DefaultShift}
}

// Name returns LogName.
func (l *Log) Name() string { return LogName }

// Fit checks every value lies in the domain y + Shift > 0.
func (l *Log) Fit(values []float64) error {
	if err := checkFinite(values); err != nil {
		return err
	}
	for i, v := range values {
		if v+l.Shift <= 0 {
			return &DomainError{Index: i, Value: v, Shift: l.Shift}
		}
	}
	return nil
}

// Transform returns log(y + Shift) for each value.
func (l *Log) Transform(values []float64) ([]float64, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		if v+l.Shift <= 0 {
			return nil, &DomainError{Index: i, Value: v, Shift: l.Shift}
		}
		out[i] = math.Log(v + l.Shift)
	}
	return out, nil
}

// Inverse returns exp(v) - Shift for each value.
func (l *Log) Inverse(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = math.Exp(v) - l.Shift
	}
	return out
}

// Clone returns a copy with the same shift.
func (l *Log) Clone() Transformer {
	return &Log{Shift: l.Shift}
}
