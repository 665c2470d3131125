package timeseries

import (
	"fmt"
	"math"
)

// Split holds an order-preserving train/test partition of a series.
type Split struct {
	Train *Series
	Test  *Series
}

// InsufficientDataError is returned when a split would leave either
// partition empty.
type InsufficientDataError struct {
	Len      int
	Fraction float64
	TrainLen int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("cannot split %d observations with train fraction %g (train length %d)",
		e.Len, e.Fraction, e.TrainLen)
}

// TrainLen returns round(n * fraction), rounding halves to even.
func TrainLen(n int, fraction float64) int {
	return int(math.RoundToEven(float64(n) * fraction))
}

// SplitFraction partitions series into a train prefix of
// round(len * fraction) observations and a test suffix holding the rest.
// Both halves are copies.
func SplitFraction(series *Series, fraction float64) (*Split, error) {
	n := series.Len()
	if !(fraction > 0 && fraction < 1) {
		return nil, &InsufficientDataError{Len: n, Fraction: fraction}
	}

	trainLen := TrainLen(n, fraction)
	if trainLen == 0 || trainLen >= n {
		return nil, &InsufficientDataError{Len: n, Fraction: fraction, TrainLen: trainLen}
	}

	return &Split{
		Train: series.Slice(0, trainLen),
		Test:  series.Slice(trainLen, n),
	}, nil
}
