package transform

import (
	"errors"

	"github.com/sartorproj/stocktool/stats"
	"github.com/sartorproj/stocktool/timeseries"
)

// Candidate is a transform fitted to a training series together with the
// normality score of its output.
type Candidate struct {
	Name        string
	Transformer Transformer // fitted
	Values      []float64   // transformed training values
	Statistic   float64     // D'Agostino-Pearson K²
	PValue      float64
}

// Series returns the transformed values on the dates of like.
func (c *Candidate) Series(like *timeseries.Series) (*timeseries.Series, error) {
	return like.WithValues(c.Values)
}

// Select fits every candidate to train and scores its output with the
// D'Agostino-Pearson normality test. The candidate with the lowest p-value
// wins; on an exact tie the earlier candidate is kept. Every candidate that
// fails contributes a *FitError. The returned candidate is nil when all of
// them fail.
//
// The transformers passed in are cloned and left untouched.
func Select(train *timeseries.Series, candidates []Transformer) (*Candidate, []error) {
	if len(candidates) == 0 {
		return nil, []error{errors.New("no candidate transforms configured")}
	}

	var (
		best *Candidate
		errs []error
	)
	for _, proto := range candidates {
		c, err := score(train.Values, proto.Clone())
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if best == nil || c.PValue < best.PValue {
			best = c
		}
	}
	return best, errs
}

func score(values []float64, t Transformer) (*Candidate, error) {
	if err := t.Fit(values); err != nil {
		return nil, &FitError{Transform: t.Name(), Stage: StageFit, Err: err}
	}
	out, err := t.Transform(values)
	if err != nil {
		return nil, &FitError{Transform: t.Name(), Stage: StageTransform, Err: err}
	}
	res, err := stats.NormalTest(out)
	if err != nil {
		return nil, &FitError{Transform: t.Name(), Stage: StageScore, Err: err}
	}
	return &Candidate{
		Name:        t.Name(),
		Transformer: t,
		Values:      out,
		Statistic:   res.Statistic,
		PValue:      res.PValue,
	}, nil
}
