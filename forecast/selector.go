package forecast

import (
	"context"

	"github.com/sartorproj/stocktool/autoarima"
	"github.com/sartorproj/stocktool/timeseries"
	"github.com/sartorproj/stocktool/transform"
)

// Selector fits the benchmark and best variants with one search
// configuration.
type Selector struct {
	search *autoarima.Config
}

// NewSelector returns a Selector; a nil cfg uses the search defaults.
func NewSelector(cfg *autoarima.Config) *Selector {
	return &Selector{search: cfg}
}

// Benchmark fits the untransformed variant on train.
func (s *Selector) Benchmark(ctx context.Context, train *timeseries.Series) (Model, error) {
	m := NewPlain(s.search)
	if err := m.FitContext(ctx, train); err != nil {
		return nil, err
	}
	return m, nil
}

// Best fits the variant carrying the selected transform on train. A nil
// candidate yields the untransformed variant.
func (s *Selector) Best(ctx context.Context, train *timeseries.Series, candidate *transform.Candidate) (Model, error) {
	if candidate == nil {
		return s.Benchmark(ctx, train)
	}
	m := NewTransformed(candidate.Transformer.Clone(), s.search)
	if err := m.FitContext(ctx, train); err != nil {
		return nil, err
	}
	return m, nil
}
