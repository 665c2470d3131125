package forecast

import (
	"context"
	"fmt"
	"strings"

	"github.com/sartorproj/stocktool/arima"
	"github.com/sartorproj/stocktool/autoarima"
	"github.com/sartorproj/stocktool/timeseries"
	"github.com/sartorproj/stocktool/transform"
)

// Model is a forecaster that selects and fits its ARIMA order on the series
// passed to Fit.
type Model interface {
	Fit(series *timeseries.Series) error
	Predict(n int) ([]float64, error)
	Summary() string
	Name() string
	// Clone returns an unfitted model of the same kind and configuration.
	Clone() Model
}

// ContextFitter is implemented by models whose order search can be cancelled.
type ContextFitter interface {
	FitContext(ctx context.Context, series *timeseries.Series) error
}

// IntervalPredictor is implemented by models that report prediction
// intervals on the original scale.
type IntervalPredictor interface {
	PredictWithInterval(n int, confidence float64) (forecasts, lower, upper []float64, err error)
}

// Fit fits m, passing ctx through when m supports it.
func Fit(ctx context.Context, m Model, series *timeseries.Series) error {
	if cf, ok := m.(ContextFitter); ok {
		return cf.FitContext(ctx, series)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.Fit(series)
}

// PlainName is the name of the untransformed variant.
const PlainName = "plain"

// Plain runs the order search directly on the series.
type Plain struct {
	Search *autoarima.Config

	result *autoarima.Result
}

// NewPlain returns an untransformed model searched with cfg (nil uses the
// search defaults).
func NewPlain(cfg *autoarima.Config) *Plain {
	return &Plain{Search: cfg}
}

// Name returns PlainName.
func (p *Plain) Name() string { return PlainName }

// Fit searches an order on series.
func (p *Plain) Fit(series *timeseries.Series) error {
	return p.FitContext(context.Background(), series)
}

// FitContext is Fit with cancellation between candidate orders.
func (p *Plain) FitContext(ctx context.Context, series *timeseries.Series) error {
	res, err := autoarima.SearchContext(ctx, series, p.Search)
	if err != nil {
		return err
	}
	p.result = res
	return nil
}

// Predict forecasts n steps past the training data.
func (p *Plain) Predict(n int) ([]float64, error) {
	if p.result == nil {
		return nil, arima.ErrNotFitted
	}
	return p.result.Predict(n)
}

// PredictWithInterval forecasts n steps with bounds at the given confidence.
func (p *Plain) PredictWithInterval(n int, confidence float64) (forecasts, lower, upper []float64, err error) {
	if p.result == nil {
		return nil, nil, nil, arima.ErrNotFitted
	}
	return p.result.Model.PredictWithInterval(n, confidence)
}

// Result returns the order search outcome, nil before Fit.
func (p *Plain) Result() *autoarima.Result { return p.result }

// Summary describes the selected order and its coefficients.
func (p *Plain) Summary() string {
	return summarize(p.Name(), p.result)
}

// Clone returns an unfitted model with the same search settings.
func (p *Plain) Clone() Model {
	return &Plain{Search: p.Search}
}

// Transformed applies a transform before the order search and inverts it on
// every prediction.
type Transformed struct {
	Transformer transform.Transformer
	Search      *autoarima.Config

	fitted transform.Transformer
	result *autoarima.Result
}

// NewTransformed returns a model that refits a clone of t on every Fit.
func NewTransformed(t transform.Transformer, cfg *autoarima.Config) *Transformed {
	return &Transformed{Transformer: t, Search: cfg}
}

// Name returns e.g. "transformed(boxcox)".
func (m *Transformed) Name() string {
	return "transformed(" + m.Transformer.Name() + ")"
}

// Fit fits a fresh transform on series, then searches an order on the
// transformed values.
func (m *Transformed) Fit(series *timeseries.Series) error {
	return m.FitContext(context.Background(), series)
}

// FitContext is Fit with cancellation between candidate orders. Transform
// failures are returned as *transform.FitError.
func (m *Transformed) FitContext(ctx context.Context, series *timeseries.Series) error {
	t := m.Transformer.Clone()
	if err := t.Fit(series.Values); err != nil {
		return &transform.FitError{Transform: t.Name(), Stage: transform.StageFit, Err: err}
	}
	values, err := t.Transform(series.Values)
	if err != nil {
		return &transform.FitError{Transform: t.Name(), Stage: transform.StageTransform, Err: err}
	}
	transformed, err := series.WithValues(values)
	if err != nil {
		return err
	}

	res, err := autoarima.SearchContext(ctx, transformed, m.Search)
	if err != nil {
		return err
	}
	m.fitted = t
	m.result = res
	return nil
}

// Predict forecasts n steps and maps them back to the original scale.
func (m *Transformed) Predict(n int) ([]float64, error) {
	if m.result == nil {
		return nil, arima.ErrNotFitted
	}
	out, err := m.result.Predict(n)
	if err != nil {
		return nil, err
	}
	return m.fitted.Inverse(out), nil
}

// PredictWithInterval maps the bounds through the inverse transform, which
// keeps them ordered because both transforms are increasing.
func (m *Transformed) PredictWithInterval(n int, confidence float64) (forecasts, lower, upper []float64, err error) {
	if m.result == nil {
		return nil, nil, nil, arima.ErrNotFitted
	}
	f, lo, hi, err := m.result.Model.PredictWithInterval(n, confidence)
	if err != nil {
		return nil, nil, nil, err
	}
	return m.fitted.Inverse(f), m.fitted.Inverse(lo), m.fitted.Inverse(hi), nil
}

// Result returns the order search outcome on the transformed scale.
func (m *Transformed) Result() *autoarima.Result { return m.result }

// Fitted returns the transform fitted by the last Fit, nil before Fit.
func (m *Transformed) Fitted() transform.Transformer { return m.fitted }

// Summary describes the selected order and, for Box-Cox, the fitted lambda.
func (m *Transformed) Summary() string {
	s := summarize(m.Name(), m.result)
	if b, ok := m.fitted.(*transform.BoxCox); ok {
		s += fmt.Sprintf("box-cox lambda: %.6f\n", b.FittedLambda())
	}
	return s
}

// Clone returns an unfitted model with a fresh copy of the transform.
func (m *Transformed) Clone() Model {
	return &Transformed{Transformer: m.Transformer.Clone(), Search: m.Search}
}

func summarize(name string, res *autoarima.Result) string {
	if res == nil || res.Model == nil {
		return name + ": not fitted\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Variant:        %s\n", name)
	fmt.Fprintf(&b, "Orders tried:   %d\n", res.ModelsEvaluated)
	if s := res.Model.Summary(); s != nil {
		b.WriteString(s.String())
	}
	return b.String()
}
