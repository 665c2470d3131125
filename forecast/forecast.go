package forecast

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sartorproj/stocktool/timeseries"
)

// DefaultConfidence is the level of the prediction interval in a Result.
const DefaultConfidence = 0.95

// ForecastError is returned when a model cannot be refit on the full series
// or cannot produce the requested horizon.
type ForecastError struct {
	Model   string
	Horizon int
	Err     error
}

func (e *ForecastError) Error() string {
	return fmt.Sprintf("forecasting %d days with %s: %v", e.Horizon, e.Model, e.Err)
}

func (e *ForecastError) Unwrap() error { return e.Err }

// Result is a dated forecast beyond the last observation. Lower and Upper are
// set when the model reports prediction intervals.
type Result struct {
	Model  string
	Dates  []time.Time
	Values []float64
	Lower  []float64
	Upper  []float64
}

// Series returns the forecast as a series named after the model.
func (r *Result) Series() *timeseries.Series {
	return &timeseries.Series{
		Timestamps: append([]time.Time(nil), r.Dates...),
		Values:     append([]float64(nil), r.Values...),
		Name:       r.Model,
	}
}

// Forecast refits a fresh copy of model on full and predicts horizon daily
// values starting the day after full's last date. model itself is not
// modified.
func Forecast(model Model, full *timeseries.Series, horizon int) (*Result, error) {
	return ForecastContext(context.Background(), model, full, horizon)
}

// ForecastContext is Forecast with a cancellable refit.
func ForecastContext(ctx context.Context, model Model, full *timeseries.Series, horizon int) (*Result, error) {
	fail := func(err error) (*Result, error) {
		return nil, &ForecastError{Model: model.Name(), Horizon: horizon, Err: err}
	}

	if horizon < 1 {
		return fail(errors.New("horizon must be at least one day"))
	}
	if full == nil || full.Len() == 0 {
		return fail(errors.New("series is empty"))
	}

	refit := model.Clone()
	if err := Fit(ctx, refit, full); err != nil {
		return fail(fmt.Errorf("refit: %w", err))
	}

	res := &Result{
		Model: refit.Name(),
		Dates: timeseries.ForwardDates(full.Last(), horizon),
	}
	if ip, ok := refit.(IntervalPredictor); ok {
		f, lo, hi, err := ip.PredictWithInterval(horizon, DefaultConfidence)
		if err != nil {
			return fail(err)
		}
		res.Values, res.Lower, res.Upper = f, lo, hi
	} else {
		values, err := refit.Predict(horizon)
		if err != nil {
			return fail(err)
		}
		res.Values = values
	}

	if len(res.Values) != horizon || len(res.Dates) != horizon {
		return fail(&LengthMismatchError{Want: horizon, Got: len(res.Values)})
	}
	return res, nil
}
