package forecast

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/sartorproj/stocktool/timeseries"
)

// LengthMismatchError is returned when a model produces a different number
// of predictions than requested.
type LengthMismatchError struct {
	Want int
	Got  int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("model produced %d predictions, want %d", e.Got, e.Want)
}

// Evaluation holds held-out predictions and their errors.
type Evaluation struct {
	Predictions *timeseries.Series // dated like the test split
	MSE         float64
	RMSE        float64
	MAE         float64
}

// Evaluate predicts len(test) steps past the end of the model's training data
// and scores them against test by position.
func Evaluate(model Model, test *timeseries.Series) (*Evaluation, error) {
	if test == nil || test.Len() == 0 {
		return nil, errors.New("test series is empty")
	}
	n := test.Len()

	preds, err := model.Predict(n)
	if err != nil {
		return nil, fmt.Errorf("predicting %d steps with %s: %w", n, model.Name(), err)
	}
	if len(preds) != n {
		return nil, &LengthMismatchError{Want: n, Got: len(preds)}
	}

	predSeries, err := test.WithValues(preds)
	if err != nil {
		return nil, err
	}

	residuals := make([]float64, n)
	floats.SubTo(residuals, test.Values, preds)
	mse := floats.Dot(residuals, residuals) / float64(n)
	mae := floats.Norm(residuals, 1) / float64(n)

	return &Evaluation{
		Predictions: predSeries,
		MSE:         mse,
		RMSE:        math.Sqrt(mse),
		MAE:         mae,
	}, nil
}
