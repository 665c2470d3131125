// Package arima implements AutoRegressive Integrated Moving Average (ARIMA) models.
//
// An ARIMA(p,d,q)(P,D,Q)[m] model differences the series d times at lag 1 and
// D times at lag m, then fits
//
//	phi(B) Phi(B^m) (w_t - mu) = theta(B) Theta(B^m) e_t
//
// to the differenced series w by conditional sum of squares. mu is the mean
// of w when d+D == 0, the drift when d+D == 1, and zero otherwise.
//
// # Basic Usage
//
//	model := arima.New(1, 1, 0)
//	if err := model.Fit(series); err != nil {
//	    return err
//	}
//	forecasts, _ := model.Predict(10)
//
// Seasonal models:
//
//	model := arima.NewSeasonal(arima.Order{P: 1, D: 1}, arima.SeasonalOrder{P: 1, D: 1, M: 12})
//
// # Model Selection
//
// AIC, AICc and BIC are filled by Fit. For automatic order selection use the
// autoarima package.
package arima
