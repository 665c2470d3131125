// Package autoarima implements automatic ARIMA order selection.
//
// Search determines the differencing order with stationarity tests, then
// walks candidate (p,q) (and seasonal (P,Q)) orders and keeps the one with
// the smallest information criterion.
//
//	config := autoarima.DefaultConfig()
//	config.MaxP, config.MaxQ = 3, 3
//	result, err := autoarima.Search(series, config)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(result, result.AIC, result.ModelsEvaluated)
//	forecasts, _ := result.Predict(10)
//
// Seasonal search needs a period:
//
//	config.Seasonal = true
//	config.SeasonalM = 7
//
// Stepwise search (the default) starts from a few small models and moves to
// the first neighbouring order that improves the criterion until none does.
// Set Stepwise to false for an exhaustive grid. When no candidate can be
// fitted, or the context passed to SearchContext is done, the error is a
// *ConvergenceError.
package autoarima
