// Package stocktool forecasts daily stock closing prices with automatically
// selected ARIMA models.
//
// A run downloads one dataset column, splits it into training and test
// ranges, picks a variance-stabilising transform, fits a benchmark and a
// transformed model, scores both on the held-out range and refits the
// better one on the full series to forecast the following days.
//
// # Quick Start
//
// Run the pipeline on an in-memory series:
//
//	series := timeseries.NewDaily(start, closes)
//	report, err := pipeline.Run(ctx, series, pipeline.DefaultConfig(), logger)
//	if err != nil {
//		return err
//	}
//	fmt.Println(report.Forecast.Values)
//
// Fit models directly:
//
//	model := arima.New(1, 1, 0)
//	model.Fit(series)
//	forecasts, _ := model.Predict(7)
//
//	result, _ := autoarima.Search(series, autoarima.DefaultConfig())
//	forecasts, _ = result.Predict(7)
//
// # Packages
//
//   - timeseries: dated series, train/test split, CSV, date ranges
//   - stats: autocorrelation, Ljung-Box, ADF, KPSS and normality tests
//   - arima: seasonal and non-seasonal ARIMA estimation and prediction
//   - autoarima: stepwise or exhaustive order search
//   - transform: log and Box-Cox transforms and their selection
//   - forecast: model variants, held-out evaluation and forward forecasts
//   - pipeline: the end-to-end run
//   - analysis: simple return and rolling maximum drawdown
//
// The stocktool command in cmd/stocktool wraps the pipeline with data
// download, interactive prompts and CSV and PNG output.
//
// # References
//
//   - Hyndman, R.J., & Athanasopoulos, G. (2021). Forecasting: Principles and Practice
//   - Box, G. E. P., & Cox, D. R. (1964). An Analysis of Transformations
package stocktool
