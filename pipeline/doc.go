// Package pipeline runs the forecasting stages on one in-memory series:
//
//	loaded -> split -> transform-selected -> models-fit -> evaluated -> forecasted
//
// Each stage needs the previous one. A failure stops the run with a
// *StageError naming the stage; the typed cause (for example
// *timeseries.InsufficientDataError or *autoarima.ConvergenceError) is
// reachable with errors.As. Transform candidates that cannot be fitted do not
// stop the run: they are listed in Report.TransformErrors and, when none
// succeeds, Report.FallbackUntransformed is set and the best model is the
// untransformed one.
//
// The benchmark is the untransformed model. The forward forecast uses
// whichever of benchmark and best has the lower test MSE, preferring the
// benchmark on a tie, refit on the complete series.
package pipeline
