// Package forecast turns order searches into comparable models.
//
// A Model is one of two variants: Plain searches the series as given,
// Transformed searches a transformed copy and inverts every prediction.
// Selector builds both from a training split, Evaluate scores a fitted model
// on the test split by mean squared error, and Forecast refits a fresh copy
// of the chosen model on the full series and dates its predictions forward.
package forecast
