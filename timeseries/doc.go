// Package timeseries provides time series data structures and utilities.
//
// A Series pairs ascending, unique dates with one float64 value each. The
// forecasting stages never mutate a Series they are handed; operations such as
// Slice, Diff and SplitFraction return copies.
//
// # Creating a Series
//
//	values := []float64{100, 102, 105, 103, 108, 110}
//	series := timeseries.NewDaily(start, values)
//	if err := series.Validate(); err != nil {
//	    // empty, unsorted or non-finite
//	}
//
// # Train/Test Split
//
//	split, err := timeseries.SplitFraction(series, 0.8)
//	var short *timeseries.InsufficientDataError
//	if errors.As(err, &short) {
//	    // one side of the split would be empty
//	}
//
// # Forward Dates
//
// ForwardDates builds the index of a forecast horizon. The last observed date
// is excluded and exactly horizon dates follow it:
//
//	dates := timeseries.ForwardDates(series.Last(), 7)
//
// # CSV
//
//	series, err := timeseries.LoadCSV("data.csv", nil) // date,value header
//	err = timeseries.SaveCSV(series, "out.csv")
package timeseries
