package timeseries

import "time"

// DateLayout is the yyyy-mm-dd layout used for dates on the wire and on disk.
const DateLayout = "2006-01-02"

// Inclusive selects which endpoints DateRange keeps.
type Inclusive int

const (
	InclusiveBoth Inclusive = iota
	InclusiveLeft
	InclusiveRight
	InclusiveNeither
)

// DateRange returns the consecutive calendar dates between start and end.
// Dates are truncated to midnight in start's location.
func DateRange(start, end time.Time, inclusive Inclusive) []time.Time {
	from := midnight(start)
	to := midnight(end)
	if to.Before(from) {
		return nil
	}

	var dates []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if d.Equal(from) && (inclusive == InclusiveRight || inclusive == InclusiveNeither) {
			continue
		}
		if d.Equal(to) && (inclusive == InclusiveLeft || inclusive == InclusiveNeither) {
			continue
		}
		dates = append(dates, d)
	}
	return dates
}

// ForwardDates returns the horizon dates that follow last: the range
// last .. last+horizon+1 days with both endpoints dropped.
func ForwardDates(last time.Time, horizon int) []time.Time {
	if horizon < 1 {
		return nil
	}
	return DateRange(last, last.AddDate(0, 0, horizon+1), InclusiveNeither)
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
