package timeseries

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForwardDates(t *testing.T) {
	dates := ForwardDates(date("2020-01-10"), 7)

	require.Len(t, dates, 7)
	assert.Equal(t, date("2020-01-11"), dates[0])
	assert.Equal(t, date("2020-01-17"), dates[6])
	for i := 1; i < len(dates); i++ {
		assert.Equal(t, Day, dates[i].Sub(dates[i-1]))
	}
}

func TestForwardDatesCrossesMonth(t *testing.T) {
	dates := ForwardDates(date("2020-02-28"), 3)
	assert.Equal(t, []string{"2020-02-29", "2020-03-01", "2020-03-02"}, format(dates))

	assert.Empty(t, ForwardDates(date("2020-02-28"), 0))
}

func TestDateRangeInclusive(t *testing.T) {
	start, end := date("2020-01-01"), date("2020-01-04")

	assert.Len(t, DateRange(start, end, InclusiveBoth), 4)
	assert.Equal(t, []string{"2020-01-01", "2020-01-02", "2020-01-03"}, format(DateRange(start, end, InclusiveLeft)))
	assert.Equal(t, []string{"2020-01-02", "2020-01-03", "2020-01-04"}, format(DateRange(start, end, InclusiveRight)))
	assert.Equal(t, []string{"2020-01-02", "2020-01-03"}, format(DateRange(start, end, InclusiveNeither)))
	assert.Nil(t, DateRange(end, start, InclusiveBoth))
}

func format(dates []time.Time) []string {
	out := make([]string, len(dates))
	for i, d := range dates {
		out[i] = d.Format(DateLayout)
	}
	return out
}
