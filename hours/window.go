package hours

import (
	"fmt"
	"time"
)

// The provider's day starts at 22:00 UTC on the previous calendar day.
const (
	dayBeginSuffix = "T22:00:00+00:00"
	dayEndSuffix   = "T21:59:59+00:00"
)

// Window is a query range in the format the measurement API expects.
type Window struct {
	Begin string
	End   string
}

func (w Window) String() string {
	return w.Begin + "/" + w.End
}

// DayWindow covers the calendar days start..end inclusive. Only the dates of
// start and end are used.
func DayWindow(start, end time.Time) Window {
	previousDay := time.Date(start.Year(), start.Month(), start.Day()-1, 0, 0, 0, 0, time.UTC)
	return Window{
		Begin: previousDay.Format(dateLayout) + dayBeginSuffix,
		End:   end.Format(dateLayout) + dayEndSuffix,
	}
}

// YearWindow covers the whole calendar year.
func YearWindow(year int) Window {
	return Window{
		Begin: fmt.Sprintf("%04d-12-31%s", year-1, dayBeginSuffix),
		End:   fmt.Sprintf("%04d-12-31%s", year, dayEndSuffix),
	}
}

// MonthToDate returns the first day of t's month and t's date, in provider local time.
func MonthToDate(t time.Time) (time.Time, time.Time) {
	local := LocationHelsinki(t)
	first := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, time.UTC)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	return first, today
}

// Yesterday returns yesterday's date in provider local time.
func Yesterday(t time.Time) time.Time {
	local := LocationHelsinki(t)
	return time.Date(local.Year(), local.Month(), local.Day()-1, 0, 0, 0, 0, time.UTC)
}
