package hours

import (
	"testing"
	"time"
)

func TestDayWindow(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		begin string
		endS  string
	}{
		{
			name:  "leap year month",
			start: time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
			begin: "2024-02-29T22:00:00+00:00",
			endS:  "2024-03-31T21:59:59+00:00",
		},
		{
			name:  "crossing year",
			start: time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
			end:   time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
			begin: "2024-12-31T22:00:00+00:00",
			endS:  "2025-01-01T21:59:59+00:00",
		},
		{
			name:  "time of day is ignored",
			start: time.Date(2025, time.June, 10, 23, 45, 0, 0, time.UTC),
			end:   time.Date(2025, time.June, 11, 5, 0, 0, 0, time.UTC),
			begin: "2025-06-09T22:00:00+00:00",
			endS:  "2025-06-11T21:59:59+00:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := DayWindow(tt.start, tt.end)
			if w.Begin != tt.begin {
				t.Errorf("Begin expected %q, got %q", tt.begin, w.Begin)
			}
			if w.End != tt.endS {
				t.Errorf("End expected %q, got %q", tt.endS, w.End)
			}
		})
	}
}

func TestYearWindow(t *testing.T) {
	w := YearWindow(2024)
	if w.Begin != "2023-12-31T22:00:00+00:00" {
		t.Errorf("Begin expected 2023-12-31T22:00:00+00:00, got %q", w.Begin)
	}
	if w.End != "2024-12-31T21:59:59+00:00" {
		t.Errorf("End expected 2024-12-31T21:59:59+00:00, got %q", w.End)
	}
}

func TestMonthToDate(t *testing.T) {
	// 23:30 UTC on the last day of March is already April 1st in Helsinki.
	first, today := MonthToDate(time.Date(2025, time.March, 31, 23, 30, 0, 0, time.UTC))
	if first.Format(dateLayout) != "2025-04-01" {
		t.Errorf("first expected 2025-04-01, got %s", first.Format(dateLayout))
	}
	if today.Format(dateLayout) != "2025-04-01" {
		t.Errorf("today expected 2025-04-01, got %s", today.Format(dateLayout))
	}
}

func TestYesterday(t *testing.T) {
	y := Yesterday(time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC))
	if y.Format(dateLayout) != "2025-02-28" {
		t.Errorf("Yesterday expected 2025-02-28, got %s", y.Format(dateLayout))
	}
}
