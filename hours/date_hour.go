package hours

import (
	"cmp"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

var helsinkiLoc = mustLoadLocation("Europe/Helsinki")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("failed to load location %s: %v", name, err))
	}
	return loc
}

// DateHour identifies one UTC hour, used as the key of hourly rows.
type DateHour struct {
	Date string
	Hour uint8
}

func (dh DateHour) String() string {
	return fmt.Sprintf("%s %02d", dh.Date, dh.Hour)
}

// Time is the zero time when Date is not a valid date.
func (dh DateHour) Time() time.Time {
	d, err := time.Parse(dateLayout, dh.Date)
	if err != nil {
		return time.Time{}
	}
	return d.Add(time.Duration(dh.Hour) * time.Hour)
}

// Add moves n hours, negative n moves backwards. Invalid values stay as is.
func (dh DateHour) Add(n int) DateHour {
	t := dh.Time()
	if t.IsZero() {
		return dh
	}
	return FromTime(t.Add(time.Duration(n) * time.Hour))
}

func (dh DateHour) Compare(other DateHour) int {
	return cmp.Or(cmp.Compare(dh.Date, other.Date), cmp.Compare(dh.Hour, other.Hour))
}

func (dh DateHour) IsZero() bool {
	return dh == DateHour{}
}

// FromTime truncates t to its UTC hour.
func FromTime(t time.Time) DateHour {
	if t.IsZero() {
		return DateHour{}
	}
	t = t.UTC()
	return DateHour{Date: t.Format(dateLayout), Hour: uint8(t.Hour())}
}

// FromIso parses an RFC 3339 timestamp of the API, the zero time on failure.
func FromIso(str string) time.Time {
	t, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}

// Helsinki is the provider's local time zone.
func Helsinki() *time.Location {
	return helsinkiLoc
}

// LocationHelsinki converts t into the provider's local time.
func LocationHelsinki(t time.Time) time.Time {
	return t.In(helsinkiLoc)
}
