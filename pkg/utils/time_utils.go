package utils

import (
	"fmt"
	"strings"
	"time"
)

// Clock supplies wall-clock time. Services take one so tests can pin "now".
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

const DateLayout = "2006-01-02"

var timeOfDayLayouts = []string{"15:04:05", "15:04", "3:04 PM", "3:04PM", "3:04:05 PM"}

// LoadLocation resolves a timezone name, falling back to the process local zone
// for "" and "Local".
func LoadLocation(name string) (*time.Location, error) {
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

// FromUnixMillis converts epoch milliseconds into loc. Returns zero time if ms<=0.
func FromUnixMillis(ms int64, loc *time.Location) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).In(loc)
}

// CombineDateAndTime builds a timestamp from a YYYY-MM-DD date and an optional
// time of day. An empty timeOfDay takes the hour, minute and second of now,
// never midnight.
func CombineDateAndTime(date, timeOfDay string, now time.Time, loc *time.Location) (time.Time, error) {
	day, err := time.ParseInLocation(DateLayout, strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", date, err)
	}

	timeOfDay = strings.TrimSpace(timeOfDay)
	if timeOfDay == "" {
		n := now.In(loc)
		return time.Date(day.Year(), day.Month(), day.Day(), n.Hour(), n.Minute(), n.Second(), 0, loc), nil
	}

	for _, layout := range timeOfDayLayouts {
		if t, err := time.ParseInLocation(layout, strings.ToUpper(timeOfDay), loc); err == nil {
			return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse time of day %q", timeOfDay)
}

func FormatRFC3339(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(time.RFC3339)
}
