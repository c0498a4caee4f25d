package board

import (
	"fmt"
	"time"

	appErrors "github.com/schoolops/board-api/pkg/errors"
)

// MinutesPerDay bounds every start/end minute on a board.
const MinutesPerDay = 1440

var clockLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"15:04:05",
	"15:04",
}

// MinuteOfDay extracts minutes-since-midnight from a date-time string.
// Accepted layouts range from full RFC3339 down to a bare wall clock.
func MinuteOfDay(value string) (int, error) {
	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t.Hour()*60 + t.Minute(), nil
		}
	}
	return 0, appErrors.Clone(appErrors.ErrParse, fmt.Sprintf("unparseable time value %q", value))
}

// Compose builds a concrete time from a calendar date and a minute offset.
// The offset must already be inside [0, MinutesPerDay); there is no day
// rollover support.
func Compose(date string, minute int) (time.Time, error) {
	if minute < 0 || minute >= MinutesPerDay {
		return time.Time{}, appErrors.Clone(appErrors.ErrParse, fmt.Sprintf("minute offset %d outside day bounds", minute))
	}
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, appErrors.Wrap(err, appErrors.ErrParse.Code, appErrors.ErrParse.Status, fmt.Sprintf("unparseable date %q", date))
	}
	return day.Add(time.Duration(minute) * time.Minute), nil
}

// AddMinutes shifts a time by delta minutes.
func AddMinutes(t time.Time, delta int) time.Time {
	return t.Add(time.Duration(delta) * time.Minute)
}

// FormatMinute renders a minute offset as a HH:MM wall clock.
func FormatMinute(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}
