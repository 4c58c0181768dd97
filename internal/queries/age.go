package queries

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/JakeFAU/querydesk/internal/rowstore"
)

// RelativeAge renders elapsed as "N unit(s) ago". Seconds, minutes, hours and
// days are each rounded from the previous unit, halves to even, and the
// largest unit that is at least one is used: 30s is "30 seconds ago" and 90s
// is "2 minutes ago".
func RelativeAge(elapsed time.Duration) string {
	secs := roundUnit(float64(elapsed.Milliseconds()) / 1000)
	mins := roundUnit(secs / 60)
	hours := roundUnit(mins / 60)
	days := roundUnit(hours / 24)

	switch {
	case days >= 1:
		return plural(days, "day")
	case hours >= 1:
		return plural(hours, "hour")
	case mins >= 1:
		return plural(mins, "minute")
	default:
		return plural(secs, "second")
	}
}

func roundUnit(v float64) float64 {
	r := math.RoundToEven(v)
	if r == 0 {
		return 0
	}
	return r
}

func plural(n float64, unit string) string {
	if n == 1 {
		return "1 " + unit + " ago"
	}
	return fmt.Sprintf("%d %ss ago", int64(n), unit)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	rowstore.CellTimeLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04:05",
	"1/2/2006",
	time.RFC1123Z,
	time.RFC1123,
	"Mon Jan 02 2006 15:04:05 GMT-0700",
	time.ANSIC,
}

var clockLayouts = []string{TimeLayout, "15:04"}

// parseTimestamp parses a date/time cell in loc.
func parseTimestamp(v string, loc *time.Location) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	// JavaScript Date strings carry a trailing zone name, e.g. "(Eastern Daylight Time)".
	if i := strings.Index(v, " ("); i > 0 && strings.HasSuffix(v, ")") {
		v = v[:i]
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseClock parses a bare time-of-day cell.
func parseClock(v string) (hour, minute, second int, ok bool) {
	v = strings.TrimSpace(v)
	for _, layout := range clockLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Hour(), t.Minute(), t.Second(), true
		}
	}
	return 0, 0, 0, false
}

// secondsOfDay returns the seconds elapsed since midnight.
func secondsOfDay(hour, minute, second int) int {
	return hour*3600 + minute*60 + second
}
