package timerange

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// WireLayout is the timestamp format exchanged with the data source. Local
// wall-clock, second precision, no zone suffix.
const WireLayout = "2006-01-02 15:04:05"

// LiveTodayLabel replaces the date label when the day view shows the current day.
const LiveTodayLabel = "LIVE TODAY"

type ViewMode string

const (
	ModeDay   ViewMode = "day"
	ModeWeek  ViewMode = "week"
	ModeMonth ViewMode = "month"
	ModeYear  ViewMode = "year"
)

var ErrUnknownMode = errors.New("unknown view mode")

// Modes lists the view modes in selector order.
var Modes = []ViewMode{ModeDay, ModeWeek, ModeMonth, ModeYear}

func ParseViewMode(s string) (ViewMode, error) {
	mode := ViewMode(strings.ToLower(strings.TrimSpace(s)))
	if !mode.Valid() {
		return ModeDay, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
	return mode, nil
}

func (m ViewMode) Valid() bool {
	switch m {
	case ModeDay, ModeWeek, ModeMonth, ModeYear:
		return true
	default:
		return false
	}
}

// DateRange is the concrete window shown for a (mode, reference date) pair.
// Start and End are both inclusive.
type DateRange struct {
	Start time.Time
	End   time.Time
	Label string
}

func (r DateRange) StartWire() string { return r.Start.Format(WireLayout) }
func (r DateRange) EndWire() string   { return r.End.Format(WireLayout) }

// Compute derives the window containing ref for the given mode. now is only
// consulted for the day label. Calendar arithmetic happens in ref's location.
// Unknown modes are treated as day.
func Compute(mode ViewMode, ref, now time.Time) DateRange {
	loc := ref.Location()
	y, m, d := ref.Date()

	switch mode {
	case ModeWeek:
		// Weeks start on Monday; Sunday counts as day 7.
		weekday := int(ref.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		start := time.Date(y, m, d-(weekday-1), 0, 0, 0, 0, loc)
		end := time.Date(start.Year(), start.Month(), start.Day()+6, 23, 59, 59, 0, loc)
		return DateRange{
			Start: start,
			End:   end,
			Label: fmt.Sprintf("%d/%d - %d/%d", start.Day(), int(start.Month()), end.Day(), int(end.Month())),
		}

	case ModeMonth:
		start := time.Date(y, m, 1, 0, 0, 0, 0, loc)
		// Day 0 of the next month normalises to the last day of this one.
		end := time.Date(y, m+1, 0, 23, 59, 59, 0, loc)
		return DateRange{
			Start: start,
			End:   end,
			Label: strings.ToUpper(start.Format("January 2006")),
		}

	case ModeYear:
		return DateRange{
			Start: time.Date(y, time.January, 1, 0, 0, 0, 0, loc),
			End:   time.Date(y, time.December, 31, 23, 59, 59, 0, loc),
			Label: strconv.Itoa(y),
		}

	default:
		label := fmt.Sprintf("%d/%d/%d", d, int(m), y)
		if SameDay(ref, now) {
			label = LiveTodayLabel
		}
		return DateRange{
			Start: time.Date(y, m, d, 0, 0, 0, 0, loc),
			End:   time.Date(y, m, d, 23, 59, 59, 0, loc),
			Label: label,
		}
	}
}

// Shift moves ref by steps units of mode. Month and year steps clamp the
// day-of-month so that Jan 31 + 1 month lands on the last day of February
// instead of rolling into March.
func Shift(mode ViewMode, ref time.Time, steps int) time.Time {
	switch mode {
	case ModeWeek:
		return ref.AddDate(0, 0, 7*steps)
	case ModeMonth:
		return addMonthsClamped(ref, steps)
	case ModeYear:
		return addMonthsClamped(ref, 12*steps)
	default:
		return ref.AddDate(0, 0, steps)
	}
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := DaysIn(first.Year(), first.Month()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// SameDay reports whether a and b fall on the same calendar day in a's location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

var fallbackLayouts = []string{
	WireLayout,
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// ParseTimestamp accepts the wire format plus the ISO variants the limits
// endpoint has been seen to return. Zone-less values are read in loc.
func ParseTimestamp(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range fallbackLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

// ParseWire parses a strict wire-format timestamp in loc.
func ParseWire(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(WireLayout, s, loc)
}
