// Package week computes reporting windows and their tracker labels.
//
// A reporting window is the most recently completed Monday-through-Sunday
// week. The label written into the tracker is derived from the window's
// ending Sunday, formatted with an ordinal day ("Oct 19th").
package week

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rajveerkhosa/sscs/internal/model"
)

// PortalTimeFormat is the compact timestamp layout the portal's query
// surface expects for window bounds.
const PortalTimeFormat = "20060102150405"

// LastFullWeek returns the most recently completed Monday-Sunday window
// relative to now. If now falls on a Sunday, the week ending that day
// counts as completed.
func LastFullWeek(now time.Time) model.ReportingWindow {
	var sunday time.Time
	if now.Weekday() == time.Sunday {
		sunday = now
	} else {
		daysSince := int(now.Weekday()) // Mon=1 ... Sat=6
		sunday = now.AddDate(0, 0, -daysSince)
	}

	return windowEnding(sunday)
}

// LastYearWindow returns the Monday-Sunday window from the previous year
// containing the same calendar date as the given week-ending Sunday. It is
// used to fill prior-year comparison queries.
func LastYearWindow(sunday time.Time) model.ReportingWindow {
	sameDate := sunday.AddDate(-1, 0, 0)

	var lastYearSunday time.Time
	if sameDate.Weekday() == time.Sunday {
		lastYearSunday = sameDate
	} else {
		daysUntil := int(time.Saturday-sameDate.Weekday()) + 1
		lastYearSunday = sameDate.AddDate(0, 0, daysUntil)
	}

	return windowEnding(lastYearSunday)
}

func windowEnding(sunday time.Time) model.ReportingWindow {
	loc := sunday.Location()
	end := time.Date(sunday.Year(), sunday.Month(), sunday.Day(), 23, 59, 59, 0, loc)
	monday := sunday.AddDate(0, 0, -6)
	start := time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, loc)

	return model.ReportingWindow{
		Start: start,
		End:   end,
		Label: FormatLabel(sunday),
	}
}

// Ordinal returns the English ordinal suffix for a day of month.
func Ordinal(day int) string {
	// 11th, 12th and 13th break the last-digit rule.
	if v := day % 100; v >= 11 && v <= 13 {
		return "th"
	}
	switch day % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}

// FormatLabel renders a date as the tracker's week label, e.g. "Oct 19th".
func FormatLabel(t time.Time) string {
	return fmt.Sprintf("%s %d%s", t.Format("Jan"), t.Day(), Ordinal(t.Day()))
}

// PortalTimestamp renders an instant in the portal's YYYYMMDDhhmmss format.
func PortalTimestamp(t time.Time) string {
	return t.Format(PortalTimeFormat)
}

// ParseLabel parses a week label back into a date within the given year.
// Both "Oct 6th" and "6th Oct" orderings appear in older tracker sheets.
func ParseLabel(label string, year int, loc *time.Location) (time.Time, error) {
	fields := strings.Fields(strings.TrimSpace(label))
	if len(fields) != 2 {
		return time.Time{}, fmt.Errorf("unrecognized week label %q", label)
	}

	monthField, dayField := fields[0], fields[1]
	if _, err := strconv.Atoi(strings.TrimLeft(trimOrdinal(monthField), "0")); err == nil {
		// Day-first ordering.
		monthField, dayField = fields[1], fields[0]
	}

	month, err := time.Parse("Jan", monthField)
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized month in week label %q: %w", label, err)
	}

	day, err := strconv.Atoi(trimOrdinal(dayField))
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized day in week label %q: %w", label, err)
	}

	return time.Date(year, month.Month(), day, 0, 0, 0, 0, loc), nil
}

func trimOrdinal(s string) string {
	for _, suffix := range []string{"st", "nd", "rd", "th"} {
		if trimmed, ok := strings.CutSuffix(s, suffix); ok {
			return trimmed
		}
	}
	return s
}
