package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	appErrors "github.com/noah-isme/training-center-api/pkg/errors"
)

const dateLayout = "2006-01-02"

var dayNames = [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// DayName returns the English name for a weekday number (0=Sunday).
func DayName(day int) string {
	if day < 0 || day > 6 {
		return ""
	}
	return dayNames[day]
}

// ExpandSessionDates walks forward from start one day at a time and returns the first total dates
// whose weekday is in weekdays. Dates keep the location of start and are truncated to midnight.
func ExpandSessionDates(start time.Time, total int, weekdays []int) ([]time.Time, error) {
	if len(weekdays) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one weekday is required")
	}
	if total <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "total sessions must be positive")
	}
	var allowed [7]bool
	for _, day := range weekdays {
		if day < 0 || day > 6 {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("weekday %d is out of range 0..6", day))
		}
		allowed[day] = true
	}

	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	dates := make([]time.Time, 0, total)
	for len(dates) < total {
		if allowed[day.Weekday()] {
			dates = append(dates, day)
		}
		day = day.AddDate(0, 0, 1)
	}
	return dates, nil
}

// parseClock converts "HH:MM" or "HH:MM:SS" into an offset from midnight. "24:00" is the end of day.
func parseClock(raw string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid clock value %q", raw)
	}
	values := make([]int, 3)
	for i, part := range parts {
		// postgres may render fractional seconds
		if i == 2 {
			part = strings.SplitN(part, ".", 2)[0]
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid clock value %q", raw)
		}
		values[i] = n
	}
	hours, minutes, seconds := values[0], values[1], values[2]
	if minutes > 59 || seconds > 59 || hours > 24 || (hours == 24 && (minutes > 0 || seconds > 0)) {
		return 0, fmt.Errorf("invalid clock value %q", raw)
	}
	return time.Duration(hours)*time.Hour + time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second, nil
}

// sessionWindow resolves the half-open interval a session occupies on its date.
// A session without a time slot occupies the whole day.
func sessionWindow(date time.Time, start, end *string, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, loc)
	if start == nil || end == nil {
		return day, day.AddDate(0, 0, 1), nil
	}
	from, err := parseClock(*start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseClock(*end)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return day.Add(from), day.Add(to), nil
}

// overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect. Touching ends do not overlap.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

func clockOrDefault(value *string, fallback string) string {
	if value == nil || *value == "" {
		return fallback
	}
	return *value
}
