package birthday

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// daysInMonth is fixed, not year-aware: February always allows the 29th.
var daysInMonth = [13]int{0, 31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// ValidationError describes a day or month outside the allowed range.
type ValidationError struct {
	Field string // "day" or "month"
	Value int
	Max   int
	Month int // set for day errors
}

func (e *ValidationError) Error() string {
	if e.Field == "month" {
		return fmt.Sprintf("month must be between 1 and %d, got %d", e.Max, e.Value)
	}
	return fmt.Sprintf("day must be between 1 and %d for month %d, got %d", e.Max, e.Month, e.Value)
}

// DaysInMonth returns the registration bound for month, or 0 for an invalid month.
func DaysInMonth(month int) int {
	if month < 1 || month > 12 {
		return 0
	}
	return daysInMonth[month]
}

// ValidateDate checks a (day, month) pair against the fixed days-in-month table.
func ValidateDate(day, month int) error {
	if month < 1 || month > 12 {
		return &ValidationError{Field: "month", Value: month, Max: 12}
	}
	if day < 1 || day > daysInMonth[month] {
		return &ValidationError{Field: "day", Value: day, Max: daysInMonth[month], Month: month}
	}
	return nil
}

// ParseDate parses "DD.MM" and validates the result.
func ParseDate(s string) (day, month int, err error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("date %q is not in DD.MM format", s)
	}
	day, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid day in %q: %w", s, err)
	}
	month, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month in %q: %w", s, err)
	}
	if err := ValidateDate(day, month); err != nil {
		return 0, 0, err
	}
	return day, month, nil
}

// FormatDate renders a birthday as zero-padded DD.MM.
func FormatDate(day, month int) string {
	return fmt.Sprintf("%02d.%02d", day, month)
}

// occurrence returns the birthday in the given year as a UTC calendar date.
// Feb 29 falls on Feb 28 in non-leap years.
func occurrence(day, month, year int) time.Time {
	if month == 2 && day == 29 && !isLeap(year) {
		day = 28
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// calendarDate drops the clock and location of t, keeping its wall-clock date.
func calendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysUntilNextOccurrence returns how many days remain until the next (day, month),
// 0 when it is today. The result is within [0, 366].
func DaysUntilNextOccurrence(day, month int, today time.Time) (int, error) {
	if err := ValidateDate(day, month); err != nil {
		return 0, err
	}
	date := calendarDate(today)
	next := occurrence(day, month, date.Year())
	if next.Before(date) {
		next = occurrence(day, month, date.Year()+1)
	}
	return int(next.Sub(date).Hours() / 24), nil
}

// IsToday reports whether the birthday falls on today's calendar date.
func IsToday(day, month int, today time.Time) bool {
	if ValidateDate(day, month) != nil {
		return false
	}
	return occurrence(day, month, today.Year()).Equal(calendarDate(today))
}
