package models

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// WindowUnit is the unit of an evaluation window
type WindowUnit string

const (
	UnitDay   WindowUnit = "day"
	UnitWeek  WindowUnit = "week"
	UnitMonth WindowUnit = "month"
)

var windowPattern = regexp.MustCompile(`^(\d+)\s*(day|week|month)s?$`)

// ParseWindow parses "<N> day|week|month(s)", case-insensitively
func ParseWindow(s string) (n int, unit WindowUnit, ok bool) {
	m := windowPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return 0, "", false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, "", false
	}
	return n, WindowUnit(m[2]), true
}

// AddWindow adds n units to t using calendar arithmetic for months
func AddWindow(t time.Time, n int, unit WindowUnit) time.Time {
	switch unit {
	case UnitWeek:
		return t.AddDate(0, 0, 7*n)
	case UnitMonth:
		return t.AddDate(0, n, 0)
	default:
		return t.AddDate(0, 0, n)
	}
}

// WindowDays approximates a window in days (months count as 30)
func WindowDays(s string) (int, bool) {
	n, unit, ok := ParseWindow(s)
	if !ok {
		return 0, false
	}
	switch unit {
	case UnitWeek:
		return 7 * n, true
	case UnitMonth:
		return 30 * n, true
	default:
		return n, true
	}
}
