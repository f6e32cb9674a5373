// Package reltime turns the timestamps social platforms render ("3h", "2d",
// "just now", ISO datetime attributes) into absolute instants.
package reltime

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

var (
	exactRelative = regexp.MustCompile(`^(\d+)\s*([mhdw])$`)
	looseRelative = regexp.MustCompile(`(\d+)([mhdw])\b`)
)

var unitDurations = map[string]time.Duration{
	"m": time.Minute,
	"h": time.Hour,
	"d": 24 * time.Hour,
	"w": 7 * 24 * time.Hour,
}

// Normalize converts s into an instant relative to now.
//
// The second return value is false when s was absent or unrecognizable and
// now was substituted. Normalize never fails.
func Normalize(s string, now time.Time) (time.Time, bool) {
	raw := strings.TrimSpace(s)
	s = strings.ToLower(raw)
	if s == "" {
		return now, false
	}
	if strings.Contains(s, "just now") {
		return now, true
	}

	if m := exactRelative.FindStringSubmatch(s); m != nil {
		return subtract(now, m[1], m[2])
	}

	if looksAbsolute(raw) {
		if t, err := dateparse.ParseAny(raw); err == nil {
			return t, true
		}
	}

	if m := looseRelative.FindStringSubmatch(s); m != nil {
		return subtract(now, m[1], m[2])
	}

	return now, false
}

func subtract(now time.Time, value, unit string) (time.Time, bool) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return now, false
	}
	return now.Add(-time.Duration(n) * unitDurations[unit]), true
}

// looksAbsolute reports whether s starts like a calendar date (ISO datetime
// attributes, "2025-11-02 ...", "02/11/2025").
func looksAbsolute(s string) bool {
	if len(s) < 8 {
		return false
	}
	return allDigits(s[:4]) || (isDigit(s[0]) && strings.ContainsAny(s[:5], "-/."))
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
