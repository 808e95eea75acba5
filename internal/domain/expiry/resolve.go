// internal/domain/expiry/resolve.go
package expiry

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrDateParse marks date resolution failures so callers can test with errors.Is.
var ErrDateParse = errors.New("cannot parse date")

// DateParseError reports that no configured date/format combination could be
// resolved to an instant. It carries the original input for diagnostics.
type DateParseError struct {
	Input  string
	Reason string
}

func (e *DateParseError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("cannot parse date %q: %s", e.Input, e.Reason)
	}
	return fmt.Sprintf("cannot parse date %q", e.Input)
}

func (e *DateParseError) Unwrap() error { return ErrDateParse }

// isoLayouts are tried first, in order. ISO input is unambiguous and is
// accepted outright regardless of the configured format hint.
var isoLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

var dateSeparators = regexp.MustCompile(`[./-]`)

// Resolve parses a date string plus a time string plus a time zone name into
// a single absolute instant.
//
// formatHint selects the interpretation of non-ISO input: "iso" requires
// YYYY-MM-DD, "us" requires MM/DD/YYYY, "eu" requires DD/MM/YYYY. The default
// "auto" splits the string on '.', '/' or '-' and applies a day-first
// heuristic: the date is read day-first when the first component exceeds 12,
// and also when both the first and second components are <= 12. The second
// clause makes inputs like "05/06/2025" resolve day-first (5 June) — a lossy
// but deterministic tie-break that matches the deployed behavior.
//
// Two-digit years in "auto" mode are windowed: 00-69 become 2000s, 70-99
// become 1900s.
//
// timeText is parsed as HH:MM (24-hour); on failure the time silently
// defaults to midnight rather than failing the whole resolution.
func Resolve(dateText, timeText, tzName, formatHint string) (time.Time, error) {
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return time.Time{}, &DateParseError{Input: dateText, Reason: fmt.Sprintf("unknown time zone %q", tzName)}
	}

	s := strings.TrimSpace(dateText)

	var day time.Time
	ok := false
	for _, layout := range isoLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			day, ok = d, true
			break
		}
	}

	if !ok {
		switch formatHint {
		case "iso":
			if d, err := time.Parse("2006-01-02", s); err == nil {
				day, ok = d, true
			}
		case "us":
			if d, err := time.Parse("01/02/2006", s); err == nil {
				day, ok = d, true
			}
		case "eu":
			if d, err := time.Parse("02/01/2006", s); err == nil {
				day, ok = d, true
			}
		default: // auto
			day, ok = resolveAuto(s)
		}
	}

	if !ok {
		return time.Time{}, &DateParseError{Input: dateText}
	}

	hour, minute := 0, 0
	if t, err := time.Parse("15:04", strings.TrimSpace(timeText)); err == nil {
		hour, minute = t.Hour(), t.Minute()
	}

	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc), nil
}

// resolveAuto applies the day-first heuristic to a three-component date.
func resolveAuto(s string) (time.Time, bool) {
	parts := dateSeparators.Split(s, -1)
	if len(parts) != 3 {
		return time.Time{}, false
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return time.Time{}, false
		}
		nums[i] = n
	}

	p0, p1, year := nums[0], nums[1], nums[2]
	if year < 100 {
		if year >= 70 {
			year += 1900
		} else {
			year += 2000
		}
	}

	dayFirst := p0 > 12 || (p0 <= 12 && p1 <= 12)
	day, month := p0, p1
	if !dayFirst {
		day, month = p1, p0
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}

	// Reject normalized overflows such as 31/02.
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Day() != day || d.Month() != time.Month(month) || d.Year() != year {
		return time.Time{}, false
	}
	return d, true
}
