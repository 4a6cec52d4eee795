// Package season derives the federation's Aug 1 to Jul 31 season labels.
package season

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const (
	// CutoverMonth opens a new season.
	CutoverMonth = time.August

	DefaultRenewalDay   = 30
	DefaultRenewalMonth = 7
)

var labelRe = regexp.MustCompile(`^(\d{4})-(\d{4})$`)

// Season is a two-year labelled fiscal period such as "2025-2026".
type Season struct {
	start int
	end   int
}

// For maps a timestamp to its season using the August cutover, read in t's location.
func For(t time.Time) Season {
	year := t.Year()
	if t.Month() >= CutoverMonth {
		return Season{start: year, end: year + 1}
	}
	return Season{start: year - 1, end: year}
}

// Parse reads a "YYYY-YYYY" label.
func Parse(label string) (Season, error) {
	m := labelRe.FindStringSubmatch(label)
	if m == nil {
		return Season{}, fmt.Errorf("invalid season label %q", label)
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	return Season{start: start, end: end}, nil
}

// Valid reports whether label matches the season pattern.
func Valid(label string) bool {
	return labelRe.MatchString(label)
}

func (s Season) String() string {
	return fmt.Sprintf("%04d-%04d", s.start, s.end)
}

func (s Season) IsZero() bool {
	return s.start == 0 && s.end == 0
}

func (s Season) StartYear() int { return s.start }

func (s Season) EndYear() int { return s.end }

// Next increments both halves of the label.
func (s Season) Next() Season {
	return Season{start: s.start + 1, end: s.end + 1}
}

// Previous decrements both halves of the label.
func (s Season) Previous() Season {
	return Season{start: s.start - 1, end: s.end - 1}
}

// Start is the first instant of the season in loc.
func (s Season) Start(loc *time.Location) time.Time {
	return time.Date(s.start, CutoverMonth, 1, 0, 0, 0, 0, locOrUTC(loc))
}

// End is the exclusive upper bound of the season in loc.
func (s Season) End(loc *time.Location) time.Time {
	return time.Date(s.end, CutoverMonth, 1, 0, 0, 0, 0, locOrUTC(loc))
}

// Contains reports whether t falls within [Start, End).
func (s Season) Contains(t time.Time, loc *time.Location) bool {
	return !t.Before(s.Start(loc)) && t.Before(s.End(loc))
}

// MarshalText lets seasons travel as their label in JSON.
func (s Season) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Season) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// RenewalWindowStart returns the renewal opening within the season end year.
// Out of range inputs fall back to the defaults (July 30) instead of failing,
// and a day past the end of the month clamps to its last day.
func RenewalWindowStart(endYear, day, month int, loc *time.Location) time.Time {
	if month < 1 || month > 12 {
		month = DefaultRenewalMonth
	}
	if day < 1 || day > 31 {
		day = DefaultRenewalDay
	}
	if last := daysIn(endYear, time.Month(month)); day > last {
		day = last
	}
	return time.Date(endYear, time.Month(month), day, 0, 0, 0, 0, locOrUTC(loc))
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func locOrUTC(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}
