package recurrence

import (
	"strconv"
	"strings"
	"time"
)

// Expr is a five-field cron expression split into its raw fields. Only
// month, day-of-month and day-of-week take part in matching; minute and hour
// set the time of day of each occurrence.
type Expr struct {
	Minute     string
	Hour       string
	DayOfMonth string
	Month      string
	DayOfWeek  string
}

// ParseExpr splits a cron string on whitespace. It reports false unless there
// are exactly five fields.
func ParseExpr(s string) (Expr, bool) {
	parts := strings.Fields(s)
	if len(parts) != 5 {
		return Expr{}, false
	}
	return Expr{
		Minute:     parts[0],
		Hour:       parts[1],
		DayOfMonth: parts[2],
		Month:      parts[3],
		DayOfWeek:  parts[4],
	}, true
}

func (e Expr) String() string {
	return strings.Join([]string{e.Minute, e.Hour, e.DayOfMonth, e.Month, e.DayOfWeek}, " ")
}

// Matches reports whether the calendar day of t satisfies the expression.
func (e Expr) Matches(t time.Time) bool {
	return MatchesCron(t, e.Minute, e.Hour, e.DayOfMonth, e.Month, e.DayOfWeek)
}

// TimeOfDay returns the hour and minute encoded in the expression. A field
// without a leading integer (such as "*") yields 0.
func (e Expr) TimeOfDay() (hour, minute int) {
	hour, _ = leadingInt(e.Hour)
	minute, _ = leadingInt(e.Minute)
	return hour, minute
}

// MatchesCron checks month, day-of-month and day-of-week against date. Minute
// and hour are accepted for symmetry with the expression layout but are not
// compared.
//
// A day-of-week ending in "L" means the last such weekday of the month. A
// day-of-month of exactly "1-7" combined with a day-of-week additionally
// requires the weekday to match within the first seven days.
func MatchesCron(date time.Time, minute, hour, dayOfMonth, month, dayOfWeek string) bool {
	if month != "*" {
		if !ParseField(month).Contains(int(date.Month())) {
			return false
		}
	}

	if dayOfMonth != "*" {
		if !ParseField(dayOfMonth).Contains(date.Day()) {
			return false
		}
	}

	if dayOfWeek != "*" {
		if strings.HasSuffix(dayOfWeek, "L") {
			dow, ok := leadingInt(dayOfWeek)
			if !ok || !isLastWeekdayOfMonth(date, time.Weekday(dow)) {
				return false
			}
		} else if !ParseField(dayOfWeek).Contains(int(date.Weekday())) {
			return false
		}
	}

	if dayOfMonth == "1-7" && dayOfWeek != "*" {
		if !ParseField(dayOfWeek).Contains(int(date.Weekday())) {
			return false
		}
		if date.Day() > 7 {
			return false
		}
	}

	return true
}

type span struct {
	lo, hi int
}

// Field is the membership set described by one cron field.
type Field []span

// ParseField reads a comma-separated list of integers and inclusive
// "start-end" ranges. Plain tokens use their leading integer ("5L" is 5);
// range bounds must be whole integers. Tokens that cannot be read add
// nothing to the set.
func ParseField(field string) Field {
	var f Field
	for _, part := range strings.Split(field, ",") {
		if strings.Contains(part, "-") {
			bounds := strings.Split(part, "-")
			lo, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
			if err != nil {
				continue
			}
			hi, err := strconv.Atoi(strings.TrimSpace(bounds[1]))
			if err != nil {
				continue
			}
			if lo <= hi {
				f = append(f, span{lo: lo, hi: hi})
			}
			continue
		}
		if n, ok := leadingInt(part); ok {
			f = append(f, span{lo: n, hi: n})
		}
	}
	return f
}

func (f Field) Contains(n int) bool {
	for _, s := range f {
		if n >= s.lo && n <= s.hi {
			return true
		}
	}
	return false
}

// leadingInt parses an optional sign followed by digits at the start of s,
// ignoring leading whitespace and anything after the digits.
func leadingInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t")
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// isLastWeekdayOfMonth reports whether date falls on target and no later
// day of the same month shares that weekday.
func isLastWeekdayOfMonth(date time.Time, target time.Weekday) bool {
	if date.Weekday() != target {
		return false
	}
	return date.AddDate(0, 0, 7).Month() != date.Month()
}
