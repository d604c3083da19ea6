package recurrence

import (
	"regexp"
	"strconv"
	"time"

	"github.com/dukerupert/chorechart/internal/model"
)

type Kind int

const (
	Custom Kind = iota
	Daily
	Weekly
	Biweekly
	Weekdays
	Monthly
	FirstWeekdayOfMonth
	LastWeekdayOfMonth
)

var kindNames = map[Kind]string{
	Custom:              "custom",
	Daily:               "daily",
	Weekly:              "weekly",
	Biweekly:            "biweekly",
	Weekdays:            "weekdays",
	Monthly:             "monthly",
	FirstWeekdayOfMonth: "first-weekday",
	LastWeekdayOfMonth:  "last-weekday",
}

func (k Kind) String() string {
	return kindNames[k]
}

var (
	singleWeekday = regexp.MustCompile(`^[0-6]$`)
	lastWeekday   = regexp.MustCompile(`^([0-6])L$`)
	singleDay     = regexp.MustCompile(`^[0-9]{1,2}$`)
)

// Schedule is the compiled, typed form of a recurrence rule. Cron strings
// produced by the presets compile to their named kind; anything else is
// Custom and falls back to generic cron matching.
type Schedule struct {
	Kind    Kind
	Hour    int
	Minute  int
	Weekday time.Weekday // Weekly, Biweekly, FirstWeekdayOfMonth, LastWeekdayOfMonth
	Day     int          // Monthly
	Expr    Expr
}

// Compile classifies a rule by the shape of its cron string. It reports false
// when the cron does not have exactly five fields.
func Compile(rule model.RecurrenceRule) (Schedule, bool) {
	expr, ok := ParseExpr(rule.Cron)
	if !ok {
		return Schedule{}, false
	}

	s := Schedule{Kind: Custom, Expr: expr}
	s.Hour, s.Minute = expr.TimeOfDay()

	if expr.Month != "*" {
		return s, true
	}

	dom, dow := expr.DayOfMonth, expr.DayOfWeek
	switch {
	case dom == "*" && dow == "*":
		s.Kind = Daily
	case dom == "*" && dow == "1-5":
		s.Kind = Weekdays
	case dom == "*" && singleWeekday.MatchString(dow):
		s.Kind = Weekly
		if rule.Interval > 1 {
			s.Kind = Biweekly
		}
		s.Weekday = weekday(dow)
	case dom == "*" && lastWeekday.MatchString(dow):
		s.Kind = LastWeekdayOfMonth
		s.Weekday = weekday(lastWeekday.FindStringSubmatch(dow)[1])
	case dom == "1-7" && singleWeekday.MatchString(dow):
		s.Kind = FirstWeekdayOfMonth
		s.Weekday = weekday(dow)
	case dow == "*" && singleDay.MatchString(dom):
		day, _ := strconv.Atoi(dom)
		if day >= 1 && day <= 31 {
			s.Kind = Monthly
			s.Day = day
		}
	}
	return s, true
}

// Matches reports whether the calendar day of t is a due day.
func (s Schedule) Matches(t time.Time) bool {
	switch s.Kind {
	case Daily:
		return true
	case Weekly, Biweekly:
		return t.Weekday() == s.Weekday
	case Weekdays:
		return t.Weekday() >= time.Monday && t.Weekday() <= time.Friday
	case Monthly:
		return t.Day() == s.Day
	case FirstWeekdayOfMonth:
		return t.Day() <= 7 && t.Weekday() == s.Weekday
	case LastWeekdayOfMonth:
		return isLastWeekdayOfMonth(t, s.Weekday)
	}
	return s.Expr.Matches(t)
}

// At places the schedule's time of day on the calendar day of t.
func (s Schedule) At(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), s.Hour, s.Minute, 0, 0, t.Location())
}

func weekday(s string) time.Weekday {
	n, _ := strconv.Atoi(s)
	return time.Weekday(n)
}
