package recurrence

import (
	"time"

	"github.com/dukerupert/chorechart/internal/model"
)

const (
	DefaultPreviewCount = 5
	previewMonths       = 3
)

// Occurrences lists the due times of rule between the start of startDate's
// day and the end of endDate's day, inclusive, in ascending order.
//
// With an interval above 1 only every Nth matching day is kept, counted from
// the first match inside the window. The phase therefore depends on where the
// window begins, not on a fixed calendar anchor.
//
// A rule whose cron does not have five fields yields no occurrences.
func Occurrences(rule model.RecurrenceRule, startDate, endDate time.Time) []time.Time {
	sched, ok := Compile(rule)
	if !ok {
		return nil
	}

	interval := rule.Interval
	if interval < 1 {
		interval = 1
	}

	current := time.Date(startDate.Year(), startDate.Month(), startDate.Day(), 0, 0, 0, 0, startDate.Location())
	end := time.Date(endDate.Year(), endDate.Month(), endDate.Day(), 23, 59, 59, int(999*time.Millisecond), endDate.Location())

	var results []time.Time
	matched := 0
	for !current.After(end) {
		if sched.Matches(current) {
			if interval == 1 || matched%interval == 0 {
				results = append(results, sched.At(current))
			}
			matched++
		}
		current = current.AddDate(0, 0, 1)
	}
	return results
}

// Preview returns the first n occurrences between now and three months
// later. A non-positive n uses DefaultPreviewCount.
func Preview(rule model.RecurrenceRule, now time.Time, n int) []time.Time {
	if n <= 0 {
		n = DefaultPreviewCount
	}
	occs := Occurrences(rule, now, now.AddDate(0, previewMonths, 0))
	if len(occs) > n {
		occs = occs[:n]
	}
	return occs
}
