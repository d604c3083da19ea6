package recurrence

import (
	"errors"
	"testing"
	"time"

	"github.com/dukerupert/chorechart/internal/model"
)

func d(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func rule(cron string, interval int) model.RecurrenceRule {
	return model.RecurrenceRule{Cron: cron, Interval: interval}
}

func fixedBuilder() *Builder {
	b := NewBuilder(nil)
	b.Now = func() time.Time { return time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC) }
	return b
}

// --- Field and match tests ---

func TestParseField(t *testing.T) {
	tests := []struct {
		field string
		in    []int
		out   []int
	}{
		{"5", []int{5}, []int{4, 6}},
		{"1-5", []int{1, 3, 5}, []int{0, 6}},
		{"1,3,5", []int{1, 3, 5}, []int{2, 4}},
		{"0,2-4,6", []int{0, 2, 3, 4, 6}, []int{1, 5}},
		{"5L", []int{5}, []int{4}},
		{"*/5", nil, []int{0, 5, 10}},
		{"a-b", nil, []int{0, 1}},
	}

	for _, tt := range tests {
		f := ParseField(tt.field)
		for _, n := range tt.in {
			if !f.Contains(n) {
				t.Errorf("ParseField(%q) should contain %d", tt.field, n)
			}
		}
		for _, n := range tt.out {
			if f.Contains(n) {
				t.Errorf("ParseField(%q) should not contain %d", tt.field, n)
			}
		}
	}
}

func TestMatchesCronWildcardsMatchEveryDay(t *testing.T) {
	for day := d(2026, 1, 1); day.Year() == 2026; day = day.AddDate(0, 0, 1) {
		if !MatchesCron(day, "15", "7", "*", "*", "*") {
			t.Fatalf("wildcard cron should match %s", day.Format("2006-01-02"))
		}
	}
}

func TestMatchesCronMonth(t *testing.T) {
	if !MatchesCron(d(2026, 3, 10), "0", "9", "*", "3,6", "*") {
		t.Error("March should match month field 3,6")
	}
	if MatchesCron(d(2026, 4, 10), "0", "9", "*", "3,6", "*") {
		t.Error("April should not match month field 3,6")
	}
}

func TestMatchesCronFirstWeekdayRule(t *testing.T) {
	// Monday Feb 2 and Monday Feb 9, 2026
	if !MatchesCron(d(2026, 2, 2), "0", "9", "1-7", "*", "1") {
		t.Error("Feb 2 is the first Monday")
	}
	if MatchesCron(d(2026, 2, 9), "0", "9", "1-7", "*", "1") {
		t.Error("Feb 9 is not in the first seven days")
	}
	if MatchesCron(d(2026, 2, 3), "0", "9", "1-7", "*", "1") {
		t.Error("Feb 3 is a Tuesday")
	}
}

func TestMatchesCronLastWeekday(t *testing.T) {
	// January 2026 has five Fridays: 2, 9, 16, 23, 30
	for _, day := range []int{2, 9, 16, 23} {
		if MatchesCron(d(2026, 1, day), "0", "9", "*", "*", "5L") {
			t.Errorf("Jan %d is not the last Friday", day)
		}
	}
	if !MatchesCron(d(2026, 1, 30), "0", "9", "*", "*", "5L") {
		t.Error("Jan 30 is the last Friday")
	}
	if MatchesCron(d(2026, 1, 30), "0", "9", "*", "*", "L") {
		t.Error("L without a weekday should never match")
	}
}

// --- Rule construction ---

func TestCreateRulePresets(t *testing.T) {
	wed := time.Date(2026, 2, 4, 12, 0, 0, 0, time.UTC) // Wednesday, 4th

	tests := []struct {
		preset   Preset
		cron     string
		interval int
	}{
		{PresetDaily, "30 9 * * *", 1},
		{PresetWeekly, "30 9 * * 3", 1},
		{PresetWeekdays, "30 9 * * 1-5", 1},
		{PresetBiweekly, "30 9 * * 3", 2},
		{PresetMonthly, "30 9 4 * *", 1},
		{PresetFirstWeekday, "30 9 1-7 * 3", 1},
		{PresetLastWeekday, "30 9 * * 3L", 1},
	}

	b := fixedBuilder()
	for _, tt := range tests {
		r := b.CreateRule(tt.preset, "09:30", wed, "")
		if r.Cron != tt.cron {
			t.Errorf("%s: cron = %q, want %q", tt.preset, r.Cron, tt.cron)
		}
		if r.Interval != tt.interval {
			t.Errorf("%s: interval = %d, want %d", tt.preset, r.Interval, tt.interval)
		}
		if r.Preset != string(tt.preset) {
			t.Errorf("%s: preset = %q", tt.preset, r.Preset)
		}
		if r.HumanReadable != tt.cron {
			t.Errorf("%s: human_readable = %q, want raw cron without a describer", tt.preset, r.HumanReadable)
		}
		if !r.StartDate.Equal(b.Now()) {
			t.Errorf("%s: start_date = %v, want %v", tt.preset, r.StartDate, b.Now())
		}
	}
}

func TestCreateRuleCustomAndUnknown(t *testing.T) {
	b := fixedBuilder()
	ref := d(2026, 2, 4)

	custom := b.CreateRule(PresetCustom, "09:00", ref, "0 18 * * 0,6")
	if custom.Cron != "0 18 * * 0,6" {
		t.Errorf("custom cron = %q", custom.Cron)
	}

	empty := b.CreateRule(PresetCustom, "09:00", ref, "")
	if empty.Cron != "" {
		t.Errorf("custom without cron = %q, want empty", empty.Cron)
	}
	if occs := Occurrences(empty, ref, ref.AddDate(0, 0, 30)); len(occs) != 0 {
		t.Errorf("empty cron produced %d occurrences", len(occs))
	}

	unknown := b.CreateRule("fortnightly", "09:00", ref, "")
	if unknown.Cron != "" {
		t.Errorf("unknown preset cron = %q, want empty", unknown.Cron)
	}
	if occs := Occurrences(unknown, ref, ref.AddDate(0, 0, 30)); len(occs) != 0 {
		t.Errorf("unknown preset produced %d occurrences", len(occs))
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in           string
		hour, minute int
	}{
		{"09:30", 9, 30},
		{"23:05", 23, 5},
		{"7", 7, 0},
		{"", 0, 0},
	}
	for _, tt := range tests {
		h, m := ParseTime(tt.in)
		if h != tt.hour || m != tt.minute {
			t.Errorf("ParseTime(%q) = %d:%d, want %d:%d", tt.in, h, m, tt.hour, tt.minute)
		}
	}
}

type failingDescriber struct{}

func (failingDescriber) Describe(string) (string, error) { return "", errors.New("unsupported") }

type staticDescriber string

func (s staticDescriber) Describe(string) (string, error) { return string(s), nil }

func TestDescribeFallback(t *testing.T) {
	if got := Describe(nil, "0 9 * * *"); got != "0 9 * * *" {
		t.Errorf("nil describer = %q", got)
	}
	if got := Describe(failingDescriber{}, "0 9 * * 5L"); got != "0 9 * * 5L" {
		t.Errorf("failing describer = %q", got)
	}
	if got := Describe(staticDescriber("At 09:00 AM"), "0 9 * * *"); got != "At 09:00 AM" {
		t.Errorf("static describer = %q", got)
	}
}

// --- Expansion ---

func TestOccurrencesDaily(t *testing.T) {
	r := fixedBuilder().CreateRule(PresetDaily, "09:30", d(2026, 2, 1), "")
	if r.Cron != "30 9 * * *" {
		t.Fatalf("cron = %q", r.Cron)
	}

	occs := Occurrences(r, d(2026, 2, 2), d(2026, 2, 8))
	if len(occs) != 7 {
		t.Fatalf("got %d occurrences, want 7", len(occs))
	}
	for i, occ := range occs {
		want := time.Date(2026, 2, 2+i, 9, 30, 0, 0, time.UTC)
		if !occ.Equal(want) {
			t.Errorf("occ[%d] = %v, want %v", i, occ, want)
		}
	}
}

func TestOccurrencesWindowIgnoresTimeOfDay(t *testing.T) {
	r := rule("0 7 * * *", 1)
	start := time.Date(2026, 2, 2, 18, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 3, 1, 0, 0, 0, time.UTC)

	occs := Occurrences(r, start, end)
	if len(occs) != 2 {
		t.Fatalf("got %d occurrences, want 2 (whole start and end days)", len(occs))
	}
	if occs[0].Day() != 2 || occs[1].Day() != 3 {
		t.Errorf("days = %d, %d", occs[0].Day(), occs[1].Day())
	}
}

func TestOccurrencesWeeklyWednesday(t *testing.T) {
	wed := d(2026, 2, 4)
	r := fixedBuilder().CreateRule(PresetWeekly, "18:00", wed, "")

	occs := Occurrences(r, d(2026, 2, 1), d(2026, 2, 28))
	if len(occs) != 4 {
		t.Fatalf("got %d occurrences, want 4 (Feb 4, 11, 18, 25)", len(occs))
	}
	for i, occ := range occs {
		if occ.Weekday() != time.Wednesday {
			t.Errorf("occ[%d] = %s, want a Wednesday", i, occ.Weekday())
		}
		if occ.Hour() != 18 {
			t.Errorf("occ[%d] hour = %d, want 18", i, occ.Hour())
		}
	}
}

func TestOccurrencesWeekdays(t *testing.T) {
	r := fixedBuilder().CreateRule(PresetWeekdays, "08:00", d(2026, 2, 1), "")
	occs := Occurrences(r, d(2026, 2, 2), d(2026, 2, 8))
	if len(occs) != 5 {
		t.Fatalf("got %d occurrences, want 5", len(occs))
	}
	for _, occ := range occs {
		if occ.Weekday() == time.Saturday || occ.Weekday() == time.Sunday {
			t.Errorf("weekend occurrence %v", occ)
		}
	}
}

func TestOccurrencesMonthly(t *testing.T) {
	r := fixedBuilder().CreateRule(PresetMonthly, "10:00", d(2026, 1, 15), "")
	occs := Occurrences(r, d(2026, 1, 1), d(2026, 3, 31))
	if len(occs) != 3 {
		t.Fatalf("got %d occurrences, want 3", len(occs))
	}
	for _, occ := range occs {
		if occ.Day() != 15 {
			t.Errorf("occurrence on day %d, want 15", occ.Day())
		}
	}
}

func TestOccurrencesFirstWeekday(t *testing.T) {
	mon := d(2026, 2, 9) // a Monday, not the first of its month
	r := fixedBuilder().CreateRule(PresetFirstWeekday, "09:00", mon, "")

	occs := Occurrences(r, d(2026, 2, 1), d(2026, 3, 31))
	want := []time.Time{
		time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	if len(occs) != len(want) {
		t.Fatalf("got %d occurrences, want %d", len(occs), len(want))
	}
	for i := range want {
		if !occs[i].Equal(want[i]) {
			t.Errorf("occ[%d] = %v, want %v", i, occs[i], want[i])
		}
	}
}

func TestOccurrencesLastFridayOfFiveFridayMonth(t *testing.T) {
	fri := d(2026, 1, 2)
	r := fixedBuilder().CreateRule(PresetLastWeekday, "17:00", fri, "")
	if r.Cron != "0 17 * * 5L" {
		t.Fatalf("cron = %q", r.Cron)
	}

	occs := Occurrences(r, d(2026, 1, 1), d(2026, 1, 31))
	if len(occs) != 1 {
		t.Fatalf("got %d occurrences, want 1", len(occs))
	}
	want := time.Date(2026, 1, 30, 17, 0, 0, 0, time.UTC)
	if !occs[0].Equal(want) {
		t.Errorf("occurrence = %v, want %v", occs[0], want)
	}
}

func TestOccurrencesBiweekly(t *testing.T) {
	mon := d(2026, 2, 2)
	r := fixedBuilder().CreateRule(PresetBiweekly, "09:00", mon, "")

	// Six weeks: Mondays Feb 2, 9, 16, 23, Mar 2, 9
	occs := Occurrences(r, d(2026, 2, 2), d(2026, 3, 15))
	if len(occs) != 3 {
		t.Fatalf("got %d occurrences, want 3", len(occs))
	}
	for i, day := range []time.Time{d(2026, 2, 2), d(2026, 2, 16), d(2026, 3, 2)} {
		if occs[i].YearDay() != day.YearDay() {
			t.Errorf("occ[%d] = %v, want %v", i, occs[i], day)
		}
	}
}

func TestOccurrencesBiweeklyPhaseFollowsWindow(t *testing.T) {
	r := rule("0 9 * * 1", 2)

	// Starting a week later shifts which Mondays are kept.
	occs := Occurrences(r, d(2026, 2, 9), d(2026, 3, 22))
	if len(occs) != 3 {
		t.Fatalf("got %d occurrences, want 3", len(occs))
	}
	for i, day := range []time.Time{d(2026, 2, 9), d(2026, 2, 23), d(2026, 3, 9)} {
		if occs[i].YearDay() != day.YearDay() {
			t.Errorf("occ[%d] = %v, want %v", i, occs[i], day)
		}
	}
}

func TestOccurrencesMalformedCron(t *testing.T) {
	for _, cron := range []string{"0 9 * *", "", "0 9 * * * *", "daily"} {
		occs := Occurrences(rule(cron, 1), d(2026, 2, 1), d(2026, 2, 28))
		if len(occs) != 0 {
			t.Errorf("cron %q produced %d occurrences, want 0", cron, len(occs))
		}
	}
}

func TestOccurrencesCustomCron(t *testing.T) {
	// Weekends in March only
	r := rule("0 10 * 3 0,6", 1)
	occs := Occurrences(r, d(2026, 2, 20), d(2026, 3, 10))
	want := []int{1, 7, 8}
	if len(occs) != len(want) {
		t.Fatalf("got %d occurrences, want %d", len(occs), len(want))
	}
	for i, day := range want {
		if occs[i].Month() != time.March || occs[i].Day() != day {
			t.Errorf("occ[%d] = %v, want March %d", i, occs[i], day)
		}
	}
}

func TestOccurrencesWildcardTimeDefaultsToMidnight(t *testing.T) {
	occs := Occurrences(rule("* * * * *", 1), d(2026, 2, 1), d(2026, 2, 1))
	if len(occs) != 1 {
		t.Fatalf("got %d occurrences, want 1", len(occs))
	}
	if occs[0].Hour() != 0 || occs[0].Minute() != 0 {
		t.Errorf("time = %02d:%02d, want 00:00", occs[0].Hour(), occs[0].Minute())
	}
}

func TestPreview(t *testing.T) {
	b := fixedBuilder()
	r := b.CreateRule(PresetDaily, "09:00", b.Now(), "")

	occs := b.Preview(r, 0)
	if len(occs) != DefaultPreviewCount {
		t.Fatalf("got %d occurrences, want %d", len(occs), DefaultPreviewCount)
	}
	if !occs[0].Equal(time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("first preview = %v", occs[0])
	}
	for i := 1; i < len(occs); i++ {
		if !occs[i].After(occs[i-1]) {
			t.Errorf("preview not ascending at %d", i)
		}
	}

	if got := b.Preview(r, 3); len(got) != 3 {
		t.Errorf("preview(3) returned %d", len(got))
	}
}

func TestPreviewLimitedToThreeMonths(t *testing.T) {
	b := fixedBuilder()
	r := b.CreateRule(PresetMonthly, "09:00", d(2026, 1, 20), "")

	// Feb 20, Mar 20, Apr 20 fall inside Feb 1 .. May 1
	occs := b.Preview(r, 10)
	if len(occs) != 3 {
		t.Fatalf("got %d occurrences, want 3", len(occs))
	}
}

func TestCompileKinds(t *testing.T) {
	tests := []struct {
		cron     string
		interval int
		kind     Kind
	}{
		{"0 9 * * *", 1, Daily},
		{"0 9 * * 1-5", 1, Weekdays},
		{"0 9 * * 3", 1, Weekly},
		{"0 9 * * 3", 2, Biweekly},
		{"0 9 12 * *", 1, Monthly},
		{"0 9 1-7 * 1", 1, FirstWeekdayOfMonth},
		{"0 9 * * 5L", 1, LastWeekdayOfMonth},
		{"0 9 * 3 *", 1, Custom},
		{"0 9 * * 0,6", 1, Custom},
		{"0 9 40 * *", 1, Custom},
	}

	for _, tt := range tests {
		s, ok := Compile(rule(tt.cron, tt.interval))
		if !ok {
			t.Errorf("Compile(%q) failed", tt.cron)
			continue
		}
		if s.Kind != tt.kind {
			t.Errorf("Compile(%q).Kind = %s, want %s", tt.cron, s.Kind, tt.kind)
		}
	}
}

func TestScheduleAgreesWithCronMatching(t *testing.T) {
	crons := []string{
		"0 9 * * *",
		"0 9 * * 1-5",
		"0 9 * * 0",
		"0 9 31 * *",
		"0 9 1-7 * 4",
		"0 9 * * 6L",
		"0 9 * 2,5 1",
	}

	for _, cron := range crons {
		s, ok := Compile(rule(cron, 1))
		if !ok {
			t.Fatalf("Compile(%q) failed", cron)
		}
		for day := d(2026, 1, 1); day.Year() == 2026; day = day.AddDate(0, 0, 1) {
			if got, want := s.Matches(day), s.Expr.Matches(day); got != want {
				t.Errorf("%q on %s: schedule=%v cron=%v", cron, day.Format("2006-01-02"), got, want)
			}
		}
	}
}
