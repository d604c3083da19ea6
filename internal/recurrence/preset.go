package recurrence

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dukerupert/chorechart/internal/model"
)

type Preset string

const (
	PresetDaily        Preset = "daily"
	PresetWeekly       Preset = "weekly"
	PresetWeekdays     Preset = "weekdays"
	PresetBiweekly     Preset = "biweekly"
	PresetMonthly      Preset = "monthly"
	PresetFirstWeekday Preset = "first-weekday"
	PresetLastWeekday  Preset = "last-weekday"
	PresetCustom       Preset = "custom"
)

// PresetInfo describes a preset for forms and help text.
type PresetInfo struct {
	ID          Preset `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

var Presets = []PresetInfo{
	{PresetDaily, "Daily", "Every day"},
	{PresetWeekly, "Weekly (same day)", "Every week on the same day"},
	{PresetWeekdays, "Weekdays (Mon-Fri)", "Every weekday"},
	{PresetBiweekly, "Every 2 weeks", "Every 2 weeks"},
	{PresetMonthly, "Monthly (same date)", "Every month on the same date"},
	{PresetFirstWeekday, "First [weekday] of month", "First occurrence of this weekday each month"},
	{PresetLastWeekday, "Last [weekday] of month", "Last occurrence of this weekday each month"},
	{PresetCustom, "Custom (cron expression)", "Custom cron expression"},
}

// ParseTime reads an "HH:MM" string. Missing or non-numeric parts are 0.
func ParseTime(s string) (hour, minute int) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	hour, _ = strconv.Atoi(parts[0])
	if len(parts) > 1 {
		minute, _ = strconv.Atoi(parts[1])
	}
	return hour, minute
}

// GenerateCron builds the cron string for a non-custom preset. Weekly-style
// presets take the weekday of ref and monthly takes its day of month. It
// returns "" for custom and unknown presets.
func GenerateCron(preset Preset, hhmm string, ref time.Time) string {
	hour, minute := ParseTime(hhmm)
	dow := int(ref.Weekday())
	dom := ref.Day()

	switch preset {
	case PresetDaily:
		return fmt.Sprintf("%d %d * * *", minute, hour)
	case PresetWeekly, PresetBiweekly:
		return fmt.Sprintf("%d %d * * %d", minute, hour, dow)
	case PresetWeekdays:
		return fmt.Sprintf("%d %d * * 1-5", minute, hour)
	case PresetMonthly:
		return fmt.Sprintf("%d %d %d * *", minute, hour, dom)
	case PresetFirstWeekday:
		return fmt.Sprintf("%d %d 1-7 * %d", minute, hour, dow)
	case PresetLastWeekday:
		return fmt.Sprintf("%d %d * * %dL", minute, hour, dow)
	}
	return ""
}

// Builder creates recurrence rules. Describer may be nil, in which case the
// raw cron string is used as the description.
type Builder struct {
	Describer Describer
	Now       func() time.Time
}

func NewBuilder(d Describer) *Builder {
	return &Builder{Describer: d, Now: time.Now}
}

// CreateRule derives a rule from a preset, an "HH:MM" time and a reference
// date. A custom preset uses customCron verbatim. Unknown presets, and custom
// with an empty cron, produce a rule with an empty cron, which never yields
// occurrences.
func (b *Builder) CreateRule(preset Preset, hhmm string, ref time.Time, customCron string) model.RecurrenceRule {
	var cron string
	interval := 1

	if preset == PresetCustom {
		cron = strings.TrimSpace(customCron)
	} else {
		cron = GenerateCron(preset, hhmm, ref)
		if preset == PresetBiweekly {
			interval = 2
		}
	}

	return model.RecurrenceRule{
		Cron:          cron,
		Preset:        string(preset),
		HumanReadable: Describe(b.Describer, cron),
		Interval:      interval,
		StartDate:     b.now(),
	}
}

// Preview lists the next n occurrences of rule from the builder's clock.
func (b *Builder) Preview(rule model.RecurrenceRule, n int) []time.Time {
	return Preview(rule, b.now(), n)
}

func (b *Builder) now() time.Time {
	if b.Now == nil {
		return time.Now()
	}
	return b.Now()
}
