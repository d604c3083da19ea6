package model

import "time"

const (
	ViewCalendar = "calendar"
	ViewList     = "list"
	ViewTeam     = "team"
	ViewHistory  = "history"
)

type AppState struct {
	CurrentWeekStart time.Time `json:"currentWeekStart"`
	ViewMode         string    `json:"viewMode"`
	LastUpdated      time.Time `json:"lastUpdated"`
}

type StatePatch struct {
	CurrentWeekStart *time.Time `json:"currentWeekStart,omitempty"`
	ViewMode         *string    `json:"viewMode,omitempty"`
}

// Apply merges the patch into s and stamps LastUpdated with now.
func (p StatePatch) Apply(s AppState, now time.Time) AppState {
	if p.CurrentWeekStart != nil {
		s.CurrentWeekStart = *p.CurrentWeekStart
	}
	if p.ViewMode != nil {
		s.ViewMode = *p.ViewMode
	}
	s.LastUpdated = now
	return s
}

// WeekStart returns local midnight on the Monday of t's week.
func WeekStart(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -offset)
}

// DefaultState is the state seeded on first run.
func DefaultState(now time.Time) AppState {
	return AppState{
		CurrentWeekStart: WeekStart(now),
		ViewMode:         ViewCalendar,
		LastUpdated:      now,
	}
}
