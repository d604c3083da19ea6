package model

import "time"

const SnapshotVersion = "1.0"

// Snapshot is the export document bundling every collection.
type Snapshot struct {
	Version         string           `json:"version"`
	ExportedAt      time.Time        `json:"exported_at"`
	TeamMembers     []TeamMember     `json:"team_members"`
	Chores          []Chore          `json:"chores"`
	RecurringChores []RecurringChore `json:"recurring_chores"`
	Completions     []Completion     `json:"completions"`
}
