package model

import "time"

// Completion records that one occurrence of a chore was finished. ChoreID may
// reference a one-time chore or a recurring chore; DueDate identifies the
// occurrence.
type Completion struct {
	ID          string    `json:"id"`
	ChoreID     string    `json:"chore_id"`
	ChoreTitle  string    `json:"chore_title"`
	CompletedBy *string   `json:"completed_by"`
	CompletedAt time.Time `json:"completed_at"`
	DueDate     time.Time `json:"due_date"`
	Notes       string    `json:"notes"`
}
