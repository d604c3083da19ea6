package model

import "time"

// Chore is a one-time chore with a fixed due date.
type Chore struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AssignedTo  *string   `json:"assigned_to"`
	DueDate     time.Time `json:"due_date"`
	CreatedAt   time.Time `json:"created_at"`
}

// RecurringChore has no due date of its own; occurrences are derived from
// its rule at query time.
type RecurringChore struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	AssignedTo     *string        `json:"assigned_to"`
	RecurrenceRule RecurrenceRule `json:"recurrence_rule"`
	CreatedAt      time.Time      `json:"created_at"`
}

type RecurrenceRule struct {
	Cron          string    `json:"cron"`
	Preset        string    `json:"preset"`
	HumanReadable string    `json:"human_readable"`
	Interval      int       `json:"interval"`
	StartDate     time.Time `json:"start_date"`
}

// ChorePatch is a partial update for a one-time chore. An AssignedTo that
// points at "" clears the assignee.
type ChorePatch struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	AssignedTo  *string    `json:"assigned_to,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

func (p ChorePatch) Apply(c Chore) Chore {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.AssignedTo != nil {
		c.AssignedTo = Assignee(*p.AssignedTo)
	}
	if p.DueDate != nil {
		c.DueDate = *p.DueDate
	}
	return c
}

type RecurringChorePatch struct {
	Title          *string         `json:"title,omitempty"`
	Description    *string         `json:"description,omitempty"`
	AssignedTo     *string         `json:"assigned_to,omitempty"`
	RecurrenceRule *RecurrenceRule `json:"recurrence_rule,omitempty"`
}

func (p RecurringChorePatch) Apply(c RecurringChore) RecurringChore {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.AssignedTo != nil {
		c.AssignedTo = Assignee(*p.AssignedTo)
	}
	if p.RecurrenceRule != nil {
		c.RecurrenceRule = *p.RecurrenceRule
	}
	return c
}

// Assignee converts a form value into a nullable member reference.
func Assignee(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
