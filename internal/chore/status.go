package chore

import (
	"fmt"
	"sort"
	"time"

	"github.com/dukerupert/chorechart/internal/model"
	"github.com/dukerupert/chorechart/internal/recurrence"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusOverdue   Status = "overdue"
)

const (
	unassignedName = "Unassigned"
	unknownName    = "Unknown"
)

// instanceLayout formats occurrence timestamps inside instance ids.
const instanceLayout = "2006-01-02T15:04:05.000Z"

// Item is one row of the merged agenda: a one-time chore, or one occurrence
// of a recurring chore.
type Item struct {
	ID             string                `json:"id"`
	OriginalID     string                `json:"original_id,omitempty"`
	InstanceID     string                `json:"instance_id,omitempty"`
	Title          string                `json:"title"`
	Description    string                `json:"description"`
	AssignedTo     *string               `json:"assigned_to"`
	DueDate        time.Time             `json:"due_date"`
	IsRecurring    bool                  `json:"is_recurring"`
	RecurrenceRule *model.RecurrenceRule `json:"recurrence_rule,omitempty"`
}

// ChoreID is the id completions are recorded against.
func (it Item) ChoreID() string {
	if it.OriginalID != "" {
		return it.OriginalID
	}
	return it.ID
}

type ChoreWithStatus struct {
	Item
	Status      Status `json:"status"`
	MemberName  string `json:"member_name"`
	MemberColor string `json:"member_color"`
}

// WeekStart returns local midnight on the Monday of t's week.
func WeekStart(t time.Time) time.Time {
	return model.WeekStart(t)
}

// InstanceID names one occurrence of a recurring chore.
func InstanceID(choreID string, due time.Time) string {
	return fmt.Sprintf("%s-%s", choreID, due.UTC().Format(instanceLayout))
}

// ExpandForWeek projects every recurring chore onto its occurrences in the
// seven days starting at weekStart.
func ExpandForWeek(recurring []model.RecurringChore, weekStart time.Time) []Item {
	lastDay := weekStart.AddDate(0, 0, 6)
	var items []Item
	for _, rc := range recurring {
		rule := rc.RecurrenceRule
		for _, due := range recurrence.Occurrences(rc.RecurrenceRule, weekStart, lastDay) {
			items = append(items, Item{
				ID:             rc.ID,
				OriginalID:     rc.ID,
				InstanceID:     InstanceID(rc.ID, due),
				Title:          rc.Title,
				Description:    rc.Description,
				AssignedTo:     rc.AssignedTo,
				DueDate:        due,
				IsRecurring:    true,
				RecurrenceRule: &rule,
			})
		}
	}
	return items
}

// OneTimeInWeek returns the chores due in [weekStart, weekStart+7d).
func OneTimeInWeek(chores []model.Chore, weekStart time.Time) []Item {
	weekEnd := weekStart.AddDate(0, 0, 7)
	var items []Item
	for _, c := range chores {
		if !c.DueDate.Before(weekStart) && c.DueDate.Before(weekEnd) {
			items = append(items, OneTimeItem(c))
		}
	}
	return items
}

func OneTimeItem(c model.Chore) Item {
	return Item{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		AssignedTo:  c.AssignedTo,
		DueDate:     c.DueDate,
	}
}

func sortByDue(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].DueDate.Before(items[j].DueDate)
	})
}

type completionKey struct {
	choreID string
	due     int64
}

// CompletionIndex answers "is this occurrence done" without rescanning the
// completion list for every item.
type CompletionIndex map[completionKey]struct{}

func NewCompletionIndex(completions []model.Completion) CompletionIndex {
	idx := make(CompletionIndex, len(completions))
	for _, c := range completions {
		idx[completionKey{c.ChoreID, c.DueDate.UnixMilli()}] = struct{}{}
	}
	return idx
}

func (idx CompletionIndex) IsCompleted(choreID string, due time.Time) bool {
	_, ok := idx[completionKey{choreID, due.UnixMilli()}]
	return ok
}

// ComputeStatus derives an item's status. Overdue means not completed and
// due strictly before now.
func ComputeStatus(item Item, idx CompletionIndex, now time.Time) Status {
	if idx.IsCompleted(item.ChoreID(), item.DueDate) {
		return StatusCompleted
	}
	if item.DueDate.Before(now) {
		return StatusOverdue
	}
	return StatusPending
}

func findMember(team []model.TeamMember, id *string) *model.TeamMember {
	if id == nil {
		return nil
	}
	for i := range team {
		if team[i].ID == *id {
			return &team[i]
		}
	}
	return nil
}

// MemberName resolves an assignee for display. Nil is "Unassigned" and an
// id with no matching member is "Unknown".
func MemberName(team []model.TeamMember, id *string) string {
	if id == nil {
		return unassignedName
	}
	if m := findMember(team, id); m != nil {
		return m.Name
	}
	return unknownName
}

func MemberColor(team []model.TeamMember, id *string) string {
	if m := findMember(team, id); m != nil {
		return m.Color
	}
	return model.PlaceholderMemberColor
}

func annotate(items []Item, team []model.TeamMember, idx CompletionIndex, now time.Time) []ChoreWithStatus {
	out := make([]ChoreWithStatus, 0, len(items))
	for _, it := range items {
		out = append(out, ChoreWithStatus{
			Item:        it,
			Status:      ComputeStatus(it, idx, now),
			MemberName:  MemberName(team, it.AssignedTo),
			MemberColor: MemberColor(team, it.AssignedTo),
		})
	}
	return out
}
