package chore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukerupert/chorechart/internal/model"
	"github.com/dukerupert/chorechart/internal/store"
)

var ErrChoreNotFound = errors.New("chore not found")

// Service merges one-time and recurring chores with completion records. It
// keeps no state between calls.
type Service struct {
	team        *store.TeamStore
	chores      *store.ChoreStore
	recurring   *store.RecurringStore
	completions *store.CompletionStore
	logger      *slog.Logger
	Now         func() time.Time
}

func NewService(team *store.TeamStore, chores *store.ChoreStore, recurring *store.RecurringStore, completions *store.CompletionStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		team:        team,
		chores:      chores,
		recurring:   recurring,
		completions: completions,
		logger:      logger.With("component", "chore"),
		Now:         time.Now,
	}
}

type Day struct {
	Date   time.Time         `json:"date"`
	Chores []ChoreWithStatus `json:"chores"`
}

type Week struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Days  []Day     `json:"days"`
}

type ListOptions struct {
	Assignee string
	Status   Status
}

type HistoryEntry struct {
	model.Completion
	MemberName  string `json:"member_name"`
	MemberColor string `json:"member_color"`
}

type snapshot struct {
	team        []model.TeamMember
	chores      []model.Chore
	recurring   []model.RecurringChore
	completions []model.Completion
}

func (s *Service) load(ctx context.Context) (*snapshot, error) {
	team, err := s.team.List(ctx)
	if err != nil {
		return nil, err
	}
	chores, err := s.chores.List(ctx)
	if err != nil {
		return nil, err
	}
	recurring, err := s.recurring.List(ctx)
	if err != nil {
		return nil, err
	}
	completions, err := s.completions.List(ctx)
	if err != nil {
		return nil, err
	}
	return &snapshot{team: team, chores: chores, recurring: recurring, completions: completions}, nil
}

// Week returns the seven days starting at the Monday on or before
// weekStart, each with its chores in due order.
func (s *Service) Week(ctx context.Context, weekStart time.Time) (*Week, error) {
	start := WeekStart(weekStart)
	snap, err := s.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load week: %w", err)
	}

	items := append(OneTimeInWeek(snap.chores, start), ExpandForWeek(snap.recurring, start)...)
	sortByDue(items)
	annotated := annotate(items, snap.team, NewCompletionIndex(snap.completions), s.Now())

	w := &Week{Start: start, End: start.AddDate(0, 0, 7)}
	for i := 0; i < 7; i++ {
		dayStart := start.AddDate(0, 0, i)
		dayEnd := start.AddDate(0, 0, i+1)
		day := Day{Date: dayStart, Chores: []ChoreWithStatus{}}
		for _, c := range annotated {
			if !c.DueDate.Before(dayStart) && c.DueDate.Before(dayEnd) {
				day.Chores = append(day.Chores, c)
			}
		}
		w.Days = append(w.Days, day)
	}
	return w, nil
}

// List returns every one-time chore plus this week's recurring occurrences,
// sorted by due date and filtered by opts.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]ChoreWithStatus, error) {
	snap, err := s.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load list: %w", err)
	}
	now := s.Now()

	items := make([]Item, 0, len(snap.chores))
	for _, c := range snap.chores {
		items = append(items, OneTimeItem(c))
	}
	items = append(items, ExpandForWeek(snap.recurring, WeekStart(now))...)
	sortByDue(items)

	result := []ChoreWithStatus{}
	for _, c := range annotate(items, snap.team, NewCompletionIndex(snap.completions), now) {
		if opts.Assignee != "" && (c.AssignedTo == nil || *c.AssignedTo != opts.Assignee) {
			continue
		}
		if opts.Status != "" && c.Status != opts.Status {
			continue
		}
		result = append(result, c)
	}
	return result, nil
}

// History returns all completions, newest first, with member display values.
func (s *Service) History(ctx context.Context) ([]HistoryEntry, error) {
	completions, err := s.completions.ListHistory(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	team, err := s.team.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	entries := make([]HistoryEntry, 0, len(completions))
	for _, c := range completions {
		entries = append(entries, HistoryEntry{
			Completion:  c,
			MemberName:  MemberName(team, c.CompletedBy),
			MemberColor: MemberColor(team, c.CompletedBy),
		})
	}
	return entries, nil
}

type CompleteInput struct {
	ChoreID     string
	DueDate     time.Time
	CompletedBy *string
	Notes       string
}

// Complete records a completion for one occurrence. The chore may be
// one-time or recurring. CompletedBy defaults to the chore's assignee.
func (s *Service) Complete(ctx context.Context, in CompleteInput) (*model.Completion, error) {
	title, assignee, err := s.lookup(ctx, in.ChoreID)
	if err != nil {
		return nil, err
	}

	completedBy := in.CompletedBy
	if completedBy == nil {
		completedBy = assignee
	}

	c, err := s.completions.Create(ctx, model.Completion{
		ChoreID:     in.ChoreID,
		ChoreTitle:  title,
		CompletedBy: completedBy,
		DueDate:     in.DueDate,
		Notes:       in.Notes,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("chore completed", "chore_id", in.ChoreID, "due", in.DueDate)
	return c, nil
}

func (s *Service) lookup(ctx context.Context, id string) (title string, assignee *string, err error) {
	c, err := s.chores.GetByID(ctx, id)
	if err != nil {
		return "", nil, err
	}
	if c != nil {
		return c.Title, c.AssignedTo, nil
	}
	rc, err := s.recurring.GetByID(ctx, id)
	if err != nil {
		return "", nil, err
	}
	if rc != nil {
		return rc.Title, rc.AssignedTo, nil
	}
	return "", nil, ErrChoreNotFound
}

// ConvertToRecurring replaces a one-time chore with a recurring chore that
// keeps its title, description and assignee. The new chore gets a new id.
func (s *Service) ConvertToRecurring(ctx context.Context, id string, rule model.RecurrenceRule) (*model.RecurringChore, error) {
	c, err := s.chores.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrChoreNotFound
	}
	if _, err := s.chores.Delete(ctx, id); err != nil {
		return nil, err
	}
	rc, err := s.recurring.Create(ctx, c.Title, c.Description, c.AssignedTo, rule)
	if err != nil {
		return nil, err
	}
	s.logger.Info("chore converted to recurring", "old_id", id, "new_id", rc.ID)
	return rc, nil
}

// ConvertToOneTime replaces a recurring chore with a one-time chore due at
// dueDate.
func (s *Service) ConvertToOneTime(ctx context.Context, id string, dueDate time.Time) (*model.Chore, error) {
	rc, err := s.recurring.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rc == nil {
		return nil, ErrChoreNotFound
	}
	if _, err := s.recurring.Delete(ctx, id); err != nil {
		return nil, err
	}
	c, err := s.chores.Create(ctx, rc.Title, rc.Description, rc.AssignedTo, dueDate)
	if err != nil {
		return nil, err
	}
	s.logger.Info("chore converted to one-time", "old_id", id, "new_id", c.ID)
	return c, nil
}
