package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/chorechart/internal/model"
)

type RecurringStore struct {
	kv  *KV
	now func() time.Time
}

func NewRecurringStore(kv *KV) *RecurringStore {
	return &RecurringStore{kv: kv, now: time.Now}
}

func (s *RecurringStore) List(ctx context.Context) ([]model.RecurringChore, error) {
	chores, err := list[model.RecurringChore](ctx, s.kv, KeyRecurring)
	if err != nil {
		return nil, fmt.Errorf("list recurring chores: %w", err)
	}
	return chores, nil
}

func (s *RecurringStore) GetByID(ctx context.Context, id string) (*model.RecurringChore, error) {
	chores, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range chores {
		if chores[i].ID == id {
			return &chores[i], nil
		}
	}
	return nil, nil
}

func (s *RecurringStore) Create(ctx context.Context, title, description string, assignedTo *string, rule model.RecurrenceRule) (*model.RecurringChore, error) {
	c := model.RecurringChore{
		ID:             uuid.NewString(),
		Title:          title,
		Description:    description,
		AssignedTo:     assignedTo,
		RecurrenceRule: rule,
		CreatedAt:      s.now(),
	}
	err := mutate(ctx, s.kv, KeyRecurring, func(chores []model.RecurringChore) ([]model.RecurringChore, error) {
		return append(chores, c), nil
	})
	if err != nil {
		return nil, fmt.Errorf("create recurring chore: %w", err)
	}
	return &c, nil
}

func (s *RecurringStore) Update(ctx context.Context, id string, patch model.RecurringChorePatch) (*model.RecurringChore, error) {
	var updated model.RecurringChore
	err := mutate(ctx, s.kv, KeyRecurring, func(chores []model.RecurringChore) ([]model.RecurringChore, error) {
		for i := range chores {
			if chores[i].ID == id {
				chores[i] = patch.Apply(chores[i])
				updated = chores[i]
				return chores, nil
			}
		}
		return nil, errNoMatch
	})
	if errors.Is(err, errNoMatch) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update recurring chore %s: %w", id, err)
	}
	return &updated, nil
}

// Delete removes the definition. Completions recorded against its
// occurrences are kept.
func (s *RecurringStore) Delete(ctx context.Context, id string) (bool, error) {
	removed, err := deleteByID(ctx, s.kv, KeyRecurring, id, func(c model.RecurringChore) string { return c.ID })
	if err != nil {
		return false, fmt.Errorf("delete recurring chore %s: %w", id, err)
	}
	return removed, nil
}
