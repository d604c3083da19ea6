package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/chorechart/internal/model"
)

type ChoreStore struct {
	kv  *KV
	now func() time.Time
}

func NewChoreStore(kv *KV) *ChoreStore {
	return &ChoreStore{kv: kv, now: time.Now}
}

func (s *ChoreStore) List(ctx context.Context) ([]model.Chore, error) {
	chores, err := list[model.Chore](ctx, s.kv, KeyChores)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	return chores, nil
}

func (s *ChoreStore) GetByID(ctx context.Context, id string) (*model.Chore, error) {
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

func (s *ChoreStore) Create(ctx context.Context, title, description string, assignedTo *string, dueDate time.Time) (*model.Chore, error) {
	c := model.Chore{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		AssignedTo:  assignedTo,
		DueDate:     dueDate,
		CreatedAt:   s.now(),
	}
	err := mutate(ctx, s.kv, KeyChores, func(chores []model.Chore) ([]model.Chore, error) {
		return append(chores, c), nil
	})
	if err != nil {
		return nil, fmt.Errorf("create chore: %w", err)
	}
	return &c, nil
}

func (s *ChoreStore) Update(ctx context.Context, id string, patch model.ChorePatch) (*model.Chore, error) {
	var updated model.Chore
	err := mutate(ctx, s.kv, KeyChores, func(chores []model.Chore) ([]model.Chore, error) {
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
		return nil, fmt.Errorf("update chore %s: %w", id, err)
	}
	return &updated, nil
}

func (s *ChoreStore) Delete(ctx context.Context, id string) (bool, error) {
	removed, err := deleteByID(ctx, s.kv, KeyChores, id, func(c model.Chore) string { return c.ID })
	if err != nil {
		return false, fmt.Errorf("delete chore %s: %w", id, err)
	}
	return removed, nil
}
