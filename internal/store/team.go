package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/chorechart/internal/model"
)

// errNoMatch aborts a mutate when the target id is not in the collection.
var errNoMatch = errors.New("no match")

type TeamStore struct {
	kv  *KV
	now func() time.Time
}

func NewTeamStore(kv *KV) *TeamStore {
	return &TeamStore{kv: kv, now: time.Now}
}

func (s *TeamStore) List(ctx context.Context) ([]model.TeamMember, error) {
	members, err := list[model.TeamMember](ctx, s.kv, KeyTeam)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	return members, nil
}

func (s *TeamStore) GetByID(ctx context.Context, id string) (*model.TeamMember, error) {
	members, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range members {
		if members[i].ID == id {
			return &members[i], nil
		}
	}
	return nil, nil
}

// Create adds a member. An empty color falls back to DefaultMemberColor.
func (s *TeamStore) Create(ctx context.Context, name, color string) (*model.TeamMember, error) {
	if color == "" {
		color = model.DefaultMemberColor
	}
	m := model.TeamMember{
		ID:        uuid.NewString(),
		Name:      name,
		Color:     color,
		CreatedAt: s.now(),
	}
	err := mutate(ctx, s.kv, KeyTeam, func(members []model.TeamMember) ([]model.TeamMember, error) {
		return append(members, m), nil
	})
	if err != nil {
		return nil, fmt.Errorf("create team member: %w", err)
	}
	return &m, nil
}

// Update merges patch into the member with id. It returns nil when no such
// member exists.
func (s *TeamStore) Update(ctx context.Context, id string, patch model.TeamMemberPatch) (*model.TeamMember, error) {
	var updated model.TeamMember
	err := mutate(ctx, s.kv, KeyTeam, func(members []model.TeamMember) ([]model.TeamMember, error) {
		for i := range members {
			if members[i].ID == id {
				members[i] = patch.Apply(members[i])
				updated = members[i]
				return members, nil
			}
		}
		return nil, errNoMatch
	})
	if errors.Is(err, errNoMatch) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update team member %s: %w", id, err)
	}
	return &updated, nil
}

// Delete removes the member. Chores and completions that reference it are
// left alone.
func (s *TeamStore) Delete(ctx context.Context, id string) (bool, error) {
	removed, err := deleteByID(ctx, s.kv, KeyTeam, id, func(m model.TeamMember) string { return m.ID })
	if err != nil {
		return false, fmt.Errorf("delete team member %s: %w", id, err)
	}
	return removed, nil
}

func deleteByID[T any](ctx context.Context, kv *KV, key Key, id string, idOf func(T) string) (bool, error) {
	err := mutate(ctx, kv, key, func(items []T) ([]T, error) {
		for i := range items {
			if idOf(items[i]) == id {
				return append(items[:i], items[i+1:]...), nil
			}
		}
		return nil, errNoMatch
	})
	if errors.Is(err, errNoMatch) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
