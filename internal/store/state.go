package store

import (
	"context"
	"fmt"
	"time"

	"github.com/dukerupert/chorechart/internal/model"
)

type StateStore struct {
	kv  *KV
	now func() time.Time
}

func NewStateStore(kv *KV) *StateStore {
	return &StateStore{kv: kv, now: time.Now}
}

// Get returns the stored state, or the default state when none is stored.
func (s *StateStore) Get(ctx context.Context) (model.AppState, error) {
	var st model.AppState
	found, err := s.kv.Get(ctx, KeyState, &st)
	if err != nil {
		return model.AppState{}, fmt.Errorf("get state: %w", err)
	}
	if !found {
		return model.DefaultState(s.now()), nil
	}
	return st, nil
}

func (s *StateStore) Update(ctx context.Context, patch model.StatePatch) (model.AppState, error) {
	s.kv.mu.Lock()
	defer s.kv.mu.Unlock()

	var st model.AppState
	found, err := s.kv.get(ctx, KeyState, &st)
	if err != nil {
		return model.AppState{}, fmt.Errorf("update state: %w", err)
	}
	now := s.now()
	if !found {
		st = model.DefaultState(now)
	}
	st = patch.Apply(st, now)
	if err := s.kv.set(ctx, KeyState, st); err != nil {
		return model.AppState{}, fmt.Errorf("update state: %w", err)
	}
	return st, nil
}
