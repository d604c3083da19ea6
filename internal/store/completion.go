package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/chorechart/internal/model"
)

// CompletionStore is append-only. Records are never edited or removed.
type CompletionStore struct {
	kv  *KV
	now func() time.Time
}

func NewCompletionStore(kv *KV) *CompletionStore {
	return &CompletionStore{kv: kv, now: time.Now}
}

func (s *CompletionStore) List(ctx context.Context) ([]model.Completion, error) {
	completions, err := list[model.Completion](ctx, s.kv, KeyCompletions)
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	return completions, nil
}

// Create appends c with a fresh id. A zero CompletedAt is stamped with the
// current time.
func (s *CompletionStore) Create(ctx context.Context, c model.Completion) (*model.Completion, error) {
	c.ID = uuid.NewString()
	if c.CompletedAt.IsZero() {
		c.CompletedAt = s.now()
	}
	err := mutate(ctx, s.kv, KeyCompletions, func(completions []model.Completion) ([]model.Completion, error) {
		return append(completions, c), nil
	})
	if err != nil {
		return nil, fmt.Errorf("create completion: %w", err)
	}
	return &c, nil
}

// IsCompleted reports whether a completion exists for the occurrence of
// choreID due at dueDate.
func (s *CompletionStore) IsCompleted(ctx context.Context, choreID string, dueDate time.Time) (bool, error) {
	completions, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	for _, c := range completions {
		if c.ChoreID == choreID && SameInstant(c.DueDate, dueDate) {
			return true, nil
		}
	}
	return false, nil
}

func (s *CompletionStore) GetForChore(ctx context.Context, choreID string) ([]model.Completion, error) {
	completions, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	matched := []model.Completion{}
	for _, c := range completions {
		if c.ChoreID == choreID {
			matched = append(matched, c)
		}
	}
	return matched, nil
}

// ListHistory returns every completion, most recently completed first.
func (s *CompletionStore) ListHistory(ctx context.Context) ([]model.Completion, error) {
	completions, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(completions, func(i, j int) bool {
		return completions[i].CompletedAt.After(completions[j].CompletedAt)
	})
	return completions, nil
}

// SameInstant compares two due dates at millisecond precision, the
// resolution they are serialized with.
func SameInstant(a, b time.Time) bool {
	return a.UnixMilli() == b.UnixMilli()
}
