package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/chorechart/internal/model"
)

var ErrInvalidSnapshot = errors.New("invalid snapshot")

// snapshotKeys maps export document fields onto stored collections.
var snapshotKeys = []struct {
	field string
	key   Key
}{
	{"team_members", KeyTeam},
	{"chores", KeyChores},
	{"recurring_chores", KeyRecurring},
	{"completions", KeyCompletions},
}

// TransferStore moves all collections in and out as one snapshot document.
type TransferStore struct {
	kv  *KV
	now func() time.Time
}

func NewTransferStore(kv *KV) *TransferStore {
	return &TransferStore{kv: kv, now: time.Now}
}

func (s *TransferStore) Export(ctx context.Context) (*model.Snapshot, error) {
	team, err := list[model.TeamMember](ctx, s.kv, KeyTeam)
	if err != nil {
		return nil, fmt.Errorf("export team: %w", err)
	}
	chores, err := list[model.Chore](ctx, s.kv, KeyChores)
	if err != nil {
		return nil, fmt.Errorf("export chores: %w", err)
	}
	recurring, err := list[model.RecurringChore](ctx, s.kv, KeyRecurring)
	if err != nil {
		return nil, fmt.Errorf("export recurring chores: %w", err)
	}
	completions, err := list[model.Completion](ctx, s.kv, KeyCompletions)
	if err != nil {
		return nil, fmt.Errorf("export completions: %w", err)
	}

	return &model.Snapshot{
		Version:         model.SnapshotVersion,
		ExportedAt:      s.now().UTC(),
		TeamMembers:     team,
		Chores:          chores,
		RecurringChores: recurring,
		Completions:     completions,
	}, nil
}

// Import replaces each collection present in data. Absent or null fields
// leave the stored collection untouched. Every present field is decoded
// before anything is written, so a malformed document changes nothing.
// It returns the keys that were replaced.
func (s *TransferStore) Import(ctx context.Context, data []byte) ([]Key, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}

	docs := make(map[Key]any)
	var applied []Key
	for _, sk := range snapshotKeys {
		raw, ok := doc[sk.field]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			continue
		}
		v, err := decodeCollection(sk.key, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidSnapshot, sk.field, err)
		}
		docs[sk.key] = v
		applied = append(applied, sk.key)
	}

	if len(applied) == 0 {
		return nil, fmt.Errorf("%w: no collections found", ErrInvalidSnapshot)
	}

	if err := s.kv.SetMany(ctx, docs); err != nil {
		return nil, fmt.Errorf("import snapshot: %w", err)
	}
	s.kv.logger.Info("snapshot imported", "collections", applied)
	return applied, nil
}

func decodeCollection(key Key, raw json.RawMessage) (any, error) {
	switch key {
	case KeyTeam:
		return decodeSlice[model.TeamMember](raw)
	case KeyChores:
		return decodeSlice[model.Chore](raw)
	case KeyRecurring:
		return decodeSlice[model.RecurringChore](raw)
	case KeyCompletions:
		return decodeSlice[model.Completion](raw)
	}
	return nil, fmt.Errorf("unknown collection %s", key)
}

func decodeSlice[T any](raw json.RawMessage) (any, error) {
	v := []T{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Reset clears every document and seeds the defaults again.
func (s *TransferStore) Reset(ctx context.Context) error {
	if err := s.kv.Clear(ctx); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	if err := s.kv.Init(ctx); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	s.kv.logger.Info("all data cleared")
	return nil
}

// ExportFilename is the download name for a snapshot taken at t.
func ExportFilename(t time.Time) string {
	return "chores-backup-" + t.Format("2006-01-02") + ".json"
}

// MarshalSnapshot renders snap as indented JSON.
func MarshalSnapshot(snap *model.Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}
