package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/dukerupert/chorechart/internal/model"
)

// Key names one of the persisted documents.
type Key string

const (
	KeyTeam        Key = "team"
	KeyChores      Key = "chores"
	KeyRecurring   Key = "recurring"
	KeyCompletions Key = "completions"
	KeyState       Key = "state"
)

const keyPrefix = "chores_app_"

// Keys lists every document the store manages.
var Keys = []Key{KeyTeam, KeyChores, KeyRecurring, KeyCompletions, KeyState}

func (k Key) storageKey() string {
	return keyPrefix + string(k)
}

var ErrStorageFull = errors.New("storage is full")

// KV keeps each collection as a single JSON document. Writes replace the
// whole document. Read-modify-write cycles inside this process are
// serialized; separate processes sharing the file are last-writer-wins.
type KV struct {
	db     *sql.DB
	logger *slog.Logger
	mu     sync.Mutex
	now    func() time.Time
}

func NewKV(db *sql.DB, logger *slog.Logger) *KV {
	if logger == nil {
		logger = slog.Default()
	}
	return &KV{
		db:     db,
		logger: logger.With("component", "store"),
		now:    time.Now,
	}
}

// Get decodes the document under key into dst. It reports false when the
// key has never been written.
func (kv *KV) Get(ctx context.Context, key Key, dst any) (bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	return kv.get(ctx, key, dst)
}

func (kv *KV) Set(ctx context.Context, key Key, v any) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	return kv.set(ctx, key, v)
}

// SetMany writes several documents in one transaction.
func (kv *KV) SetMany(ctx context.Context, docs map[Key]any) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	encoded := make(map[Key][]byte, len(docs))
	keys := make([]string, 0, len(docs))
	for k, v := range docs {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", k, err)
		}
		encoded[k] = data
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	tx, err := kv.db.BeginTx(ctx, nil)
	if err != nil {
		return kv.fail("begin write", "", err)
	}
	defer tx.Rollback()

	now := kv.now().UTC()
	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, upsertSQL, Key(k).storageKey(), string(encoded[Key(k)]), now); err != nil {
			return kv.fail("write", Key(k), err)
		}
	}
	if err := tx.Commit(); err != nil {
		return kv.fail("commit write", "", err)
	}
	return nil
}

// Delete removes key and reports whether it existed.
func (kv *KV) Delete(ctx context.Context, key Key) (bool, error) {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	res, err := kv.db.ExecContext(ctx, `DELETE FROM kv_store WHERE key = ?`, key.storageKey())
	if err != nil {
		return false, kv.fail("delete", key, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Clear removes every managed document.
func (kv *KV) Clear(ctx context.Context) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	tx, err := kv.db.BeginTx(ctx, nil)
	if err != nil {
		return kv.fail("begin clear", "", err)
	}
	defer tx.Rollback()

	for _, k := range Keys {
		if _, err := tx.ExecContext(ctx, `DELETE FROM kv_store WHERE key = ?`, k.storageKey()); err != nil {
			return kv.fail("clear", k, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return kv.fail("commit clear", "", err)
	}
	return nil
}

// Init seeds empty collections and the default state for any key that is
// not yet present.
func (kv *KV) Init(ctx context.Context) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	defaults := map[Key]any{
		KeyTeam:        []model.TeamMember{},
		KeyChores:      []model.Chore{},
		KeyRecurring:   []model.RecurringChore{},
		KeyCompletions: []model.Completion{},
		KeyState:       model.DefaultState(kv.now()),
	}

	for _, k := range Keys {
		var raw json.RawMessage
		found, err := kv.get(ctx, k, &raw)
		if err != nil {
			return err
		}
		if found {
			continue
		}
		if err := kv.set(ctx, k, defaults[k]); err != nil {
			return err
		}
		kv.logger.Debug("seeded key", "key", k)
	}
	return nil
}

const upsertSQL = `INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

func (kv *KV) get(ctx context.Context, key Key, dst any) (bool, error) {
	var value string
	err := kv.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, key.storageKey()).Scan(&value)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, kv.fail("read", key, err)
	}
	if err := json.Unmarshal([]byte(value), dst); err != nil {
		kv.logger.Error("decode failed", "key", key, "error", err)
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (kv *KV) set(ctx context.Context, key Key, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if _, err := kv.db.ExecContext(ctx, upsertSQL, key.storageKey(), string(data), kv.now().UTC()); err != nil {
		return kv.fail("write", key, err)
	}
	return nil
}

// fail logs a storage error and wraps it, mapping a full database onto
// ErrStorageFull. Nothing is retried.
func (kv *KV) fail(op string, key Key, err error) error {
	if isStorageFull(err) {
		kv.logger.Error("storage full", "op", op, "key", key, "error", err)
		return fmt.Errorf("%s %s: %w", op, key, ErrStorageFull)
	}
	kv.logger.Error("storage error", "op", op, "key", key, "error", err)
	if key == "" {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s %s: %w", op, key, err)
}

func isStorageFull(err error) bool {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()&0xff == sqlite3.SQLITE_FULL
	}
	return false
}

// list returns the collection under key, never nil.
func list[T any](ctx context.Context, kv *KV, key Key) ([]T, error) {
	var items []T
	if _, err := kv.Get(ctx, key, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// mutate runs fn over the current collection under the store lock and
// writes back whatever it returns. Returning an error aborts the write.
func mutate[T any](ctx context.Context, kv *KV, key Key, fn func([]T) ([]T, error)) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()

	var items []T
	if _, err := kv.get(ctx, key, &items); err != nil {
		return err
	}
	items, err := fn(items)
	if err != nil {
		return err
	}
	if items == nil {
		items = []T{}
	}
	return kv.set(ctx, key, items)
}
