package store

import (
	"context"
	"testing"
	"time"

	"github.com/dukerupert/chorechart/internal/database"
	"github.com/dukerupert/chorechart/internal/model"
)

func setupBackupTestDB(t *testing.T) *BackupStore {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	bs := NewBackupStore(db)
	clock := time.Date(2026, 2, 1, 3, 0, 0, 0, time.UTC)
	bs.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return bs
}

func TestBackupCreate(t *testing.T) {
	bs := setupBackupTestDB(t)
	ctx := context.Background()

	b, err := bs.Create(ctx, "chorechart/chores-backup-20260201T030100Z.json.enc", bs.now())
	if err != nil {
		t.Fatalf("create backup: %v", err)
	}
	if b.ID == "" {
		t.Error("expected an id")
	}
	if b.Status != model.BackupStatusPending {
		t.Errorf("status = %q, want %q", b.Status, model.BackupStatusPending)
	}

	got, err := bs.GetByID(ctx, b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil || got.ObjectKey != b.ObjectKey {
		t.Errorf("got %+v", got)
	}

	missing, err := bs.GetByID(ctx, "nope")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Error("expected nil for unknown id")
	}
}

func TestBackupUpdateStatus(t *testing.T) {
	bs := setupBackupTestDB(t)
	ctx := context.Background()

	b, _ := bs.Create(ctx, "k1", bs.now())
	if err := bs.UpdateStatus(ctx, b.ID, model.BackupStatusFailed, "upload failed"); err != nil {
		t.Fatalf("update status: %v", err)
	}

	got, _ := bs.GetByID(ctx, b.ID)
	if got.Status != model.BackupStatusFailed {
		t.Errorf("status = %q", got.Status)
	}
	if got.ErrorMessage != "upload failed" {
		t.Errorf("error_message = %q", got.ErrorMessage)
	}
}

func TestBackupCompletedAndLatest(t *testing.T) {
	bs := setupBackupTestDB(t)
	ctx := context.Background()

	b1, _ := bs.Create(ctx, "k1", bs.now())
	bs.UpdateCompleted(ctx, b1.ID, 100)
	b2, _ := bs.Create(ctx, "k2", bs.now())
	bs.UpdateCompleted(ctx, b2.ID, 200)
	b3, _ := bs.Create(ctx, "k3", bs.now())
	bs.UpdateStatus(ctx, b3.ID, model.BackupStatusFailed, "error")

	latest, err := bs.LatestCompleted(ctx)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if latest == nil || latest.ObjectKey != "k2" {
		t.Fatalf("latest = %+v, want k2", latest)
	}
	if latest.SizeBytes != 200 {
		t.Errorf("size = %d, want 200", latest.SizeBytes)
	}
	if latest.CompletedAt == nil {
		t.Error("expected completed_at")
	}

	all, err := bs.List(ctx, 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].ObjectKey != "k3" {
		t.Errorf("list = %+v, want newest first", all)
	}
	limited, _ := bs.List(ctx, 2)
	if len(limited) != 2 {
		t.Errorf("limited = %d, want 2", len(limited))
	}
}

func TestBackupDeleteOlderThan(t *testing.T) {
	bs := setupBackupTestDB(t)
	ctx := context.Background()

	bs.Create(ctx, "old", bs.now())
	cutoff := bs.now()
	bs.Create(ctx, "new", bs.now())

	keys, err := bs.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		t.Fatalf("delete older than: %v", err)
	}
	if len(keys) != 1 || keys[0] != "old" {
		t.Fatalf("deleted keys = %v, want [old]", keys)
	}

	remaining, _ := bs.List(ctx, 10)
	if len(remaining) != 1 || remaining[0].ObjectKey != "new" {
		t.Errorf("remaining = %+v", remaining)
	}
}
