package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/chorechart/internal/model"
)

// BackupStore keeps the history of remote snapshot uploads.
type BackupStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewBackupStore(db *sql.DB) *BackupStore {
	return &BackupStore{db: db, now: time.Now}
}

const backupColumns = `id, object_key, size_bytes, status, error_message, started_at, completed_at`

func scanBackup(scanner interface{ Scan(...any) error }) (*model.BackupRecord, error) {
	b := &model.BackupRecord{}
	var errMsg sql.NullString
	var completedAt sql.NullTime
	if err := scanner.Scan(&b.ID, &b.ObjectKey, &b.SizeBytes, &b.Status, &errMsg, &b.StartedAt, &completedAt); err != nil {
		return nil, err
	}
	b.ErrorMessage = errMsg.String
	if completedAt.Valid {
		b.CompletedAt = &completedAt.Time
	}
	return b, nil
}

func (s *BackupStore) Create(ctx context.Context, objectKey string, startedAt time.Time) (*model.BackupRecord, error) {
	now := startedAt.UTC()
	b := &model.BackupRecord{
		ID:        uuid.NewString(),
		ObjectKey: objectKey,
		Status:    model.BackupStatusPending,
		StartedAt: now,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO backups (id, object_key, status, started_at) VALUES (?, ?, ?, ?)`,
		b.ID, b.ObjectKey, b.Status, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create backup: %w", err)
	}
	return b, nil
}

func (s *BackupStore) GetByID(ctx context.Context, id string) (*model.BackupRecord, error) {
	b, err := scanBackup(s.db.QueryRowContext(ctx,
		`SELECT `+backupColumns+` FROM backups WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get backup %s: %w", id, err)
	}
	return b, nil
}

// List returns up to limit records, newest first.
func (s *BackupStore) List(ctx context.Context, limit int) ([]model.BackupRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+backupColumns+` FROM backups ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list backups: %w", err)
	}
	defer rows.Close()

	backups := []model.BackupRecord{}
	for rows.Next() {
		b, err := scanBackup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan backup: %w", err)
		}
		backups = append(backups, *b)
	}
	return backups, rows.Err()
}

func (s *BackupStore) UpdateStatus(ctx context.Context, id string, status model.BackupStatus, errorMsg string) error {
	var errPtr *string
	if errorMsg != "" {
		errPtr = &errorMsg
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE backups SET status = ?, error_message = ? WHERE id = ?`,
		status, errPtr, id,
	)
	if err != nil {
		return fmt.Errorf("update backup status: %w", err)
	}
	return nil
}

func (s *BackupStore) UpdateCompleted(ctx context.Context, id string, sizeBytes int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE backups SET status = ?, size_bytes = ?, completed_at = ? WHERE id = ?`,
		model.BackupStatusCompleted, sizeBytes, s.now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("update backup completed: %w", err)
	}
	return nil
}

func (s *BackupStore) LatestCompleted(ctx context.Context) (*model.BackupRecord, error) {
	b, err := scanBackup(s.db.QueryRowContext(ctx,
		`SELECT `+backupColumns+` FROM backups WHERE status = ? ORDER BY completed_at DESC LIMIT 1`,
		model.BackupStatusCompleted,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest completed backup: %w", err)
	}
	return b, nil
}

// DeleteOlderThan drops records started before the cutoff and returns the
// object keys they pointed at.
func (s *BackupStore) DeleteOlderThan(ctx context.Context, before time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT object_key FROM backups WHERE started_at < ?`, before.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("select old backups: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan object key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM backups WHERE started_at < ?`, before.UTC()); err != nil {
		return nil, fmt.Errorf("delete old backups: %w", err)
	}
	return keys, nil
}
