package backup

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dukerupert/chorechart/internal/model"
	"github.com/dukerupert/chorechart/internal/store"
)

var (
	ErrNotConfigured      = errors.New("backup not configured: S3 credentials missing")
	ErrPassphraseRequired = errors.New("backup passphrase required")
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

func (c S3Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

type Config struct {
	S3     S3Config
	Prefix string
}

type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateDisabled State = "disabled"
	StateError    State = "error"
)

type Status struct {
	State      State      `json:"state"`
	LastBackup *time.Time `json:"last_backup,omitempty"`
	Error      string     `json:"error,omitempty"`
	InProgress bool       `json:"in_progress"`
}

// StatusCallback is called whenever the backup state changes.
type StatusCallback func(Status)

// Manager uploads encrypted snapshots to S3-compatible storage and restores
// them. Backups only run when asked; there is no schedule.
type Manager struct {
	mu       sync.RWMutex
	cfg      Config
	status   Status
	callback StatusCallback

	transfer *store.TransferStore
	backups  *store.BackupStore
	client   s3Client
	logger   *slog.Logger
	now      func() time.Time
}

func NewManager(cfg Config, transfer *store.TransferStore, backups *store.BackupStore, logger *slog.Logger, callback StatusCallback) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		cfg:      cfg,
		transfer: transfer,
		backups:  backups,
		callback: callback,
		logger:   logger.With("component", "backup"),
		status:   Status{State: StateDisabled},
		now:      time.Now,
	}

	if cfg.S3.Enabled() {
		m.client = newS3Client(cfg.S3)
		m.status.State = StateIdle
	}

	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	if s.LastBackup == nil {
		s.LastBackup = m.status.LastBackup
	}
	m.status = s
	m.mu.Unlock()
	if m.callback != nil {
		m.callback(s)
	}
}

func (m *Manager) clientAndBucket() (s3Client, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.client == nil {
		return nil, "", ErrNotConfigured
	}
	return m.client, m.cfg.S3.Bucket, nil
}

// ObjectKey names the object a snapshot taken at t is uploaded to.
func (m *Manager) ObjectKey(t time.Time) string {
	return fmt.Sprintf("%schores-backup-%s.json.enc", m.cfg.Prefix, t.UTC().Format("20060102T150405Z"))
}

// RunNow exports every collection, encrypts the snapshot with passphrase and
// uploads it.
func (m *Manager) RunNow(ctx context.Context, passphrase string) (*model.BackupRecord, error) {
	client, bucket, err := m.clientAndBucket()
	if err != nil {
		return nil, err
	}
	if passphrase == "" {
		return nil, ErrPassphraseRequired
	}

	m.setStatus(Status{State: StateRunning, InProgress: true})

	started := m.now()
	record, err := m.backups.Create(ctx, m.ObjectKey(started), started)
	if err != nil {
		m.setStatus(Status{State: StateError, Error: err.Error()})
		return nil, fmt.Errorf("create backup record: %w", err)
	}

	fail := func(step string, err error) (*model.BackupRecord, error) {
		m.backups.UpdateStatus(ctx, record.ID, model.BackupStatusFailed, err.Error())
		m.setStatus(Status{State: StateError, Error: err.Error()})
		m.logger.Error("backup failed", "step", step, "key", record.ObjectKey, "error", err)
		return nil, fmt.Errorf("%s: %w", step, err)
	}

	snap, err := m.transfer.Export(ctx)
	if err != nil {
		return fail("export", err)
	}
	data, err := store.MarshalSnapshot(snap)
	if err != nil {
		return fail("marshal", err)
	}
	sealed, err := Encrypt(data, passphrase)
	if err != nil {
		return fail("encrypt", err)
	}

	m.backups.UpdateStatus(ctx, record.ID, model.BackupStatusUploading, "")

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(record.ObjectKey),
		Body:          bytes.NewReader(sealed),
		ContentLength: aws.Int64(int64(len(sealed))),
	})
	if err != nil {
		return fail("upload to s3", err)
	}

	size := int64(len(sealed))
	if err := m.backups.UpdateCompleted(ctx, record.ID, size); err != nil {
		m.logger.Warn("failed to mark backup completed", "id", record.ID, "error", err)
	}

	now := m.now().UTC()
	m.setStatus(Status{State: StateIdle, LastBackup: &now})
	m.logger.Info("backup uploaded", "key", record.ObjectKey, "size", size)

	record.Status = model.BackupStatusCompleted
	record.SizeBytes = size
	record.CompletedAt = &now
	return record, nil
}

// List returns recorded backups, newest first.
func (m *Manager) List(ctx context.Context, limit int) ([]model.BackupRecord, error) {
	return m.backups.List(ctx, limit)
}

// Restore downloads a backup, decrypts it and imports it. ref is a backup
// record id or, for backups made on another machine, an object key.
func (m *Manager) Restore(ctx context.Context, ref, passphrase string) ([]store.Key, error) {
	client, bucket, err := m.clientAndBucket()
	if err != nil {
		return nil, err
	}
	if passphrase == "" {
		return nil, ErrPassphraseRequired
	}

	key := ref
	record, err := m.backups.GetByID(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("get backup: %w", err)
	}
	if record != nil {
		key = record.ObjectKey
	}

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("download from s3: %w", err)
	}
	defer result.Body.Close()

	sealed, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("read backup: %w", err)
	}

	data, err := Decrypt(sealed, passphrase)
	if err != nil {
		return nil, err
	}

	applied, err := m.transfer.Import(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("import backup: %w", err)
	}
	m.logger.Info("backup restored", "key", key, "collections", applied)
	return applied, nil
}

// Cleanup deletes backups older than the retention period, both the records
// and the uploaded objects.
func (m *Manager) Cleanup(ctx context.Context, retentionDays int) (int, error) {
	client, bucket, err := m.clientAndBucket()
	if err != nil {
		return 0, err
	}

	before := m.now().UTC().AddDate(0, 0, -retentionDays)
	keys, err := m.backups.DeleteOlderThan(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("delete old backups: %w", err)
	}

	for _, key := range keys {
		if _, err := client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		}); err != nil {
			m.logger.Warn("failed to delete S3 object", "key", key, "error", err)
		}
	}
	return len(keys), nil
}
