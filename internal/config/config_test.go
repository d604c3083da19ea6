package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("port = %q", cfg.Port)
	}
	if cfg.DBPath != "chorechart.db" {
		t.Errorf("db path = %q", cfg.DBPath)
	}
	if cfg.Backup.S3.Region != "us-east-1" || cfg.Backup.Prefix != "chorechart/" {
		t.Errorf("backup = %+v", cfg.Backup)
	}
	if cfg.Backup.S3.Enabled() {
		t.Error("S3 should be disabled without credentials")
	}
	if cfg.BackupRetention != 30 {
		t.Errorf("retention = %d", cfg.BackupRetention)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CHORECHART_PORT", "9090")
	t.Setenv("CHORECHART_S3_BUCKET", "chores")
	t.Setenv("CHORECHART_S3_ACCESS_KEY", "ak")
	t.Setenv("CHORECHART_S3_SECRET_KEY", "sk")
	t.Setenv("CHORECHART_ALLOWED_ORIGINS", "localhost:3000, example.com")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("port = %q", cfg.Port)
	}
	if !cfg.Backup.S3.Enabled() {
		t.Error("S3 should be enabled")
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "example.com" {
		t.Errorf("origins = %v", cfg.AllowedOrigins)
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("CHORECHART_DB_PATH=/tmp/from-file.db\nCHORECHART_LOG_LEVEL=debug\n"), 0600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("CHORECHART_LOG_LEVEL", "warn")
	t.Cleanup(func() { os.Unsetenv("CHORECHART_DB_PATH") })

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DBPath != "/tmp/from-file.db" {
		t.Errorf("db path = %q, want value from file", cfg.DBPath)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("log level = %q, environment should win over file", cfg.LogLevel)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("CHORECHART_PORT", "eighty")
	if _, err := Load(""); err == nil {
		t.Error("expected error for non-numeric port")
	}
}
