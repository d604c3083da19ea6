package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/dukerupert/chorechart/internal/backup"
)

const envPrefix = "CHORECHART_"

type Config struct {
	Port             string
	DBPath           string
	LogLevel         string
	LogFormat        string
	AllowedOrigins   []string
	BackupPassphrase string
	BackupRetention  int
	Backup           backup.Config
}

// Load reads configuration from the environment after applying envFile.
// A missing env file is not an error; variables already set in the
// environment win over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Port:             get("PORT", "8080"),
		DBPath:           get("DB_PATH", "chorechart.db"),
		LogLevel:         get("LOG_LEVEL", "info"),
		LogFormat:        get("LOG_FORMAT", "text"),
		AllowedOrigins:   list(get("ALLOWED_ORIGINS", "")),
		BackupPassphrase: get("BACKUP_PASSPHRASE", ""),
		Backup: backup.Config{
			S3: backup.S3Config{
				Endpoint:  get("S3_ENDPOINT", ""),
				Bucket:    get("S3_BUCKET", ""),
				Region:    get("S3_REGION", "us-east-1"),
				AccessKey: get("S3_ACCESS_KEY", ""),
				SecretKey: get("S3_SECRET_KEY", ""),
			},
			Prefix: get("S3_PREFIX", "chorechart/"),
		},
	}

	retention, err := strconv.Atoi(get("BACKUP_RETENTION_DAYS", "30"))
	if err != nil || retention < 1 {
		return nil, fmt.Errorf("invalid %sBACKUP_RETENTION_DAYS: %q", envPrefix, get("BACKUP_RETENTION_DAYS", ""))
	}
	cfg.BackupRetention = retention

	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return nil, fmt.Errorf("invalid %sPORT: %q", envPrefix, cfg.Port)
	}
	return cfg, nil
}

func get(name, fallback string) string {
	if v, ok := os.LookupEnv(envPrefix + name); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func list(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
