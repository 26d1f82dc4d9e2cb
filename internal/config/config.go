package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const namespace = "TASKBOARD"

// Config holds all runtime configuration, loaded from TASKBOARD_* env vars.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     string `envconfig:"DB_PORT" default:"3306"`
	DBUser     string `envconfig:"DB_USER" default:"taskboard"`
	DBPassword string `envconfig:"DB_PASSWORD" default:"taskboard"`
	DBName     string `envconfig:"DB_NAME" default:"taskboard"`

	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	GinMode  string `envconfig:"GIN_MODE" default:"debug"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	JWTSecret string        `envconfig:"JWT_SECRET" default:"default-secret-key-change-me"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"168h"`

	// Blob storage. Type "local" writes under StorageDir; "s3" uses the
	// bucket settings.
	StorageType string `envconfig:"STORAGE_TYPE" default:"local"`
	StorageDir  string `envconfig:"STORAGE_DIR" default:".taskboard/attachments"`
	S3Bucket    string `envconfig:"S3_BUCKET"`
	S3Prefix    string `envconfig:"S3_PREFIX" default:"taskboard/"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(namespace, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// SlogLevel parses LogLevel, defaulting to info on bad input.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
