package config

import (
	"github.com/sdejongh/replaysync/pkg/models"
)

// Config represents the application configuration
type Config struct {
	Sync        SyncConfig        `yaml:"sync"`
	Remote      RemoteConfig      `yaml:"remote"`
	Metadata    MetadataConfig    `yaml:"metadata"`
	Performance PerformanceConfig `yaml:"performance"`
	Output      OutputConfig      `yaml:"output"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// SyncConfig holds sync-related settings
type SyncConfig struct {
	AllowedOwners []string `yaml:"allowed_owners"` // Player names whose replays are uploaded
	CacheFile     string   `yaml:"cache_file"`     // Hash cache location
	Exclude       []string `yaml:"exclude"`
	Recursive     bool     `yaml:"recursive"`
}

// RemoteConfig holds the object store connection
type RemoteConfig struct {
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

// MetadataConfig holds the metadata database location
type MetadataConfig struct {
	DBPath string `yaml:"db_path"`
}

// PerformanceConfig holds performance-related settings
type PerformanceConfig struct {
	MaxWorkers int   `yaml:"max_workers"` // 0 = one per CPU
	BufferSize int   `yaml:"buffer_size"`
	ReadLimit  int64 `yaml:"read_limit"` // Fingerprint read rate in bytes/s, 0 = unlimited
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	Format   string `yaml:"format"`   // "human", "progress" or "json"
	Progress bool   `yaml:"progress"` // Use the progress bar on a terminal
	Quiet    bool   `yaml:"quiet"`    // Suppress non-error output
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Format  string `yaml:"format"` // "json" or "text"
	Level   string `yaml:"level"`  // "debug", "info", "warn", "error"
	File    string `yaml:"file"`   // Log file path (empty = stderr)
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Sync: SyncConfig{
			CacheFile: ".cache",
			Exclude: []string{
				"*.tmp",
				".*",
			},
		},
		Remote: RemoteConfig{
			Region: "us-east-1",
		},
		Performance: PerformanceConfig{
			MaxWorkers: 0,
			BufferSize: 65536,
			ReadLimit:  0,
		},
		Output: OutputConfig{
			Format:   "human",
			Progress: true,
			Quiet:    false,
		},
		Logging: LoggingConfig{
			Enabled: true,
			Format:  "text",
			Level:   "info",
			File:    "",
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Sync.CacheFile == "" {
		return &models.ValidationError{
			Field:   "sync.cache_file",
			Message: "must not be empty",
		}
	}

	if c.Performance.MaxWorkers < 0 {
		return &models.ValidationError{
			Field:   "performance.max_workers",
			Message: "must not be negative",
		}
	}

	if c.Performance.BufferSize < 4096 {
		return &models.ValidationError{
			Field:   "performance.buffer_size",
			Message: "must be at least 4096 bytes",
		}
	}

	if c.Performance.ReadLimit < 0 {
		return &models.ValidationError{
			Field:   "performance.read_limit",
			Message: "must not be negative",
		}
	}

	validFormats := map[string]bool{"human": true, "progress": true, "json": true}
	if !validFormats[c.Output.Format] {
		return &models.ValidationError{
			Field:   "output.format",
			Message: "must be 'human', 'progress', or 'json'",
		}
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return &models.ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'text'",
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return &models.ValidationError{
			Field:   "logging.level",
			Message: "must be 'debug', 'info', 'warn', or 'error'",
		}
	}

	return nil
}

// ValidateRemote checks that everything a non-dry run talks to is configured
func (c *Config) ValidateRemote() error {
	required := []struct {
		field string
		value string
	}{
		{"remote.endpoint", c.Remote.Endpoint},
		{"remote.bucket", c.Remote.Bucket},
		{"remote.access_key_id", c.Remote.AccessKeyID},
		{"remote.secret_access_key", c.Remote.SecretAccessKey},
		{"metadata.db_path", c.Metadata.DBPath},
	}

	for _, r := range required {
		if r.value == "" {
			return &models.ValidationError{
				Field:   r.field,
				Message: "is required",
			}
		}
	}

	return nil
}
