package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sdejongh/replaysync/pkg/models"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if cfg.Sync.CacheFile != ".cache" {
		t.Errorf("CacheFile = %q, want .cache", cfg.Sync.CacheFile)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"empty cache file", func(c *Config) { c.Sync.CacheFile = "" }, "sync.cache_file"},
		{"negative workers", func(c *Config) { c.Performance.MaxWorkers = -1 }, "performance.max_workers"},
		{"small buffer", func(c *Config) { c.Performance.BufferSize = 512 }, "performance.buffer_size"},
		{"negative read limit", func(c *Config) { c.Performance.ReadLimit = -5 }, "performance.read_limit"},
		{"bad output format", func(c *Config) { c.Output.Format = "xml" }, "output.format"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := cfg.Validate()
			var verr *models.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if verr.Field != tt.field {
				t.Errorf("Field = %q, want %q", verr.Field, tt.field)
			}
		})
	}
}

func TestValidateRemote(t *testing.T) {
	complete := func() *Config {
		cfg := Default()
		cfg.Remote = RemoteConfig{
			Endpoint:        "http://localhost:9000",
			Region:          "us-east-1",
			Bucket:          "replays",
			AccessKeyID:     "key",
			SecretAccessKey: "secret",
		}
		cfg.Metadata.DBPath = "replays.db"
		return cfg
	}

	if err := complete().ValidateRemote(); err != nil {
		t.Fatalf("ValidateRemote() error = %v", err)
	}

	tests := []struct {
		field  string
		modify func(*Config)
	}{
		{"remote.endpoint", func(c *Config) { c.Remote.Endpoint = "" }},
		{"remote.bucket", func(c *Config) { c.Remote.Bucket = "" }},
		{"remote.access_key_id", func(c *Config) { c.Remote.AccessKeyID = "" }},
		{"remote.secret_access_key", func(c *Config) { c.Remote.SecretAccessKey = "" }},
		{"metadata.db_path", func(c *Config) { c.Metadata.DBPath = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			cfg := complete()
			tt.modify(cfg)

			var verr *models.ValidationError
			if err := cfg.ValidateRemote(); !errors.As(err, &verr) || verr.Field != tt.field {
				t.Errorf("ValidateRemote() error = %v, want missing %s", err, tt.field)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Sync.AllowedOwners = []string{"61ph3r", "Cookiezi"}
	cfg.Remote.Bucket = "replays"
	cfg.Performance.ReadLimit = 1 << 20

	if err := SaveToFile(cfg, path); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("config permissions = %o, want 600", perm)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if len(loaded.Sync.AllowedOwners) != 2 || loaded.Sync.AllowedOwners[1] != "Cookiezi" {
		t.Errorf("AllowedOwners = %v", loaded.Sync.AllowedOwners)
	}
	if loaded.Remote.Bucket != "replays" {
		t.Errorf("Bucket = %q, want replays", loaded.Remote.Bucket)
	}
	if loaded.Performance.ReadLimit != 1<<20 {
		t.Errorf("ReadLimit = %d, want %d", loaded.Performance.ReadLimit, 1<<20)
	}
}

func TestLoadFromFile_PartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "remote:\n  bucket: replays\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}
	if cfg.Remote.Bucket != "replays" {
		t.Errorf("Bucket = %q, want replays", cfg.Remote.Bucket)
	}
	if cfg.Sync.CacheFile != ".cache" || cfg.Output.Format != "human" {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestLoadFromFile_Invalid(t *testing.T) {
	dir := t.TempDir()

	badYAML := filepath.Join(dir, "bad.yaml")
	os.WriteFile(badYAML, []byte("sync: [unclosed"), 0644)
	if _, err := LoadFromFile(badYAML); err == nil {
		t.Error("expected parse error")
	}

	badValue := filepath.Join(dir, "value.yaml")
	os.WriteFile(badValue, []byte("output:\n  format: xml\n"), 0644)
	if _, err := LoadFromFile(badValue); err == nil {
		t.Error("expected validation error")
	}

	if _, err := LoadFromFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected read error")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvAccessKeyID:     "AKIA",
		EnvSecretAccessKey: "secret",
		EnvEndpoint:        "http://minio:9000",
		EnvBucket:          "osu",
		EnvDBPath:          "/var/lib/replays.db",
		EnvAllowedOwners:   " 61ph3r , ,Cookiezi",
		EnvRegion:          "",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	cfg.Remote.Bucket = "from-file"
	cfg.applyEnv(lookup)

	if cfg.Remote.AccessKeyID != "AKIA" || cfg.Remote.SecretAccessKey != "secret" {
		t.Errorf("credentials not applied: %+v", cfg.Remote)
	}
	if cfg.Remote.Endpoint != "http://minio:9000" {
		t.Errorf("Endpoint = %q", cfg.Remote.Endpoint)
	}
	if cfg.Remote.Bucket != "osu" {
		t.Errorf("Bucket = %q, want env to override file", cfg.Remote.Bucket)
	}
	if cfg.Remote.Region != "us-east-1" {
		t.Errorf("Region = %q, empty variable should keep the default", cfg.Remote.Region)
	}
	if cfg.Metadata.DBPath != "/var/lib/replays.db" {
		t.Errorf("DBPath = %q", cfg.Metadata.DBPath)
	}
	if len(cfg.Sync.AllowedOwners) != 2 || cfg.Sync.AllowedOwners[0] != "61ph3r" || cfg.Sync.AllowedOwners[1] != "Cookiezi" {
		t.Errorf("AllowedOwners = %q", cfg.Sync.AllowedOwners)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("REPLAYSYNC_TEST_DOTENV=loaded\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("REPLAYSYNC_TEST_DOTENV") })

	if err := LoadDotEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv("REPLAYSYNC_TEST_DOTENV"); got != "loaded" {
		t.Errorf("variable = %q, want loaded", got)
	}
}

func TestLoadDotEnv_DoesNotOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	os.WriteFile(path, []byte("REPLAYSYNC_TEST_KEEP=file\n"), 0600)
	t.Setenv("REPLAYSYNC_TEST_KEEP", "process")

	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv("REPLAYSYNC_TEST_KEEP"); got != "process" {
		t.Errorf("variable = %q, want process", got)
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList("a, b,,c ,")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("SplitList() = %q", got)
	}
	if SplitList("") != nil {
		t.Error("SplitList(\"\") should be nil")
	}
}
