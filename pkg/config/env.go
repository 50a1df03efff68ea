package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override the configuration file
const (
	EnvAccessKeyID     = "S3_KEY_ID"
	EnvSecretAccessKey = "S3_KEY"
	EnvEndpoint        = "S3_ENDPOINT"
	EnvRegion          = "S3_REGION"
	EnvBucket          = "S3_BUCKET_NAME"
	EnvDBPath          = "REPLAY_DB_PATH"
	EnvAllowedOwners   = "REPLAYSYNC_ALLOWED_OWNERS" // comma-separated
)

// LoadDotEnv loads variables from the given .env files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// ApplyEnv overrides configuration values with the environment
func (c *Config) ApplyEnv() {
	c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	set(&c.Remote.AccessKeyID, EnvAccessKeyID)
	set(&c.Remote.SecretAccessKey, EnvSecretAccessKey)
	set(&c.Remote.Endpoint, EnvEndpoint)
	set(&c.Remote.Region, EnvRegion)
	set(&c.Remote.Bucket, EnvBucket)
	set(&c.Metadata.DBPath, EnvDBPath)

	if v, ok := lookup(EnvAllowedOwners); ok && v != "" {
		c.Sync.AllowedOwners = SplitList(v)
	}
}

// SplitList splits a comma-separated list, trimming blanks
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
