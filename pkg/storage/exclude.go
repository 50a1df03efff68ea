package storage

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// shouldExclude checks if a path should be excluded based on the given patterns
// Patterns support:
//   - Simple glob patterns matched on the base name: *.tmp, .*
//   - Directory patterns, at any depth: backup/
//   - Path patterns matched on the slash-separated relative path: old/*.osr
//   - Any depth: **/failed/*, old/**
func shouldExclude(relativePath string, patterns []string) bool {
	rel := strings.TrimSuffix(filepath.ToSlash(relativePath), "/")
	base := path.Base(rel)

	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		pattern = filepath.ToSlash(pattern)

		if dir, ok := strings.CutSuffix(pattern, "/"); ok {
			if matchGlob("**/"+dir, rel) || matchGlob("**/"+dir+"/**", rel) {
				return true
			}
			continue
		}

		if strings.Contains(pattern, "/") {
			if matchGlob(pattern, rel) {
				return true
			}
			continue
		}

		if matchGlob(pattern, base) {
			return true
		}
	}

	return false
}

// matchGlob reports a match; an invalid pattern matches nothing
func matchGlob(pattern, name string) bool {
	ok, err := doublestar.Match(pattern, name)
	if err != nil {
		return false
	}
	return ok
}
