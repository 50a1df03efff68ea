package storage

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sdejongh/replaysync/internal/platform"
)

// Local scans a directory of the local filesystem
type Local struct {
	root      string // as given, used for identities
	rootPath  string // absolute
	recursive bool
	exclude   []string
}

// LocalOption configures a Local scanner
type LocalOption func(*Local)

// WithRecursive descends into subdirectories
func WithRecursive(recursive bool) LocalOption {
	return func(l *Local) {
		l.recursive = recursive
	}
}

// WithExclude skips paths matching any of the patterns
func WithExclude(patterns []string) LocalOption {
	return func(l *Local) {
		l.exclude = patterns
	}
}

// NewLocal creates a scanner rooted at rootPath
func NewLocal(rootPath string, opts ...LocalOption) (*Local, error) {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to access path: %w", err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", absPath)
	}

	l := &Local{
		root:     platform.NormalizePath(rootPath),
		rootPath: absPath,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Root returns the absolute path of the scanned directory
func (l *Local) Root() string {
	return l.rootPath
}

// List returns the regular files under the root in lexical order.
// Symlinks are followed to files but not to directories.
func (l *Local) List(ctx context.Context) ([]FileInfo, error) {
	var files []FileInfo

	err := filepath.WalkDir(l.rootPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if p == l.rootPath {
			return nil
		}

		relPath, err := filepath.Rel(l.rootPath, p)
		if err != nil {
			return err
		}

		if d.IsDir() {
			if !l.recursive || shouldExclude(relPath, l.exclude) {
				return filepath.SkipDir
			}
			return nil
		}

		if shouldExclude(relPath, l.exclude) {
			return nil
		}

		info, err := os.Stat(p)
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		files = append(files, FileInfo{
			Identity:     platform.Identity(l.root, relPath),
			Path:         p,
			RelativePath: relPath,
			Size:         info.Size(),
			ModTime:      info.ModTime(),
		})
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	return files, nil
}

// ReadFile returns the content of a file relative to the root
func (l *Local) ReadFile(ctx context.Context, relativePath string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(l.rootPath, relativePath))
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

var _ Scanner = (*Local)(nil)
