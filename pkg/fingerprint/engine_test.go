package fingerprint

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/sdejongh/replaysync/pkg/hashcache"
	"github.com/sdejongh/replaysync/pkg/ratelimit"
)

// Known SHA-256 hashes
const (
	helloWorldHash = "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	emptyHash      = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
)

func writeFiles(t *testing.T, dir string, files map[string]string) []Job {
	t.Helper()
	var jobs []Job
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
		jobs = append(jobs, Job{Identity: path, Path: path, Size: int64(len(content))})
	}
	return jobs
}

func TestHashing(t *testing.T) {
	t.Run("Bytes", func(t *testing.T) {
		if got := Bytes([]byte("hello world")); got != helloWorldHash {
			t.Errorf("Bytes() = %s, want %s", got, helloWorldHash)
		}
		if got := Bytes(nil); got != emptyHash {
			t.Errorf("Bytes(nil) = %s, want %s", got, emptyHash)
		}
	})

	t.Run("Reader", func(t *testing.T) {
		got, err := Reader(strings.NewReader("hello world"), make([]byte, 4))
		if err != nil {
			t.Fatalf("Reader() error = %v", err)
		}
		if got != helloWorldHash {
			t.Errorf("Reader() = %s, want %s", got, helloWorldHash)
		}
	})

	t.Run("File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "f.osr")
		os.WriteFile(path, []byte("hello world"), 0644)

		got, err := File(path)
		if err != nil {
			t.Fatalf("File() error = %v", err)
		}
		if got != helloWorldHash {
			t.Errorf("File() = %s, want %s", got, helloWorldHash)
		}
	})

	t.Run("FileMissing", func(t *testing.T) {
		if _, err := File(filepath.Join(t.TempDir(), "missing")); err == nil {
			t.Error("File() should fail for a missing file")
		}
	})

	t.Run("Valid", func(t *testing.T) {
		if !Valid(helloWorldHash) {
			t.Error("Valid() rejected a real fingerprint")
		}
		if Valid(strings.ToUpper(helloWorldHash)) {
			t.Error("Valid() accepted uppercase hex")
		}
		if Valid("abc") {
			t.Error("Valid() accepted a short string")
		}
	})
}

func TestEngine_ColdStart(t *testing.T) {
	dir := t.TempDir()
	jobs := writeFiles(t, dir, map[string]string{
		"a.osr": "hello world",
		"b.osr": "",
		"c.osr": "hello world",
	})

	cache := hashcache.New()
	engine := NewEngine(WithWorkers(2))

	result, err := engine.Run(context.Background(), jobs, cache)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.Hashed != 3 || result.Cached != 0 {
		t.Errorf("Result = %+v, want 3 hashed, 0 cached", result)
	}
	if cache.Len() != 3 {
		t.Fatalf("cache Len() = %d, want 3", cache.Len())
	}

	if fp, _ := cache.Get(filepath.Join(dir, "a.osr")); fp != helloWorldHash {
		t.Errorf("a.osr = %s, want %s", fp, helloWorldHash)
	}
	if fp, _ := cache.Get(filepath.Join(dir, "c.osr")); fp != helloWorldHash {
		t.Errorf("identical content should share a fingerprint, got %s", fp)
	}
	if fp, _ := cache.Get(filepath.Join(dir, "b.osr")); fp != emptyHash {
		t.Errorf("b.osr = %s, want %s", fp, emptyHash)
	}
}

func TestEngine_CachedIdentitiesAreNotRead(t *testing.T) {
	dir := t.TempDir()
	jobs := writeFiles(t, dir, map[string]string{"a.osr": "one", "b.osr": "two"})

	cache := hashcache.New()
	engine := NewEngine()
	if _, err := engine.Run(context.Background(), jobs, cache); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	opened := engine.Opened()

	result, err := engine.Run(context.Background(), jobs, cache)
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if engine.Opened() != opened {
		t.Errorf("second run opened %d files, want 0", engine.Opened()-opened)
	}
	if result.Cached != 2 || result.Hashed != 0 {
		t.Errorf("Result = %+v, want 2 cached", result)
	}
}

func TestEngine_StaleEntryTrusted(t *testing.T) {
	dir := t.TempDir()
	jobs := writeFiles(t, dir, map[string]string{"a.osr": "new content"})

	cache := hashcache.New()
	cache.Put(jobs[0].Identity, helloWorldHash)

	if _, err := NewEngine().Run(context.Background(), jobs, cache); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if fp, _ := cache.Get(jobs[0].Identity); fp != helloWorldHash {
		t.Errorf("cached fingerprint was recomputed: got %s", fp)
	}
}

func TestEngine_DeterministicAcrossPoolSizes(t *testing.T) {
	dir := t.TempDir()
	files := make(map[string]string)
	for i := 0; i < 40; i++ {
		files[fmt.Sprintf("r%02d.osr", i)] = strings.Repeat(fmt.Sprint(i%7), 1000+i)
	}
	jobs := writeFiles(t, dir, files)

	var reference map[string]string
	for _, workers := range []int{1, 3, 16} {
		cache := hashcache.New()
		if _, err := NewEngine(WithWorkers(workers)).Run(context.Background(), jobs, cache); err != nil {
			t.Fatalf("Run(workers=%d) error = %v", workers, err)
		}
		if reference == nil {
			reference = cache.Entries()
			continue
		}
		if !reflect.DeepEqual(cache.Entries(), reference) {
			t.Errorf("workers=%d produced a different cache", workers)
		}
	}
}

func TestEngine_ReadErrorAborts(t *testing.T) {
	dir := t.TempDir()
	jobs := writeFiles(t, dir, map[string]string{"a.osr": "ok"})
	missing := filepath.Join(dir, "missing.osr")
	jobs = append(jobs, Job{Identity: missing, Path: missing})

	cache := hashcache.New()
	_, err := NewEngine(WithWorkers(1)).Run(context.Background(), jobs, cache)
	if err == nil {
		t.Fatal("Run() should fail when a file cannot be read")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want wrapped ErrNotExist", err)
	}
	if !strings.Contains(err.Error(), "missing.osr") {
		t.Errorf("error should name the file: %v", err)
	}
	if _, ok := cache.Get(missing); ok {
		t.Error("failed file must not be cached")
	}
}

func TestEngine_NoReadsAfterFailure(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.osr")
	jobs := []Job{{Identity: missing, Path: missing}}
	jobs = append(jobs, writeFiles(t, dir, map[string]string{"a.osr": "x", "b.osr": "y", "c.osr": "z"})...)

	cache := hashcache.New()
	engine := NewEngine(WithWorkers(1))
	if _, err := engine.Run(context.Background(), jobs, cache); err == nil {
		t.Fatal("Run() should fail when a file cannot be read")
	}

	if n := engine.Opened(); n != 0 {
		t.Errorf("Opened() = %d after the first job failed, want 0", n)
	}
	if cache.Len() != 0 {
		t.Errorf("cache has %d entries, want 0", cache.Len())
	}
}

func TestEngine_Cancelled(t *testing.T) {
	dir := t.TempDir()
	jobs := writeFiles(t, dir, map[string]string{"a.osr": "x", "b.osr": "y"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine().Run(ctx, jobs, hashcache.New())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestEngine_WithLimiter(t *testing.T) {
	dir := t.TempDir()
	jobs := writeFiles(t, dir, map[string]string{"a.osr": "hello world"})

	cache := hashcache.New()
	engine := NewEngine(WithLimiter(ratelimit.NewLimiter(10*1024*1024)), WithBufferSize(8192))
	if _, err := engine.Run(context.Background(), jobs, cache); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if fp, _ := cache.Get(jobs[0].Identity); fp != helloWorldHash {
		t.Errorf("fingerprint = %s, want %s", fp, helloWorldHash)
	}
}
