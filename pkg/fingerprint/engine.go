package fingerprint

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/sdejongh/replaysync/pkg/hashcache"
	"github.com/sdejongh/replaysync/pkg/logging"
	"github.com/sdejongh/replaysync/pkg/output"
	"github.com/sdejongh/replaysync/pkg/ratelimit"
)

// Cache is the part of the hash cache the engine needs
type Cache interface {
	Get(id string) (string, bool)
	Put(id, fp string)
}

var _ Cache = (*hashcache.Cache)(nil)

// Job is one file to fingerprint
type Job struct {
	// Identity is the cache key
	Identity string
	// Path is where the content is read from
	Path string
	// Size is only used for progress reporting
	Size int64
}

// Result summarises a run of the engine
type Result struct {
	Hashed int
	Cached int
}

// Engine fingerprints files on a bounded worker pool
type Engine struct {
	workers    int
	bufferSize int
	bufferPool *sync.Pool
	limiter    *ratelimit.Limiter
	formatter  output.Formatter
	logger     logging.Logger

	// opened counts files actually read; tests use it to check cache hits
	opened atomic.Int64
}

// Option configures an Engine
type Option func(*Engine)

// WithWorkers sets the pool size (default: one per CPU)
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithBufferSize sets the read buffer size per worker
func WithBufferSize(n int) Option {
	return func(e *Engine) {
		if n >= 4096 {
			e.bufferSize = n
		}
	}
}

// WithLimiter throttles reads across all workers
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(e *Engine) { e.limiter = l }
}

// WithFormatter reports per-file progress
func WithFormatter(f output.Formatter) Option {
	return func(e *Engine) { e.formatter = f }
}

// WithLogger sets the logger
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates a fingerprint engine
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		workers:    runtime.NumCPU(),
		bufferSize: 64 * 1024,
		logger:     logging.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}

	size := e.bufferSize
	e.bufferPool = &sync.Pool{
		New: func() interface{} {
			buf := make([]byte, size)
			return &buf
		},
	}
	return e
}

// Workers returns the pool size
func (e *Engine) Workers() int {
	return e.workers
}

// Opened returns how many files the engine has read so far
func (e *Engine) Opened() int64 {
	return e.opened.Load()
}

// Run fingerprints every job whose identity is not in cache and stores the
// result in cache. Cached identities are not read at all, even if the file
// changed since. The first read error cancels the remaining jobs and is
// returned; fingerprints computed before it stay in cache.
func (e *Engine) Run(ctx context.Context, jobs []Job, cache Cache) (Result, error) {
	var hashed, cached atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i := range jobs {
		job := jobs[i]
		index := i + 1

		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			// a job admitted after another one failed does no work
			if err := gctx.Err(); err != nil {
				return err
			}

			if _, ok := cache.Get(job.Identity); ok {
				cached.Add(1)
				e.progress(output.ProgressUpdate{Type: output.EventHashCached, FilePath: job.Identity, TotalBytes: job.Size, CurrentFile: index, TotalFiles: len(jobs)})
				return nil
			}

			e.progress(output.ProgressUpdate{Type: output.EventHashStart, FilePath: job.Identity, TotalBytes: job.Size, CurrentFile: index, TotalFiles: len(jobs)})

			fp, err := e.hash(gctx, job.Path)
			if err != nil {
				e.progress(output.ProgressUpdate{Type: output.EventFileError, FilePath: job.Identity, CurrentFile: index, TotalFiles: len(jobs), Error: err})
				return fmt.Errorf("fingerprint %s: %w", job.Identity, err)
			}

			cache.Put(job.Identity, fp)
			hashed.Add(1)

			e.logger.Debug(gctx, "Computed fingerprint", logging.Fields{"path": job.Identity, "fingerprint": fp})
			e.progress(output.ProgressUpdate{Type: output.EventHashComplete, FilePath: job.Identity, TotalBytes: job.Size, CurrentFile: index, TotalFiles: len(jobs)})
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		// a cancelled parent stops queuing without any job failing
		err = ctx.Err()
	}
	return Result{Hashed: int(hashed.Load()), Cached: int(cached.Load())}, err
}

// hash reads the whole file at path and returns its fingerprint
func (e *Engine) hash(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()
	e.opened.Add(1)

	bufPtr := e.bufferPool.Get().(*[]byte)
	defer e.bufferPool.Put(bufPtr)

	fp, err := Reader(ratelimit.NewReader(ctx, f, e.limiter), *bufPtr)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return fp, nil
}

func (e *Engine) progress(update output.ProgressUpdate) {
	if e.formatter != nil {
		e.formatter.Progress(update)
	}
}
