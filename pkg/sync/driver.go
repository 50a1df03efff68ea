// Package sync runs one pass of the replay synchronisation: fingerprint the
// local directory, classify every file against the remote fingerprint
// snapshot and upload the new ones that belong to an allowed owner.
package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/sdejongh/replaysync/pkg/dedup"
	"github.com/sdejongh/replaysync/pkg/fingerprint"
	"github.com/sdejongh/replaysync/pkg/hashcache"
	"github.com/sdejongh/replaysync/pkg/logging"
	"github.com/sdejongh/replaysync/pkg/metadata"
	"github.com/sdejongh/replaysync/pkg/models"
	"github.com/sdejongh/replaysync/pkg/output"
	"github.com/sdejongh/replaysync/pkg/ratelimit"
	"github.com/sdejongh/replaysync/pkg/replay"
	"github.com/sdejongh/replaysync/pkg/storage"
)

// Parser extracts the header of a replay file
type Parser interface {
	Parse(data []byte) (*replay.Replay, error)
}

// Driver orchestrates a sync run
type Driver struct {
	operation *models.SyncOperation
	scanner   storage.Scanner
	store     metadata.Store
	objects   storage.ObjectStore
	parser    Parser
	allowed   mapset.Set[string]
	engine    *fingerprint.Engine
	formatter output.Formatter
	writer    io.Writer
	logger    logging.Logger
}

// Option configures a Driver
type Option func(*Driver)

// WithParser replaces the replay parser
func WithParser(p Parser) Option {
	return func(d *Driver) { d.parser = p }
}

// WithFormatter reports progress and the final summary to w
// (nil w lets the formatter pick stdout)
func WithFormatter(f output.Formatter, w io.Writer) Option {
	return func(d *Driver) {
		d.formatter = f
		d.writer = w
	}
}

// WithLogger sets the logger
func WithLogger(l logging.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDriver creates a driver for operation. objects may be nil for a dry run.
func NewDriver(
	operation *models.SyncOperation,
	scanner storage.Scanner,
	store metadata.Store,
	objects storage.ObjectStore,
	opts ...Option,
) *Driver {
	d := &Driver{
		operation: operation,
		scanner:   scanner,
		store:     store,
		objects:   objects,
		parser:    replay.NewParser(),
		allowed:   mapset.NewThreadUnsafeSet(operation.AllowedOwners...),
		logger:    logging.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}

	d.engine = fingerprint.NewEngine(
		fingerprint.WithWorkers(operation.MaxWorkers),
		fingerprint.WithBufferSize(operation.BufferSize),
		fingerprint.WithLimiter(ratelimit.NewLimiter(operation.ReadLimit)),
		fingerprint.WithFormatter(d.formatter),
		fingerprint.WithLogger(d.logger),
	)
	return d
}

// Run executes the sync. The returned report is never nil; a non-nil error
// means the run aborted and report.Status is failed or cancelled. Whatever
// was fingerprinted before an abort is still written to the hash cache.
func (d *Driver) Run(ctx context.Context) (*models.SyncReport, error) {
	op := d.operation
	report := &models.SyncReport{
		RunID:     op.ID,
		Directory: op.Directory,
		DryRun:    op.DryRun,
		StartTime: time.Now(),
	}
	logger := d.logger.WithFields(logging.Fields{"run_id": op.ID})

	logger.Info(ctx, "Starting sync run", logging.Fields{
		"directory":   op.Directory,
		"cache_file":  op.CacheFile,
		"bucket":      op.Bucket,
		"dry_run":     op.DryRun,
		"max_workers": d.engine.Workers(),
		"allowed":     d.allowed.Cardinality(),
	})

	lock, err := hashcache.Acquire(op.CacheFile)
	if err != nil {
		return d.abort(ctx, logger, report, err)
	}
	defer lock.Release()

	cache, err := hashcache.LoadOrEmpty(ctx, op.CacheFile, logger)
	if err != nil {
		return d.abort(ctx, logger, report, err)
	}
	logger.Debug(ctx, "Loaded hash cache", logging.Fields{"entries": cache.Len()})

	known, err := dedup.Build(ctx, d.store)
	if err != nil {
		return d.abort(ctx, logger, report, err)
	}
	report.Stats.RemoteKnown = known.Len()
	logger.Info(ctx, "Fetched remote fingerprints", logging.Fields{"count": known.Len()})

	files, err := d.scanner.List(ctx)
	if err != nil {
		return d.abort(ctx, logger, report, err)
	}

	jobs := make([]fingerprint.Job, len(files))
	report.Files = make([]*models.FileEntry, len(files))
	var totalBytes int64
	for i, f := range files {
		jobs[i] = fingerprint.Job{Identity: f.Identity, Path: f.Path, Size: f.Size}
		report.Files[i] = &models.FileEntry{
			Identity:     f.Identity,
			RelativePath: f.RelativePath,
			Size:         f.Size,
			ModTime:      f.ModTime,
		}
		totalBytes += f.Size
	}
	report.Stats.FilesScanned = len(files)

	if d.formatter != nil {
		d.formatter.Start(d.writer, len(files), totalBytes, d.engine.Workers())
	}

	result, err := d.engine.Run(ctx, jobs, cache)
	report.Stats.FilesHashed = result.Hashed
	report.Stats.CacheHits = result.Cached
	if err != nil {
		d.persist(ctx, logger, report, cache)
		return d.abort(ctx, logger, report, err)
	}
	logger.Info(ctx, "Fingerprinting complete", logging.Fields{
		"hashed": result.Hashed,
		"cached": result.Cached,
	})

	for _, entry := range report.Files {
		entry.Fingerprint, _ = cache.Get(entry.Identity)
	}

	d.progress(output.ProgressUpdate{Type: output.EventPassStart, TotalFiles: len(files)})

	for i, entry := range report.Files {
		if err := ctx.Err(); err != nil {
			d.persist(ctx, logger, report, cache)
			return d.abort(ctx, logger, report, err)
		}

		if err := d.syncFile(ctx, logger, report, known, entry, i+1); err != nil {
			d.persist(ctx, logger, report, cache)
			return d.abort(ctx, logger, report, err)
		}
	}

	if err := d.persist(ctx, logger, report, cache); err != nil {
		return d.abort(ctx, logger, report, err)
	}

	report.Finish()
	logger.Info(ctx, "Sync run complete", logging.Fields{
		"status":          string(report.Status),
		"known":           report.Stats.FilesKnown,
		"new":             report.Stats.FilesNew,
		"uploaded":        report.Stats.FilesUploaded,
		"skipped":         report.Stats.FilesSkipped,
		"upload_failures": report.Stats.UploadFailures,
		"record_failures": report.Stats.RecordFailures,
		"parse_failures":  report.Stats.ParseFailures,
		"duration":        report.Duration.String(),
	})

	if d.formatter != nil {
		d.formatter.Complete(report)
	}
	return report, nil
}

// syncFile moves one file to its terminal outcome. Only a local read
// failure is returned; remote failures are recorded on the entry.
func (d *Driver) syncFile(ctx context.Context, logger logging.Logger, report *models.SyncReport, known *dedup.Index, entry *models.FileEntry, position int) error {
	fields := logging.Fields{"path": entry.RelativePath, "fingerprint": entry.Fingerprint}

	if known.Contains(entry.Fingerprint) {
		d.finish(report, entry, position, models.OutcomeAlreadyKnown, nil)
		return nil
	}
	report.Stats.FilesNew++

	data, err := d.scanner.ReadFile(ctx, entry.RelativePath)
	if err != nil {
		d.progress(output.ProgressUpdate{Type: output.EventFileError, FilePath: entry.RelativePath, CurrentFile: position, Error: err})
		return fmt.Errorf("read %s: %w", entry.RelativePath, err)
	}

	rep, err := d.parser.Parse(data)
	if err != nil {
		logger.Error(ctx, "Failed to parse replay", err, fields)
		d.finish(report, entry, position, models.OutcomeParseFailed, fmt.Errorf("parse replay: %w", err))
		return nil
	}

	entry.Owner = rep.Owner()
	fields["owner"] = entry.Owner
	if entry.Owner == "" || !d.allowed.ContainsOne(entry.Owner) {
		logger.Debug(ctx, "Skipping replay of owner not on the allow-list", fields)
		d.finish(report, entry, position, models.OutcomeSkippedNotAllowed, nil)
		return nil
	}

	entry.Key = rep.ObjectKey()
	fields["key"] = entry.Key

	if d.operation.DryRun {
		logger.Info(ctx, "Would upload replay", fields)
		d.finish(report, entry, position, models.OutcomeWouldUpload, nil)
		return nil
	}

	d.progress(output.ProgressUpdate{Type: output.EventUploadStart, FilePath: entry.RelativePath, Key: entry.Key, TotalBytes: entry.Size, CurrentFile: position})

	if err := d.objects.Put(ctx, d.operation.Bucket, entry.Key, data); err != nil {
		logger.Error(ctx, "Upload failed", err, fields)
		d.finish(report, entry, position, models.OutcomeUploadFailed, err)
		return nil
	}

	if err := d.store.UpsertByFingerprint(ctx, entry.Fingerprint, metadata.NewRecord(rep, entry.Fingerprint)); err != nil {
		logger.Error(ctx, "Uploaded but failed to write record", err, fields)
		d.finish(report, entry, position, models.OutcomeRecordFailed, err)
		return nil
	}

	logger.Info(ctx, "Uploaded replay", fields)
	d.finish(report, entry, position, models.OutcomeUploaded, nil)
	return nil
}

func (d *Driver) finish(report *models.SyncReport, entry *models.FileEntry, position int, outcome models.Outcome, err error) {
	report.Record(entry, outcome, err)
	d.progress(output.ProgressUpdate{
		Type:        output.EventFileDone,
		FilePath:    entry.RelativePath,
		Key:         entry.Key,
		Outcome:     outcome,
		TotalBytes:  entry.Size,
		CurrentFile: position,
		TotalFiles:  len(report.Files),
		Error:       err,
	})
}

// persist writes the cache and records how many entries were saved
func (d *Driver) persist(ctx context.Context, logger logging.Logger, report *models.SyncReport, cache *hashcache.Cache) error {
	skipped, err := cache.Persist(d.operation.CacheFile)
	if skipped > 0 {
		logger.Warn(ctx, "Identities that cannot be stored in the hash cache were left out", logging.Fields{"count": skipped})
	}
	if err != nil {
		logger.Error(ctx, "Failed to persist hash cache", err, logging.Fields{"path": d.operation.CacheFile})
		return err
	}

	report.Stats.CacheEntriesSaved = cache.Len() - skipped
	logger.Debug(ctx, "Persisted hash cache", logging.Fields{"entries": report.Stats.CacheEntriesSaved})
	return nil
}

// abort finalises the report of a run that cannot continue
func (d *Driver) abort(ctx context.Context, logger logging.Logger, report *models.SyncReport, err error) (*models.SyncReport, error) {
	report.Status = models.StatusFailed
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		report.Status = models.StatusCancelled
	}
	report.Finish()

	logger.Error(ctx, "Sync run aborted", err, logging.Fields{"status": string(report.Status)})
	if d.formatter != nil {
		d.formatter.Error(err)
	}
	return report, err
}

func (d *Driver) progress(update output.ProgressUpdate) {
	if d.formatter != nil {
		d.formatter.Progress(update)
	}
}
