// Package app is the application layer between the CLI and the engine
// service. It constructs all dependencies from config, exposes high-level
// operations against raw string paths, and manages the catalog lifecycle
// on Close.
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"eb-go/internal/catalog"
	"eb-go/internal/config"
	"eb-go/internal/engine"
	"eb-go/internal/fs"
	"eb-go/internal/hash"
	"eb-go/internal/model"
)

// App wires the catalog, hasher, and logger into an engine.Service and
// tracks a run record for catalog-mutating operations.
type App struct {
	cfg     *config.Config
	catalog engine.Catalog
	service *engine.Service
	logger  engine.Logger
	run     *model.Run
	op      string
	logFile *os.File
}

// New creates a fully wired App from the given config. operation identifies
// the CLI command being run (e.g. "Scan", "Backup"). The caller must call
// Close when done.
func New(cfg *config.Config, operation string) (*App, error) {
	cat, err := catalog.NewCatalogFromConfig(cfg.Catalog, cfg.HostID)
	if err != nil {
		return nil, fmt.Errorf("creating catalog: %w", err)
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(cfg.LogDir, opID)
	if err != nil {
		cat.Close()
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	adapter := &slogAdapter{l: logger}
	ignore := fs.NewIgnoreMatcher(cfg.Filesystem.Ignore)
	svc := engine.NewService(cat, hash.NewClassifier(), adapter, cfg.Source.Root, ignore)

	return &App{
		cfg:     cfg,
		catalog: cat,
		service: svc,
		logger:  adapter,
		op:      operation,
		logFile: logFile,
	}, nil
}

// persistRun records the operation in the run history, once.
// Only catalog-mutating commands should call this.
func (a *App) persistRun() error {
	if a.run != nil {
		return nil // already persisted
	}
	run, err := a.catalog.CreateRun(a.op)
	if err != nil {
		return fmt.Errorf("persisting run: %w", err)
	}
	a.run = run
	return nil
}

// Scan enumerates the configured source root into the catalog.
// When reset is true the catalog is cleared first; otherwise scanning a
// non-empty catalog fails.
func (a *App) Scan(ctx context.Context, reset bool) (int, error) {
	if err := a.persistRun(); err != nil {
		return 0, err
	}
	if a.cfg.Source.Root == "" {
		return 0, fmt.Errorf("no source root configured")
	}
	if reset {
		if err := a.service.Reset(); err != nil {
			return 0, err
		}
	}
	return a.service.Scan(ctx, a.cfg.Source.Root)
}

// FindDuplicates fingerprints file entries above the threshold and links
// duplicates. A threshold <= 0 uses the configured default.
func (a *App) FindDuplicates(ctx context.Context, threshold int64, progress engine.ProgressSink) (engine.DedupStats, error) {
	if err := a.persistRun(); err != nil {
		return engine.DedupStats{}, err
	}
	if threshold <= 0 {
		threshold = a.cfg.Dedup.SizeThreshold
	}
	return a.service.FindDuplicates(ctx, threshold, progress)
}

// Backup mirrors all pending and selected entries to the configured
// destination root.
func (a *App) Backup(ctx context.Context, progress engine.ProgressSink) (engine.BackupSummary, error) {
	if err := a.persistRun(); err != nil {
		return engine.BackupSummary{}, err
	}
	selected, err := a.service.PendingEntries()
	if err != nil {
		return engine.BackupSummary{}, err
	}
	return a.service.Backup(ctx, selected, a.cfg.Destination.Root, progress)
}

// Resume re-submits only the entries a previous pass left unfinished
// (pending, failed, or copying). Completed entries are never re-copied.
func (a *App) Resume(ctx context.Context, progress engine.ProgressSink) (engine.BackupSummary, error) {
	if err := a.persistRun(); err != nil {
		return engine.BackupSummary{}, err
	}
	selected, err := a.service.UnfinishedEntries()
	if err != nil {
		return engine.BackupSummary{}, err
	}
	return a.service.Backup(ctx, selected, a.cfg.Destination.Root, progress)
}

// HasUnfinished reports whether a previous backup left work behind.
func (a *App) HasUnfinished() (bool, error) {
	return a.service.HasUnfinished()
}

// StatusCounts returns the number of entries per status.
func (a *App) StatusCounts() (map[model.Status]int64, error) {
	counts := make(map[model.Status]int64)
	for _, st := range []model.Status{
		model.StatusPending, model.StatusSelected, model.StatusCopying,
		model.StatusSuccess, model.StatusFailed,
	} {
		n, err := a.catalog.CountEntriesByStatus(st)
		if err != nil {
			return nil, err
		}
		counts[st] = n
	}
	return counts, nil
}

// History returns the most recent runs, newest first.
func (a *App) History(limit int) ([]*model.Run, error) {
	return a.catalog.ListRuns(limit)
}

// Reset clears the catalog entirely.
func (a *App) Reset() error {
	if err := a.persistRun(); err != nil {
		return err
	}
	return a.service.Reset()
}

// Close finalizes the run record (if any) and closes all resources.
func (a *App) Close() error {
	var firstErr error

	if a.run != nil {
		if err := a.catalog.FinishRun(a.run.ID, "success"); err != nil {
			firstErr = fmt.Errorf("finishing run: %w", err)
		}
	}

	if err := a.catalog.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("closing catalog: %w", err)
	}

	if a.logFile != nil {
		a.logFile.Close()
	}

	return firstErr
}
