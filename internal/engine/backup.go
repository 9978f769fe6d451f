package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"eb-go/internal/fs"
	"eb-go/internal/model"
)

// BackupSummary reports the outcome of one backup pass.
type BackupSummary struct {
	Succeeded int
	Failed    int
	Linked    int // duplicates materialized as symlinks instead of copies
}

// Backup mirrors the selected entries under destRoot, marking each entry
// success or failed in the catalog as it goes. Destination paths re-root
// each entry's source path relative to the service's source root.
//
// Preconditions, checked before any catalog or filesystem mutation: the
// selection must be non-empty and destRoot must have free space for the
// summed sizes of the selection. On genuine exhaustion mid-pass individual
// entries fail; the batch is never aborted by one entry.
//
// Duplicates (entries with a canonical owner) are materialized as symbolic
// links pointing at the owner's destination path, so the owner's content
// must be selected alongside or already present. When the owner cannot be
// resolved, or link creation fails, the entry falls back to a full copy.
func (s *Service) Backup(ctx context.Context, selected []*model.Entry, destRoot string, progress ProgressSink) (BackupSummary, error) {
	if progress == nil {
		progress = NopProgress
	}

	var summary BackupSummary
	if len(selected) == 0 {
		return summary, ErrEmptySelection
	}

	var required int64
	for _, e := range selected {
		required += e.Size
	}
	free, err := s.FreeSpace(destRoot)
	if err != nil {
		return summary, fmt.Errorf("checking destination space: %w", err)
	}
	if free < required {
		return summary, fmt.Errorf("%w: need %d bytes, have %d", ErrInsufficientSpace, required, free)
	}

	s.logger.Info("backup started", "entries", len(selected), "destination", destRoot)

	total := len(selected)
	for i, e := range selected {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		progress.Progress(percentOf(i+1, total), fmt.Sprintf("Copying: %s", e.Name))

		if err := s.catalog.UpdateEntryStatus(e.ID, model.StatusCopying); err != nil {
			return summary, fmt.Errorf("marking %s copying: %w", e.Path, err)
		}

		linked, err := s.materialize(e, destRoot)
		if err != nil {
			s.logger.Error("backup failed for entry", "path", e.Path, "error", err)
			if err := s.catalog.UpdateEntryStatus(e.ID, model.StatusFailed); err != nil {
				return summary, fmt.Errorf("marking %s failed: %w", e.Path, err)
			}
			summary.Failed++
			continue
		}

		if err := s.catalog.UpdateEntryStatus(e.ID, model.StatusSuccess); err != nil {
			return summary, fmt.Errorf("marking %s success: %w", e.Path, err)
		}
		summary.Succeeded++
		if linked {
			summary.Linked++
		}
	}

	progress.Progress(100, "Backup completed")
	s.logger.Info("backup complete",
		"succeeded", summary.Succeeded, "failed", summary.Failed, "linked", summary.Linked)
	return summary, nil
}

// materialize produces one entry's counterpart in the destination tree.
// Returns true when a duplicate was materialized as a link.
func (s *Service) materialize(e *model.Entry, destRoot string) (bool, error) {
	dest, err := s.destPath(e.Path, destRoot)
	if err != nil {
		return false, err
	}

	switch e.Kind {
	case model.KindFolder:
		if err := os.MkdirAll(dest, 0755); err != nil {
			return false, fmt.Errorf("creating directory: %w", err)
		}
		return false, nil

	case model.KindFile:
		if e.IsDuplicate() {
			return s.materializeDuplicate(e, dest, destRoot)
		}
		return false, fs.CopyFile(e.Path, dest)

	case model.KindSymlink:
		return false, s.materializeSymlink(e, dest)

	default:
		return false, fmt.Errorf("unknown entry kind: %s", e.Kind)
	}
}

// materializeDuplicate links dest at the canonical owner's destination path.
// Dedup lives in the destination tree: the link target is where the owner's
// bytes were (or will be) copied, not the owner's source path. An
// unresolvable owner or a failing link falls back to a full copy.
func (s *Service) materializeDuplicate(e *model.Entry, dest, destRoot string) (bool, error) {
	owner, err := s.catalog.FindEntryByID(*e.ContentOwnerID)
	if err != nil {
		return false, fmt.Errorf("resolving content owner: %w", err)
	}
	if owner == nil {
		s.logger.Warn("content owner missing, copying in full", "path", e.Path, "owner", *e.ContentOwnerID)
		return false, fs.CopyFile(e.Path, dest)
	}

	ownerDest, err := s.destPath(owner.Path, destRoot)
	if err != nil {
		return false, err
	}

	if err := fs.Symlink(ownerDest, dest); err != nil {
		s.logger.Warn("dedup link failed, copying in full", "path", e.Path, "error", err)
		return false, fs.CopyFile(e.Path, dest)
	}
	return true, nil
}

// materializeSymlink recreates a source symlink at dest with the same
// target. Any link failure falls back to a full copy of the target content.
func (s *Service) materializeSymlink(e *model.Entry, dest string) error {
	target, err := os.Readlink(e.Path)
	if err != nil {
		s.logger.Warn("cannot read link target, copying content", "path", e.Path, "error", err)
		return fs.CopyFile(e.Path, dest)
	}

	if err := fs.Symlink(target, dest); err != nil {
		s.logger.Warn("symlink recreation failed, copying content", "path", e.Path, "error", err)
		// Opening the source symlink follows it, so this copies the target's bytes.
		return fs.CopyFile(e.Path, dest)
	}
	return nil
}

// destPath re-roots a source path under destRoot, preserving the path
// relative to the scanned mount root.
func (s *Service) destPath(srcPath, destRoot string) (string, error) {
	rel, err := filepath.Rel(s.sourceRoot, srcPath)
	if err != nil {
		return "", fmt.Errorf("re-rooting %s: %w", srcPath, err)
	}
	return filepath.Join(destRoot, rel), nil
}

// FreeSpace returns the bytes available on the filesystem holding path.
func (s *Service) FreeSpace(path string) (int64, error) {
	return fs.FreeSpace(path)
}
