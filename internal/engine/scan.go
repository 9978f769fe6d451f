package engine

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"eb-go/internal/model"
)

// Scan recursively enumerates rootPath and inserts one catalog entry per
// discovered filesystem object, all with status pending. Parents are always
// inserted before their children (pre-order), which keeps the tree acyclic
// by construction. Folders and symlinks get size 0; symlinks are never
// followed.
//
// A directory that cannot be read is logged and skipped; its subtree is
// simply absent from the catalog. Scanning requires an empty catalog:
// the unique-path constraint makes re-scanning in place unsupported, so a
// fresh scan must be preceded by Reset. Returns the number of entries
// inserted.
func (s *Service) Scan(ctx context.Context, rootPath string) (int, error) {
	count, err := s.catalog.CountEntries()
	if err != nil {
		return 0, fmt.Errorf("checking catalog: %w", err)
	}
	if count > 0 {
		return 0, ErrCatalogNotEmpty
	}

	s.logger.Info("scan started", "root", rootPath)
	inserted, err := s.scanDirectory(ctx, rootPath, rootPath, nil)
	if err != nil {
		return inserted, err
	}
	s.logger.Info("scan complete", "entries", inserted)
	return inserted, nil
}

// scanDirectory inserts entries for the children of dirPath, recursing into
// subdirectories with the new entry's id as the parent. Only a cancelled
// context aborts the walk; per-directory read failures are logged and the
// subtree skipped.
func (s *Service) scanDirectory(ctx context.Context, rootPath, dirPath string, parentID *int64) (int, error) {
	dirents, err := os.ReadDir(dirPath)
	if err != nil {
		s.logger.Error("cannot read directory, skipping subtree", "path", dirPath, "error", err)
		return 0, nil
	}

	inserted := 0
	for _, d := range dirents {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}

		path := filepath.Join(dirPath, d.Name())
		rel, err := filepath.Rel(rootPath, path)
		if err == nil && s.ignore.Match(rel) {
			s.logger.Debug("entry ignored", "path", path)
			continue
		}

		entry := &model.Entry{
			Name:     d.Name(),
			Path:     path,
			Status:   model.StatusPending,
			ParentID: parentID,
		}

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			entry.Kind = model.KindSymlink
		case d.IsDir():
			entry.Kind = model.KindFolder
		case d.Type().IsRegular():
			entry.Kind = model.KindFile
			info, err := d.Info()
			if err != nil {
				s.logger.Error("cannot stat file, skipping", "path", path, "error", err)
				continue
			}
			entry.Size = info.Size()
		default:
			// Devices, sockets, pipes: not mirrorable.
			s.logger.Debug("unsupported entry kind, skipping", "path", path)
			continue
		}

		created, err := s.catalog.InsertEntry(entry)
		if err != nil {
			return inserted, fmt.Errorf("inserting %s: %w", path, err)
		}
		inserted++

		if created.Kind == model.KindFolder {
			n, err := s.scanDirectory(ctx, rootPath, path, &created.ID)
			inserted += n
			if err != nil {
				return inserted, err
			}
		}
	}

	return inserted, nil
}
