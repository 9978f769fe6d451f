package engine

import (
	"context"
	"fmt"

	"eb-go/internal/model"
)

// DedupStats summarizes one duplicate-detection pass.
type DedupStats struct {
	Hashed     int // entries fingerprinted during this pass
	Duplicates int // entries newly linked to a canonical owner
	Failed     int // entries whose fingerprint could not be computed
}

// FindDuplicates fingerprints every file entry larger than sizeThreshold
// bytes and links entries with identical content to a single canonical
// owner, first-seen-wins. Entries at or below the threshold are never
// hashed and never linked: small files are not deduplicated by design.
//
// The hash-to-owner index is transient, rebuilt per invocation. Entries
// that already carry a fingerprint from an earlier pass are not re-hashed;
// they seed the index instead, so ownership stays stable across re-runs.
//
// A fingerprint failure leaves that entry unhashed and unlinked and the
// pass continues; only a cancelled context aborts it.
func (s *Service) FindDuplicates(ctx context.Context, sizeThreshold int64, progress ProgressSink) (DedupStats, error) {
	if progress == nil {
		progress = NopProgress
	}

	var stats DedupStats
	entries, err := s.catalog.AllEntries()
	if err != nil {
		return stats, fmt.Errorf("listing entries: %w", err)
	}

	s.logger.Info("duplicate detection started", "entries", len(entries), "threshold", sizeThreshold)

	// Transient index from fingerprint to canonical entry id, seeded from
	// entries hashed during earlier passes. Canonical means hashed with no
	// owner link, so first-seen-wins survives re-invocation.
	owners := make(map[string]int64)
	for _, e := range entries {
		if e.Hash != nil && !e.IsDuplicate() {
			if _, seen := owners[*e.Hash]; !seen {
				owners[*e.Hash] = e.ID
			}
		}
	}

	total := len(entries)
	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		progress.Progress(percentOf(i+1, total), fmt.Sprintf("Processing: %s", e.Name))

		if e.Kind != model.KindFile || e.Size <= sizeThreshold || e.Hash != nil {
			continue
		}

		digest, err := s.hasher.Hash(e.Path, e.Size)
		if err != nil {
			s.logger.Error("fingerprint failed", "path", e.Path, "error", err)
			stats.Failed++
			continue
		}

		if err := s.catalog.UpdateEntryHash(e.ID, digest); err != nil {
			return stats, fmt.Errorf("recording hash for %s: %w", e.Path, err)
		}
		stats.Hashed++

		if ownerID, seen := owners[digest]; seen {
			if err := s.catalog.UpdateEntryContentOwner(e.ID, ownerID); err != nil {
				return stats, fmt.Errorf("linking duplicate %s: %w", e.Path, err)
			}
			stats.Duplicates++
			s.logger.Info("duplicate found", "path", e.Path, "owner", ownerID)
		} else {
			owners[digest] = e.ID
		}
	}

	progress.Progress(100, "Finding duplicates completed")
	s.logger.Info("duplicate detection complete",
		"hashed", stats.Hashed, "duplicates", stats.Duplicates, "failed", stats.Failed)
	return stats, nil
}
