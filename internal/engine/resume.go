package engine

import (
	"fmt"

	"eb-go/internal/model"
)

// unfinishedStatuses are the statuses left behind by an aborted pass.
// A lingering copying status is evidence of a crash mid-copy.
var unfinishedStatuses = []model.Status{
	model.StatusPending,
	model.StatusFailed,
	model.StatusCopying,
}

// HasUnfinished reports whether a previous backup left work behind.
func (s *Service) HasUnfinished() (bool, error) {
	count, err := s.catalog.CountEntriesByStatus(unfinishedStatuses...)
	if err != nil {
		return false, fmt.Errorf("checking for unfinished entries: %w", err)
	}
	return count > 0, nil
}

// UnfinishedEntries returns the entries a resumed pass should re-submit:
// those with status pending, failed, or copying. Entries already marked
// success are left alone; resuming never restarts completed work.
func (s *Service) UnfinishedEntries() ([]*model.Entry, error) {
	entries, err := s.catalog.FindEntriesByStatus(unfinishedStatuses...)
	if err != nil {
		return nil, fmt.Errorf("listing unfinished entries: %w", err)
	}
	return entries, nil
}

// PendingEntries returns the entries a fresh backup pass should process:
// everything still pending or explicitly selected.
func (s *Service) PendingEntries() ([]*model.Entry, error) {
	entries, err := s.catalog.FindEntriesByStatus(model.StatusPending, model.StatusSelected)
	if err != nil {
		return nil, fmt.Errorf("listing pending entries: %w", err)
	}
	return entries, nil
}

// Reset clears the catalog entirely. This is the restart path: a fresh scan
// requires an empty catalog.
func (s *Service) Reset() error {
	if err := s.catalog.Reset(); err != nil {
		return fmt.Errorf("resetting catalog: %w", err)
	}
	s.logger.Info("catalog reset")
	return nil
}
