package engine

import "eb-go/internal/model"

// Catalog provides an interface for the persisted entry store.
// Every mutation must be committed atomically before the call returns;
// a concurrent reader never observes a partially-written entry.
type Catalog interface {
	// Entry operations

	// InsertEntry persists a new entry and returns it with its assigned ID.
	// Inserting a path already present in the catalog fails with an error
	// matching catalog.ErrPathExists.
	InsertEntry(entry *model.Entry) (*model.Entry, error)

	// FindEntryByID returns the entry with the given ID, or nil if absent.
	FindEntryByID(id int64) (*model.Entry, error)

	// FindEntryByPath returns the entry with the given source path, or nil if absent.
	FindEntryByPath(path string) (*model.Entry, error)

	// FindChildren returns all entries whose parent is the given entry.
	FindChildren(parentID int64) ([]*model.Entry, error)

	// AllEntries returns every entry in the catalog in insertion order.
	AllEntries() ([]*model.Entry, error)

	// FindEntriesByStatus returns all entries whose status is in the given set.
	FindEntriesByStatus(statuses ...model.Status) ([]*model.Entry, error)

	// CountEntriesByStatus counts entries whose status is in the given set.
	CountEntriesByStatus(statuses ...model.Status) (int64, error)

	// CountEntries returns the total number of entries in the catalog.
	CountEntries() (int64, error)

	// UpdateEntryStatus sets the status of one entry.
	UpdateEntryStatus(id int64, status model.Status) error

	// UpdateEntryHash records a content fingerprint on one entry.
	UpdateEntryHash(id int64, hash string) error

	// UpdateEntryContentOwner marks one entry as a duplicate of the canonical owner.
	UpdateEntryContentOwner(id int64, ownerID int64) error

	// Reset removes every entry from the catalog. This is the only teardown
	// path; entries are never deleted individually.
	Reset() error

	// Run history

	// CreateRun records the start of a CLI operation.
	CreateRun(operation string) (*model.Run, error)

	// FinishRun records the outcome of a previously created run.
	FinishRun(id int64, status string) error

	// ListRuns returns the most recent runs, newest first.
	ListRuns(limit int) ([]*model.Run, error)

	// Close closes the underlying store.
	Close() error
}
