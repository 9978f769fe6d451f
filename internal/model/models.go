package model

import "time"

// Kind classifies a catalog entry by the filesystem object it records.
type Kind string

const (
	KindFile    Kind = "file"
	KindFolder  Kind = "folder"
	KindSymlink Kind = "symlink"
)

// Status tracks an entry through one backup pass.
// Transitions are driven only by the backup executor:
// pending|selected -> copying -> success|failed.
type Status string

const (
	StatusPending  Status = "pending"
	StatusSelected Status = "selected"
	StatusCopying  Status = "copying"
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
)

// Entry is one filesystem object known to the catalog.
//
// Path is unique across the catalog. ParentID forms the source tree (nil
// for roots; a parent is always inserted before its children). Hash and
// ContentOwnerID are set by duplicate detection: an entry with
// ContentOwnerID set is a duplicate whose bytes live at the canonical
// owner. Ownership chains are flattened to depth one, so an owner is never
// itself a duplicate.
type Entry struct {
	ID             int64
	Name           string
	Path           string // absolute source path
	Size           int64  // bytes; 0 for folders and symlinks
	Kind           Kind
	Status         Status
	ParentID       *int64
	Hash           *string
	ContentOwnerID *int64
}

// IsDuplicate reports whether this entry's content lives at another entry.
func (e *Entry) IsDuplicate() bool {
	return e.ContentOwnerID != nil
}

// Run records one CLI operation against the catalog.
type Run struct {
	ID         int64
	Operation  string // e.g. "Scan", "FindDuplicates", "Backup"
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     string // "running", "success", or "failure"
}
