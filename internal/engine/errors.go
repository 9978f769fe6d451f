package engine

import "errors"

var (
	// ErrCatalogNotEmpty is returned by Scan when the catalog already holds
	// entries. Re-scanning over an existing catalog is not supported; the
	// caller must Reset first.
	ErrCatalogNotEmpty = errors.New("catalog is not empty: reset before scanning")

	// ErrEmptySelection is returned by Backup when no entries are selected.
	ErrEmptySelection = errors.New("no entries selected for backup")

	// ErrInsufficientSpace is returned by Backup when the destination does
	// not have room for the selected entries. Nothing is mutated.
	ErrInsufficientSpace = errors.New("insufficient free space at destination")
)
