package engine

// Hasher computes a content fingerprint for a file. Implementations may use
// a size-dependent strategy; the only requirement is determinism for
// unchanged content.
type Hasher interface {
	Hash(path string, size int64) (string, error)
}

// Service is the orchestration layer coordinating the catalog, the hash
// classifier, and the filesystem to perform the scan / dedup / backup
// passes needed by the CLI.
//
// The service is single-threaded by design: scanning, hashing, and copying
// proceed one entry at a time. Long passes accept a context and check it
// between entries.
type Service struct {
	catalog    Catalog
	hasher     Hasher
	logger     Logger
	sourceRoot string // scanned mount root; destination paths re-root relative to it
	ignore     IgnoreMatcher
}

// IgnoreMatcher decides whether a scanned path should be skipped.
type IgnoreMatcher interface {
	Match(relativePath string) bool
}

// nopIgnore matches nothing.
type nopIgnore struct{}

func (nopIgnore) Match(string) bool { return false }

// NewService creates a Service with the provided dependencies.
// sourceRoot is the mount root all scanned paths live under; ignore may be
// nil, in which case nothing is skipped.
func NewService(catalog Catalog, hasher Hasher, logger Logger, sourceRoot string, ignore IgnoreMatcher) *Service {
	if ignore == nil {
		ignore = nopIgnore{}
	}
	return &Service{
		catalog:    catalog,
		hasher:     hasher,
		logger:     logger,
		sourceRoot: sourceRoot,
		ignore:     ignore,
	}
}
