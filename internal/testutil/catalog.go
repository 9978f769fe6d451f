package testutil

import (
	"testing"

	"eb-go/internal/catalog"
	"eb-go/internal/engine"
)

// NewTestCatalog creates an in-memory SQLite catalog with schema applied.
// The catalog is automatically closed when the test completes.
func NewTestCatalog(t *testing.T) engine.Catalog {
	t.Helper()

	c, err := catalog.NewSQLiteCatalog(":memory:")
	if err != nil {
		t.Fatalf("failed to open catalog: %v", err)
	}

	t.Cleanup(func() {
		c.Close()
	})

	return c
}
