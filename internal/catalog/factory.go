package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"eb-go/internal/config"
	"eb-go/internal/engine"
)

// NewCatalogFromConfig creates a Catalog implementation based on the catalog
// config type. The hostID names the on-disk catalog file so multiple hosts
// can share a data directory.
func NewCatalogFromConfig(cfg config.CatalogConfig, hostID string) (engine.Catalog, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite catalog")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating catalog data directory: %w", err)
		}
		return NewSQLiteCatalog(filepath.Join(cfg.DataDir, hostID+".db"))
	case "memory":
		return NewSQLiteCatalog(":memory:")
	default:
		return nil, fmt.Errorf("unknown catalog type: %s", cfg.Type)
	}
}
