package catalog_test

import (
	"errors"
	"testing"

	"eb-go/internal/catalog"
	"eb-go/internal/model"
)

func newCatalog(t *testing.T) *catalog.SQLiteCatalog {
	t.Helper()
	c, err := catalog.NewSQLiteCatalog(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteCatalog() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func insertEntry(t *testing.T, c *catalog.SQLiteCatalog, e *model.Entry) *model.Entry {
	t.Helper()
	created, err := c.InsertEntry(e)
	if err != nil {
		t.Fatalf("InsertEntry(%s) error = %v", e.Path, err)
	}
	return created
}

func TestSQLiteCatalog_InsertEntry(t *testing.T) {
	t.Run("assigns ids in insertion order", func(t *testing.T) {
		c := newCatalog(t)

		first := insertEntry(t, c, &model.Entry{
			Name: "docs", Path: "/src/docs", Kind: model.KindFolder, Status: model.StatusPending,
		})
		second := insertEntry(t, c, &model.Entry{
			Name: "a.txt", Path: "/src/docs/a.txt", Size: 10, Kind: model.KindFile,
			Status: model.StatusPending, ParentID: &first.ID,
		})

		if first.ID == 0 || second.ID <= first.ID {
			t.Errorf("ids = %d, %d; want increasing non-zero", first.ID, second.ID)
		}
	})

	t.Run("rejects duplicate paths", func(t *testing.T) {
		c := newCatalog(t)

		insertEntry(t, c, &model.Entry{
			Name: "a.txt", Path: "/src/a.txt", Kind: model.KindFile, Status: model.StatusPending,
		})

		_, err := c.InsertEntry(&model.Entry{
			Name: "a.txt", Path: "/src/a.txt", Kind: model.KindFile, Status: model.StatusPending,
		})
		if !errors.Is(err, catalog.ErrPathExists) {
			t.Errorf("InsertEntry() error = %v, want ErrPathExists", err)
		}
	})

	t.Run("round-trips nullable fields", func(t *testing.T) {
		c := newCatalog(t)

		owner := insertEntry(t, c, &model.Entry{
			Name: "orig.bin", Path: "/src/orig.bin", Size: 2048, Kind: model.KindFile,
			Status: model.StatusPending,
		})
		hash := "abc123"
		dup := insertEntry(t, c, &model.Entry{
			Name: "copy.bin", Path: "/src/copy.bin", Size: 2048, Kind: model.KindFile,
			Status: model.StatusPending, Hash: &hash, ContentOwnerID: &owner.ID,
		})

		got, err := c.FindEntryByID(dup.ID)
		if err != nil {
			t.Fatalf("FindEntryByID() error = %v", err)
		}
		if got.Hash == nil || *got.Hash != hash {
			t.Errorf("Hash = %v, want %q", got.Hash, hash)
		}
		if got.ContentOwnerID == nil || *got.ContentOwnerID != owner.ID {
			t.Errorf("ContentOwnerID = %v, want %d", got.ContentOwnerID, owner.ID)
		}
	})
}

func TestSQLiteCatalog_Lookups(t *testing.T) {
	t.Run("find by path", func(t *testing.T) {
		c := newCatalog(t)
		insertEntry(t, c, &model.Entry{
			Name: "a.txt", Path: "/src/a.txt", Kind: model.KindFile, Status: model.StatusPending,
		})

		got, err := c.FindEntryByPath("/src/a.txt")
		if err != nil {
			t.Fatalf("FindEntryByPath() error = %v", err)
		}
		if got == nil || got.Name != "a.txt" {
			t.Errorf("FindEntryByPath() = %v, want a.txt", got)
		}
	})

	t.Run("missing entries return nil without error", func(t *testing.T) {
		c := newCatalog(t)

		byPath, err := c.FindEntryByPath("/nope")
		if err != nil || byPath != nil {
			t.Errorf("FindEntryByPath() = %v, %v; want nil, nil", byPath, err)
		}
		byID, err := c.FindEntryByID(42)
		if err != nil || byID != nil {
			t.Errorf("FindEntryByID() = %v, %v; want nil, nil", byID, err)
		}
	})

	t.Run("children of a parent", func(t *testing.T) {
		c := newCatalog(t)
		parent := insertEntry(t, c, &model.Entry{
			Name: "docs", Path: "/src/docs", Kind: model.KindFolder, Status: model.StatusPending,
		})
		insertEntry(t, c, &model.Entry{
			Name: "a.txt", Path: "/src/docs/a.txt", Kind: model.KindFile,
			Status: model.StatusPending, ParentID: &parent.ID,
		})
		insertEntry(t, c, &model.Entry{
			Name: "b.txt", Path: "/src/docs/b.txt", Kind: model.KindFile,
			Status: model.StatusPending, ParentID: &parent.ID,
		})
		insertEntry(t, c, &model.Entry{
			Name: "other", Path: "/src/other", Kind: model.KindFolder, Status: model.StatusPending,
		})

		children, err := c.FindChildren(parent.ID)
		if err != nil {
			t.Fatalf("FindChildren() error = %v", err)
		}
		if len(children) != 2 {
			t.Errorf("FindChildren() returned %d entries, want 2", len(children))
		}
	})
}

func TestSQLiteCatalog_StatusQueries(t *testing.T) {
	c := newCatalog(t)

	insertEntry(t, c, &model.Entry{
		Name: "a", Path: "/a", Kind: model.KindFile, Status: model.StatusPending,
	})
	b := insertEntry(t, c, &model.Entry{
		Name: "b", Path: "/b", Kind: model.KindFile, Status: model.StatusPending,
	})
	insertEntry(t, c, &model.Entry{
		Name: "c", Path: "/c", Kind: model.KindFile, Status: model.StatusPending,
	})

	if err := c.UpdateEntryStatus(b.ID, model.StatusSuccess); err != nil {
		t.Fatalf("UpdateEntryStatus() error = %v", err)
	}

	pending, err := c.FindEntriesByStatus(model.StatusPending)
	if err != nil {
		t.Fatalf("FindEntriesByStatus() error = %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("pending entries = %d, want 2", len(pending))
	}

	count, err := c.CountEntriesByStatus(model.StatusPending, model.StatusFailed, model.StatusCopying)
	if err != nil {
		t.Fatalf("CountEntriesByStatus() error = %v", err)
	}
	if count != 2 {
		t.Errorf("CountEntriesByStatus() = %d, want 2", count)
	}

	total, err := c.CountEntries()
	if err != nil {
		t.Fatalf("CountEntries() error = %v", err)
	}
	if total != 3 {
		t.Errorf("CountEntries() = %d, want 3", total)
	}
}

func TestSQLiteCatalog_Updates(t *testing.T) {
	c := newCatalog(t)

	owner := insertEntry(t, c, &model.Entry{
		Name: "orig", Path: "/orig", Size: 4096, Kind: model.KindFile, Status: model.StatusPending,
	})
	dup := insertEntry(t, c, &model.Entry{
		Name: "dup", Path: "/dup", Size: 4096, Kind: model.KindFile, Status: model.StatusPending,
	})

	if err := c.UpdateEntryHash(owner.ID, "deadbeef"); err != nil {
		t.Fatalf("UpdateEntryHash() error = %v", err)
	}
	if err := c.UpdateEntryHash(dup.ID, "deadbeef"); err != nil {
		t.Fatalf("UpdateEntryHash() error = %v", err)
	}
	if err := c.UpdateEntryContentOwner(dup.ID, owner.ID); err != nil {
		t.Fatalf("UpdateEntryContentOwner() error = %v", err)
	}

	got, err := c.FindEntryByID(dup.ID)
	if err != nil {
		t.Fatalf("FindEntryByID() error = %v", err)
	}
	if got.Hash == nil || *got.Hash != "deadbeef" {
		t.Errorf("Hash = %v, want deadbeef", got.Hash)
	}
	if !got.IsDuplicate() || *got.ContentOwnerID != owner.ID {
		t.Errorf("ContentOwnerID = %v, want %d", got.ContentOwnerID, owner.ID)
	}
}

func TestSQLiteCatalog_UpdateMissingEntry(t *testing.T) {
	c := newCatalog(t)

	if err := c.UpdateEntryStatus(42, model.StatusSuccess); !errors.Is(err, catalog.ErrEntryNotFound) {
		t.Errorf("UpdateEntryStatus() error = %v, want ErrEntryNotFound", err)
	}
	if err := c.UpdateEntryHash(42, "deadbeef"); !errors.Is(err, catalog.ErrEntryNotFound) {
		t.Errorf("UpdateEntryHash() error = %v, want ErrEntryNotFound", err)
	}

	owner := insertEntry(t, c, &model.Entry{
		Name: "orig", Path: "/orig", Size: 4096, Kind: model.KindFile, Status: model.StatusPending,
	})
	if err := c.UpdateEntryContentOwner(42, owner.ID); !errors.Is(err, catalog.ErrEntryNotFound) {
		t.Errorf("UpdateEntryContentOwner() error = %v, want ErrEntryNotFound", err)
	}
}

func TestSQLiteCatalog_Reset(t *testing.T) {
	c := newCatalog(t)

	insertEntry(t, c, &model.Entry{
		Name: "a", Path: "/a", Kind: model.KindFile, Status: model.StatusPending,
	})

	if err := c.Reset(); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	count, err := c.CountEntries()
	if err != nil {
		t.Fatalf("CountEntries() error = %v", err)
	}
	if count != 0 {
		t.Errorf("CountEntries() after reset = %d, want 0", count)
	}

	// The cleared path can be inserted again.
	insertEntry(t, c, &model.Entry{
		Name: "a", Path: "/a", Kind: model.KindFile, Status: model.StatusPending,
	})
}

func TestSQLiteCatalog_Runs(t *testing.T) {
	c := newCatalog(t)

	run, err := c.CreateRun("Backup")
	if err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}
	if run.Status != "running" || run.FinishedAt != nil {
		t.Errorf("new run = %+v, want running with no finish time", run)
	}

	if err := c.FinishRun(run.ID, "success"); err != nil {
		t.Fatalf("FinishRun() error = %v", err)
	}

	runs, err := c.ListRuns(10)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("ListRuns() returned %d runs, want 1", len(runs))
	}
	if runs[0].Status != "success" || runs[0].FinishedAt == nil {
		t.Errorf("finished run = %+v, want success with finish time", runs[0])
	}
}
