package engine_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"eb-go/internal/hash"
	"eb-go/internal/testutil"
)

func TestService_FindDuplicates(t *testing.T) {
	t.Run("links identical large files to one canonical owner", func(t *testing.T) {
		root := t.TempDir()
		content := testutil.RepeatBytes([]byte("dup"), 2*hash.FullHashLimit)
		testutil.WriteFile(t, filepath.Join(root, "one", "a.bin"), content)
		testutil.WriteFile(t, filepath.Join(root, "two", "b.bin"), content)

		svc, cat := newService(t, root)
		if _, err := svc.Scan(context.Background(), root); err != nil {
			t.Fatalf("Scan() error = %v", err)
		}

		stats, err := svc.FindDuplicates(context.Background(), 1024, nil)
		if err != nil {
			t.Fatalf("FindDuplicates() error = %v", err)
		}
		if stats.Hashed != 2 || stats.Duplicates != 1 {
			t.Errorf("stats = %+v, want 2 hashed, 1 duplicate", stats)
		}

		a, _ := cat.FindEntryByPath(filepath.Join(root, "one", "a.bin"))
		b, _ := cat.FindEntryByPath(filepath.Join(root, "two", "b.bin"))
		if a.Hash == nil || b.Hash == nil || *a.Hash != *b.Hash {
			t.Fatalf("hashes = %v, %v; want equal and set", a.Hash, b.Hash)
		}

		// First-seen wins: a is canonical, b points directly at it.
		if a.IsDuplicate() {
			t.Error("canonical entry has a content owner")
		}
		if !b.IsDuplicate() || *b.ContentOwnerID != a.ID {
			t.Errorf("duplicate owner = %v, want %d", b.ContentOwnerID, a.ID)
		}
	})

	t.Run("never hashes entries at or below the threshold", func(t *testing.T) {
		root := t.TempDir()
		testutil.WriteFile(t, filepath.Join(root, "small1.txt"), []byte("same"))
		testutil.WriteFile(t, filepath.Join(root, "small2.txt"), []byte("same"))

		svc, cat := newService(t, root)
		if _, err := svc.Scan(context.Background(), root); err != nil {
			t.Fatalf("Scan() error = %v", err)
		}

		stats, err := svc.FindDuplicates(context.Background(), 4, nil)
		if err != nil {
			t.Fatalf("FindDuplicates() error = %v", err)
		}
		if stats.Hashed != 0 || stats.Duplicates != 0 {
			t.Errorf("stats = %+v, want nothing hashed or linked", stats)
		}

		e, _ := cat.FindEntryByPath(filepath.Join(root, "small1.txt"))
		if e.Hash != nil {
			t.Error("entry at threshold was hashed")
		}
	})

	t.Run("re-running hashes nothing new and keeps ownership stable", func(t *testing.T) {
		root := t.TempDir()
		content := testutil.RepeatBytes([]byte("dup"), 2*hash.FullHashLimit)
		testutil.WriteFile(t, filepath.Join(root, "a.bin"), content)
		testutil.WriteFile(t, filepath.Join(root, "b.bin"), content)

		svc, cat := newService(t, root)
		if _, err := svc.Scan(context.Background(), root); err != nil {
			t.Fatalf("Scan() error = %v", err)
		}

		if _, err := svc.FindDuplicates(context.Background(), 1024, nil); err != nil {
			t.Fatalf("first FindDuplicates() error = %v", err)
		}
		a1, _ := cat.FindEntryByPath(filepath.Join(root, "b.bin"))

		stats, err := svc.FindDuplicates(context.Background(), 1024, nil)
		if err != nil {
			t.Fatalf("second FindDuplicates() error = %v", err)
		}
		if stats.Hashed != 0 {
			t.Errorf("second run hashed %d entries, want 0", stats.Hashed)
		}

		a2, _ := cat.FindEntryByPath(filepath.Join(root, "b.bin"))
		if *a1.ContentOwnerID != *a2.ContentOwnerID {
			t.Errorf("owner changed across runs: %d vs %d", *a1.ContentOwnerID, *a2.ContentOwnerID)
		}
	})

	t.Run("continues past entries that cannot be hashed", func(t *testing.T) {
		root := t.TempDir()
		vanishing := filepath.Join(root, "vanishing.bin")
		testutil.WriteFile(t, vanishing, testutil.RepeatBytes([]byte("x"), 8192))
		testutil.WriteFile(t, filepath.Join(root, "solid.bin"), testutil.RepeatBytes([]byte("y"), 8192))

		svc, cat := newService(t, root)
		if _, err := svc.Scan(context.Background(), root); err != nil {
			t.Fatalf("Scan() error = %v", err)
		}

		// Delete one source file between scan and detection.
		if err := os.Remove(vanishing); err != nil {
			t.Fatalf("removing file: %v", err)
		}

		stats, err := svc.FindDuplicates(context.Background(), 1024, nil)
		if err != nil {
			t.Fatalf("FindDuplicates() error = %v", err)
		}
		if stats.Failed != 1 || stats.Hashed != 1 {
			t.Errorf("stats = %+v, want 1 failed, 1 hashed", stats)
		}

		gone, _ := cat.FindEntryByPath(vanishing)
		if gone.Hash != nil || gone.IsDuplicate() {
			t.Error("unhashable entry was hashed or linked")
		}
	})

	t.Run("reports progress per entry plus completion", func(t *testing.T) {
		root := t.TempDir()
		testutil.WriteFile(t, filepath.Join(root, "a.bin"), testutil.RepeatBytes([]byte("x"), 8192))
		testutil.WriteFile(t, filepath.Join(root, "b.bin"), testutil.RepeatBytes([]byte("y"), 8192))

		svc, _ := newService(t, root)
		if _, err := svc.Scan(context.Background(), root); err != nil {
			t.Fatalf("Scan() error = %v", err)
		}

		progress := &testutil.RecordingProgress{}
		if _, err := svc.FindDuplicates(context.Background(), 1024, progress); err != nil {
			t.Fatalf("FindDuplicates() error = %v", err)
		}

		if progress.Count() != 3 { // one per entry + completion
			t.Errorf("progress updates = %d, want 3", progress.Count())
		}
		if progress.Last() != 100 {
			t.Errorf("final progress = %d, want 100", progress.Last())
		}
	})

	t.Run("ignores folder and symlink entries", func(t *testing.T) {
		root := t.TempDir()
		testutil.WriteFile(t, filepath.Join(root, "sub", "a.bin"), testutil.RepeatBytes([]byte("x"), 8192))
		if err := os.Symlink(filepath.Join(root, "sub"), filepath.Join(root, "sublink")); err != nil {
			t.Fatalf("creating symlink: %v", err)
		}

		svc, cat := newService(t, root)
		if _, err := svc.Scan(context.Background(), root); err != nil {
			t.Fatalf("Scan() error = %v", err)
		}

		if _, err := svc.FindDuplicates(context.Background(), 0, nil); err != nil {
			t.Fatalf("FindDuplicates() error = %v", err)
		}

		folder, _ := cat.FindEntryByPath(filepath.Join(root, "sub"))
		link, _ := cat.FindEntryByPath(filepath.Join(root, "sublink"))
		if folder.Hash != nil || link.Hash != nil {
			t.Error("non-file entries were hashed")
		}
	})
}
