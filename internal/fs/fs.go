package fs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

const bufferSize = 1 << 20 // 1 MiB

var bufPool = sync.Pool{
	New: func() any {
		b := make([]byte, bufferSize)
		return &b
	},
}

// chtimes is swapped out in tests to simulate filesystems without utimes.
var chtimes = os.Chtimes

// CopyFile copies srcPath to destPath byte for byte, creating missing
// destination ancestors first. The write is atomic (temp file + rename in
// the destination directory) and the source's modification time is carried
// over to the extent the target filesystem allows.
func CopyFile(srcPath, destPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	dir := filepath.Dir(destPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating destination directory: %w", err)
	}

	// Temp file in the same directory so the rename is atomic.
	tmp, err := os.CreateTemp(dir, ".eb-tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	bufp := bufPool.Get().(*[]byte)
	_, err = io.CopyBuffer(tmp, src, *bufp)
	bufPool.Put(bufp)
	if err != nil {
		tmp.Close()
		return fmt.Errorf("copying data: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, info.Mode().Perm()); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	success = true

	// Best effort: not all filesystems can represent the source mtime, and
	// the bytes are already in place.
	_ = chtimes(destPath, info.ModTime(), info.ModTime())

	return nil
}

// Symlink creates a symbolic link at linkPath pointing at target, creating
// missing ancestors of linkPath first.
func Symlink(target, linkPath string) error {
	if err := os.MkdirAll(filepath.Dir(linkPath), 0755); err != nil {
		return fmt.Errorf("creating link directory: %w", err)
	}
	if err := os.Symlink(target, linkPath); err != nil {
		return fmt.Errorf("creating symlink: %w", err)
	}
	return nil
}
