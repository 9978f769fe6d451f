package testutil

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// WriteFile creates a file (and any missing ancestors) with the given content.
func WriteFile(t *testing.T, path string, content []byte) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("creating directories for %s: %v", path, err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

// RepeatBytes returns n bytes cycling through the given pattern.
// Useful for building large files with known content.
func RepeatBytes(pattern []byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = pattern[i%len(pattern)]
	}
	return out
}

// RecordingProgress is a ProgressSink that remembers every update.
// Safe for concurrent use.
type RecordingProgress struct {
	mu       sync.Mutex
	Percents []int
	Messages []string
}

func (p *RecordingProgress) Progress(percent int, message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Percents = append(p.Percents, percent)
	p.Messages = append(p.Messages, message)
}

// Last returns the most recent percent, or -1 if none was reported.
func (p *RecordingProgress) Last() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.Percents) == 0 {
		return -1
	}
	return p.Percents[len(p.Percents)-1]
}

// Count returns the number of updates received.
func (p *RecordingProgress) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Percents)
}
