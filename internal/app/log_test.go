package app

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestTabHandler(t *testing.T) {
	t.Run("formats records as tab-separated fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(&tabHandler{out: &buf, opID: "20260829120000"})

		logger.Info("backup started", "entries", 42)

		line := strings.TrimSuffix(buf.String(), "\n")
		fields := strings.Split(line, "\t")
		if len(fields) != 5 {
			t.Fatalf("field count = %d (%q), want 5", len(fields), line)
		}
		if fields[1] != "INFO" {
			t.Errorf("level field = %q, want INFO", fields[1])
		}
		if fields[2] != "20260829120000" {
			t.Errorf("op field = %q", fields[2])
		}
		if fields[3] != "backup started" {
			t.Errorf("message field = %q", fields[3])
		}
		if fields[4] != "entries=42" {
			t.Errorf("attr field = %q, want entries=42", fields[4])
		}
	})

	t.Run("carries WithAttrs attributes on every record", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(&tabHandler{out: &buf, opID: "op"}).With("host", "test-host")

		logger.Warn("low space")

		if !strings.Contains(buf.String(), "\thost=test-host") {
			t.Errorf("output missing pre-set attr: %q", buf.String())
		}
		if !strings.Contains(buf.String(), "\tWARN\t") {
			t.Errorf("output missing level: %q", buf.String())
		}
	})
}
