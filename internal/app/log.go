package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// logTimeFormat is RFC 3339 in UTC, truncated to seconds, so log lines
// sort lexically.
const logTimeFormat = "2006-01-02T15:04:05Z"

// tabHandler emits one tab-separated line per record:
//
//	timestamp  level  opID  message  key=value...
//
// Every line of one invocation carries the same opID, so a shared log file
// can be filtered down to a single operation with grep.
type tabHandler struct {
	out    io.Writer
	opID   string
	preset []slog.Attr // from With(); written before per-record attrs
}

func (h *tabHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h *tabHandler) Handle(_ context.Context, r slog.Record) error {
	var line bytes.Buffer
	line.WriteString(r.Time.UTC().Format(logTimeFormat))
	line.WriteByte('\t')
	line.WriteString(r.Level.String())
	line.WriteByte('\t')
	line.WriteString(h.opID)
	line.WriteByte('\t')
	line.WriteString(r.Message)

	for _, a := range h.preset {
		fmt.Fprintf(&line, "\t%s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(&line, "\t%s=%v", a.Key, a.Value)
		return true
	})
	line.WriteByte('\n')

	// Single write keeps lines intact on a shared writer.
	_, err := h.out.Write(line.Bytes())
	return err
}

func (h *tabHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.preset)+len(attrs))
	merged = append(merged, h.preset...)
	merged = append(merged, attrs...)
	return &tabHandler{out: h.out, opID: h.opID, preset: merged}
}

func (h *tabHandler) WithGroup(string) slog.Handler { return h }

// newLogger creates a structured logger writing to both logDir/eb.log and
// stderr. The returned file is the caller's to close.
func newLogger(logDir string, opID string) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(filepath.Join(logDir, "eb.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}

	handler := &tabHandler{out: io.MultiWriter(f, os.Stderr), opID: opID}
	return slog.New(handler), f, nil
}

// slogAdapter wraps *slog.Logger to satisfy the engine.Logger interface.
type slogAdapter struct {
	l *slog.Logger
}

func (a *slogAdapter) Debug(msg string, args ...any) { a.l.Debug(msg, args...) }
func (a *slogAdapter) Info(msg string, args ...any)  { a.l.Info(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.l.Warn(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.l.Error(msg, args...) }
