// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging configures the process-wide logger: structured text
// lines to the console and to a size-rotating log file.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// maxSizeMB is the rotation threshold of the log file.
	maxSizeMB = 5
	// maxBackups bounds the number of rotated historical files kept.
	maxBackups = 3
)

var (
	mu      sync.Mutex
	loggers = map[string]*slog.Logger{}
)

// Init configures and returns the logger named name, writing to stderr
// and to the rotating file dir/name.log. Repeated calls with the same
// name return the same handle without duplicating sinks.
func Init(name, dir string) (*slog.Logger, error) {
	mu.Lock()
	defer mu.Unlock()

	if l, ok := loggers[name]; ok {
		return l, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory %s: %w", dir, err)
	}

	fileSink := &lumberjack.Logger{
		Filename:   filepath.Join(dir, name+".log"),
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
	}

	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	handler := newMultiHandler(
		slog.NewTextHandler(os.Stderr, opts),
		slog.NewTextHandler(fileSink, opts),
	)

	l := slog.New(handler)
	loggers[name] = l
	return l, nil
}

// multiHandler fans records out to every wrapped handler.
type multiHandler struct {
	handlers []slog.Handler
}

func newMultiHandler(handlers ...slog.Handler) *multiHandler {
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range m.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: next}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		next[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: next}
}
