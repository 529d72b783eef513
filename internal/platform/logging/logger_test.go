package logging

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_ConvertsKeyValuesToFields(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	logger := FromZap(zap.New(core))

	logger.WarnContext(context.Background(), "provider failed", "provider", "api_sports", "error", errors.New("boom"), "dangling")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got=%d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["provider"] != "api_sports" {
		t.Fatalf("unexpected provider field: %v", fields["provider"])
	}
	if fields["error"] != "boom" {
		t.Fatalf("unexpected error field: %v", fields["error"])
	}
	if _, ok := fields["dangling"]; !ok {
		t.Fatalf("expected dangling key to be kept")
	}
}

func TestLogger_RespectsLevel(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	logger := FromZap(zap.New(core)).With("component", "test")

	logger.Debug("hidden")
	logger.Info("shown")

	if logs.Len() != 1 {
		t.Fatalf("expected one entry above debug, got=%d", logs.Len())
	}
	if got := logs.All()[0].ContextMap()["component"]; got != "test" {
		t.Fatalf("expected With fields to be kept, got %v", got)
	}
}

func TestNewJSON_WritesFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger := NewJSON(LevelInfo, FileSink{Path: path}, FileSink{})
	logger.Info("hello", "k", "v")
	_ = logger.Sync()

	matches, err := filepath.Glob(path + "*")
	if err != nil {
		t.Fatalf("glob log file: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("expected rotated log file at %s", path)
	}
}

func TestNilLogger_FallsBackToDefault(t *testing.T) {
	var logger *Logger
	logger.Info("no panic")
	if logger.With("k", "v") == nil {
		t.Fatalf("expected nop logger from nil receiver")
	}
}
