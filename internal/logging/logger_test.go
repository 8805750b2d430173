package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"strmsync/internal/services"
)

func TestConsoleHandlerFormatsRecord(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl, false))

	logger.Info("listing fetched", String("remote_path", "/media/shows"), Int("entries", 12))

	out := buf.String()
	for _, fragment := range []string{"INFO", "listing fetched", "remote_path=/media/shows", "entries=12"} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected %q in output %q", fragment, out)
		}
	}
}

func TestConsoleHandlerPullsComponentForward(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := NewComponentLogger(slog.New(newConsoleHandler(&buf, lvl, false)), "reconciler")

	logger.Warn("orphan removed")

	out := buf.String()
	if !strings.Contains(out, "reconciler: orphan removed") {
		t.Fatalf("expected component prefix in %q", out)
	}
	if strings.Contains(out, "component=") {
		t.Fatalf("component should not appear as key/value in %q", out)
	}
}

func TestConsoleHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl, false))

	logger.Info("msg", String("title", "The Quiet Earth"))

	if !strings.Contains(buf.String(), `title="The Quiet Earth"`) {
		t.Fatalf("expected quoted value in %q", buf.String())
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, lvl, false))

	ctx := services.WithTaskID(context.Background(), 7)
	ctx = services.WithRunID(ctx, "run-1")
	ctx = services.WithStage(ctx, "strm")

	WithContext(ctx, logger).Info("entry processed")

	out := buf.String()
	for _, fragment := range []string{"task_id=7", "run_id=run-1", "stage=strm"} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected %q in %q", fragment, out)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
