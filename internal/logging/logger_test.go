package logging_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tankobon/internal/config"
	"tankobon/internal/logging"
	"tankobon/internal/services"
)

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg, nil)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello from config")

	content, err := os.ReadFile(filepath.Join(cfg.Paths.LogDir, "tankobon.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "hello from config") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(content), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message with caller")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(content), "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestConsoleLoggerHeaderAndFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithJobID(context.Background(), "0123456789abcdef")
	ctx = services.WithProvider(ctx, "mangaupdates")
	component := logging.NewComponentLogger(logger, "resolver")
	logging.WithContext(ctx, component).Info("series matched",
		logging.String("extra", "value"),
		logging.String(logging.FieldEventType, "provider_match"),
	)

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus two field lines, got %q", content)
	}
	if !strings.Contains(lines[0], "INFO [resolver] Job 01234567 (mangaupdates) - series matched") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if !strings.Contains(lines[1], "event_type: provider_match") {
		t.Fatalf("expected highlighted event_type first, got %q", lines[1])
	}
	if !strings.Contains(lines[2], "extra: value") {
		t.Fatalf("expected extra field, got %q", lines[2])
	}
}

func TestJSONLoggerIncludesContextFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithJobID(context.Background(), "job-1")
	ctx = services.WithRequestID(ctx, "req-9")
	logging.WithContext(ctx, logger).Warn("slow provider")

	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var payload map[string]any
	if err := json.Unmarshal(content, &payload); err != nil {
		t.Fatalf("decode json log: %v (%q)", err, content)
	}
	if payload["level"] != "warn" {
		t.Fatalf("expected lower-case level, got %v", payload["level"])
	}
	if payload[logging.FieldJobID] != "job-1" || payload[logging.FieldCorrelationID] != "req-9" {
		t.Fatalf("missing context fields: %v", payload)
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key: %v", payload)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	hub := logging.NewStreamHub(8)
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{filepath.Join(t.TempDir(), "w.log")}, Stream: hub})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WarnWithContext(logger, "cover fetch failed", "cover_fetch")

	events, _ := hub.Tail(1)
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	fields := events[0].Fields
	if fields[logging.FieldEventType] != "cover_fetch" {
		t.Fatalf("expected event_type, got %v", fields)
	}
	if fields[logging.FieldErrorHint] == "" || fields[logging.FieldImpact] == "" {
		t.Fatalf("expected default hint and impact, got %v", fields)
	}
}

func TestErrorWithContextKeepsExplicitHint(t *testing.T) {
	hub := logging.NewStreamHub(8)
	logger, err := logging.New(logging.Options{Format: "json", OutputPaths: []string{filepath.Join(t.TempDir(), "e.log")}, Stream: hub})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	failure := services.Wrap(services.ErrTimeout, "mangaupdates", "search", "no response", nil)
	logging.ErrorWithContext(logger, "provider failed", "provider_error",
		logging.String(logging.FieldErrorHint, "raise resolver.provider_timeout"),
		logging.ErrorKind(failure),
	)

	events, _ := hub.Tail(1)
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	fields := events[0].Fields
	if fields[logging.FieldErrorHint] != "raise resolver.provider_timeout" {
		t.Fatalf("expected explicit hint to survive, got %v", fields)
	}
	if fields[logging.FieldErrorKind] != services.ErrorKind(failure) {
		t.Fatalf("expected error kind %q, got %v", services.ErrorKind(failure), fields)
	}
	if _, ok := fields[logging.FieldImpact]; ok {
		t.Fatalf("errors should not receive a default impact, got %v", fields)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), 12) {
		t.Fatal("expected nop logger to be disabled")
	}
	logging.NewComponentLogger(nil, "x").Info("ignored")
}
