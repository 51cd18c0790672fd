package logging_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"research2crossref/internal/config"
	"research2crossref/internal/logging"
	"research2crossref/internal/services"
)

func TestNewWritesConsoleAndFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "logs", "r2c.log")
	var console bytes.Buffer

	logger, closer, err := logging.New(logging.Options{
		Level:    "info",
		Format:   "console",
		Console:  &console,
		FilePath: logPath,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	component := logging.NewComponentLogger(logger, "workflow")
	component.Info("record submitted", logging.Args(logging.RecordAttrs("abc", "10.1234/5678")...)...)
	component.Debug("hidden at info level")
	if err := logging.CloseQuietly(closer); err != nil {
		t.Fatalf("close: %v", err)
	}

	if !strings.Contains(console.String(), "INFO workflow: record submitted cris_id=abc registration_id=10.1234/5678") {
		t.Fatalf("unexpected console output %q", console.String())
	}
	content, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one line in log file, got %d: %q", len(lines), content)
	}
	if !strings.Contains(lines[0], "record submitted") || !strings.HasPrefix(lines[0], "20") {
		t.Fatalf("expected timestamp-prefixed line, got %q", lines[0])
	}
}

func TestNewAppendsToExistingLogFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "r2c.log")
	if err := os.WriteFile(logPath, []byte("earlier line\n"), 0o644); err != nil {
		t.Fatalf("seed log: %v", err)
	}
	logger, closer, err := logging.New(logging.Options{Console: &bytes.Buffer{}, FilePath: logPath})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("later line")
	_ = closer.Close()

	content, _ := os.ReadFile(logPath)
	if !strings.HasPrefix(string(content), "earlier line\n") || !strings.Contains(string(content), "later line") {
		t.Fatalf("expected append semantics, got %q", content)
	}
}

func TestJSONConsoleFormat(t *testing.T) {
	var console bytes.Buffer
	logger, _, err := logging.New(logging.Options{Format: "json", Console: &console})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Warn("deposit rejected", logging.String(logging.FieldErrorKind, "auth"))
	out := console.String()
	for _, fragment := range []string{`"ts":`, `"level":"warn"`, `"msg":"deposit rejected"`, `"error_kind":"auth"`} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected %s in %s", fragment, out)
		}
	}
}

func TestConsoleOmitsSourceAtInfo(t *testing.T) {
	var console bytes.Buffer
	logger, _, err := logging.New(logging.Options{Level: "info", Console: &console})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("message without caller")
	if strings.Contains(console.String(), ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", console.String())
	}

	console.Reset()
	logger, _, _ = logging.New(logging.Options{Level: "debug", Console: &console})
	logger.Info("message with caller")
	if !strings.Contains(console.String(), ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", console.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewFromConfigUsesLogDir(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, closer, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	defer closer.Close()
	logger.Warn("config logger")
	if _, err := os.Stat(cfg.LogPath()); err != nil {
		t.Fatalf("expected log file at %s: %v", cfg.LogPath(), err)
	}
}

func TestWithContextAddsFields(t *testing.T) {
	var console bytes.Buffer
	base, _, err := logging.New(logging.Options{Console: &console})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	ctx := services.WithRunID(context.Background(), "run-1")
	ctx = services.WithRecordID(ctx, "abc")
	ctx = services.WithStage(ctx, "deposit")

	logging.WithContext(ctx, base).Info("stage started")
	out := console.String()
	for _, fragment := range []string{"run_id=run-1", "cris_id=abc", "stage=deposit"} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected %q in %q", fragment, out)
		}
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var console bytes.Buffer
	logger, _, err := logging.New(logging.Options{Console: &console})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logging.WarnWithContext(logger, "included paper unresolved", "doi_resolution")
	out := console.String()
	for _, fragment := range []string{"event_type=doi_resolution", "error_hint=", "impact="} {
		if !strings.Contains(out, fragment) {
			t.Fatalf("expected %q in %q", fragment, out)
		}
	}
}
