package logging_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mailvet/internal/logging"
	"mailvet/internal/services"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestConsoleHandlerFormatsComponentPrefix(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")

	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Path: logPath})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	component := logging.NewComponentLogger(logger, "validator")
	component.Info("suite evaluated", logging.Int("expectations", 11))

	content := readLog(t, logPath)
	if !strings.Contains(content, "INFO validator: suite evaluated") {
		t.Fatalf("expected component prefix in output, got %q", content)
	}
	if !strings.Contains(content, "expectations=11") {
		t.Fatalf("expected key=value attr in output, got %q", content)
	}
}

func TestJSONHandlerRemapsKeys(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")

	logger, err := logging.New(logging.Options{Format: "json", Level: "info", Path: logPath})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Info("run completed")

	content := readLog(t, logPath)
	for _, fragment := range []string{`"ts":`, `"level":"info"`, `"msg":"run completed"`} {
		if !strings.Contains(content, fragment) {
			t.Fatalf("expected %s in output, got %q", fragment, content)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestDebugFilteredAtInfoLevel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "level.log")

	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Path: logPath})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	logger.Debug("hidden")
	logger.Info("visible")

	content := readLog(t, logPath)
	if strings.Contains(content, "hidden") {
		t.Fatalf("expected debug line to be filtered, got %q", content)
	}
	if !strings.Contains(content, "visible") {
		t.Fatalf("expected info line in output, got %q", content)
	}
}

func TestWithContextAddsRunFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "context.log")

	logger, err := logging.New(logging.Options{Format: "console", Level: "info", Path: logPath})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := services.WithRunID(context.Background(), "run-7")
	ctx = services.WithStage(ctx, "normalize")
	logging.WithContext(ctx, logger).Info("stage started")

	content := readLog(t, logPath)
	if !strings.Contains(content, "run_id=run-7") {
		t.Fatalf("expected run_id attr, got %q", content)
	}
	if !strings.Contains(content, "stage=normalize") {
		t.Fatalf("expected stage attr, got %q", content)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("goes nowhere", logging.Error(os.ErrNotExist))
}
