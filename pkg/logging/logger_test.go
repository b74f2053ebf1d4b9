package logging

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// setupTestDir points the package at a temporary log directory and resets
// global state so tests do not touch ~/.spreado.
func setupTestDir(t *testing.T) (cleanup func()) {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "spreado-logging-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	origLogDir := logDir
	origInitErr := initErr
	origInitOnce := initOnce
	origRunID := runID
	origRunIDOnce := runIDOnce

	logDir = tempDir
	initErr = nil
	initOnce = sync.Once{}
	initOnce.Do(func() {}) // directory already exists
	runID = ""
	runIDOnce = sync.Once{}

	return func() {
		logDir = origLogDir
		initErr = origInitErr
		initOnce = origInitOnce
		runID = origRunID
		runIDOnce = origRunIDOnce

		os.RemoveAll(tempDir)
	}
}

func TestNewLogger(t *testing.T) {
	cleanup := setupTestDir(t)
	defer cleanup()

	logger, err := NewLogger("douyin")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Close()

	if logger.component != "douyin" {
		t.Errorf("Expected component douyin, got %s", logger.component)
	}

	if logger.RunID() == "" {
		t.Error("Run ID should not be empty")
	}

	if !strings.HasSuffix(logger.LogPath(), "-spreado.log") {
		t.Errorf("Unexpected log path: %s", logger.LogPath())
	}
}

func TestLoggerWritesToFile(t *testing.T) {
	cleanup := setupTestDir(t)
	defer cleanup()

	logger, err := NewLogger("pipeline")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	logger.Infof("opening %s", "https://example.test/upload")
	logger.Warnf("tag %q not applied", "标签")
	logger.Close()

	data, err := os.ReadFile(logger.LogPath())
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	content := string(data)
	for _, want := range []string{"[pipeline]", "[INFO]", "[WARN]", "opening https://example.test/upload", `tag "标签" not applied`} {
		if !strings.Contains(content, want) {
			t.Errorf("Log file missing %q:\n%s", want, content)
		}
	}
}

func TestComponentsShareOneFile(t *testing.T) {
	cleanup := setupTestDir(t)
	defer cleanup()

	auth, err := NewLogger("auth")
	if err != nil {
		t.Fatalf("Failed to create auth logger: %v", err)
	}
	defer auth.Close()

	pipeline, err := NewLogger("pipeline")
	if err != nil {
		t.Fatalf("Failed to create pipeline logger: %v", err)
	}
	defer pipeline.Close()

	if auth.LogPath() != pipeline.LogPath() {
		t.Errorf("Loggers of one run should share a file: %s vs %s", auth.LogPath(), pipeline.LogPath())
	}

	if auth.RunID() != pipeline.RunID() {
		t.Error("Loggers of one run should share a run ID")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	cleanup := setupTestDir(t)
	defer cleanup()

	logger, err := NewLogger("auth")
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}

	if err := logger.Close(); err != nil {
		t.Errorf("First close failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("Second close failed: %v", err)
	}
}

func TestGetLogDirectory(t *testing.T) {
	cleanup := setupTestDir(t)
	defer cleanup()

	dir, err := GetLogDirectory()
	if err != nil {
		t.Fatalf("GetLogDirectory failed: %v", err)
	}

	if _, err := os.Stat(filepath.Clean(dir)); err != nil {
		t.Errorf("Log directory does not exist: %v", err)
	}
}
