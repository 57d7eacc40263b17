package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// setupTestLogger points HOME at a temp dir and resets logger + path caches.
func setupTestLogger(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("XDG_DATA_HOME", "")
	t.Setenv("XDG_STATE_HOME", "")
	Reset()
	t.Cleanup(Reset)
	return tmpDir
}

func TestInitCreatesLogFile(t *testing.T) {
	tmpDir := setupTestLogger(t)
	logPath := filepath.Join(tmpDir, "nested", "test.log")

	if err := Init(logPath); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if _, err := os.Stat(logPath); err != nil {
		t.Errorf("log file not created: %v", err)
	}
}

func TestInitIsIdempotent(t *testing.T) {
	tmpDir := setupTestLogger(t)
	first := filepath.Join(tmpDir, "first.log")
	second := filepath.Join(tmpDir, "second.log")

	if err := Init(first); err != nil {
		t.Fatalf("Init: %v", err)
	}
	// Second Init is a no-op; the second path must not be created.
	if err := Init(second); err != nil {
		t.Fatalf("second Init: %v", err)
	}
	if _, err := os.Stat(second); !os.IsNotExist(err) {
		t.Error("second Init should not have created a new log file")
	}
}

func TestWithComponentAddsField(t *testing.T) {
	tmpDir := setupTestLogger(t)
	logPath := filepath.Join(tmpDir, "component.log")

	if err := Init(logPath); err != nil {
		t.Fatalf("Init: %v", err)
	}

	log := WithComponent("git")
	log.Info("test message", "key", "value")
	Close()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "component=git") {
		t.Errorf("log missing component field: %s", content)
	}
	if !strings.Contains(content, "test message") {
		t.Errorf("log missing message: %s", content)
	}
}

func TestSetDebugTogglesLevel(t *testing.T) {
	tmpDir := setupTestLogger(t)
	logPath := filepath.Join(tmpDir, "debug.log")

	if err := Init(logPath); err != nil {
		t.Fatalf("Init: %v", err)
	}

	log := Get()
	log.Debug("hidden debug")

	SetDebug(true)
	log.Debug("visible debug")
	Close()

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)
	if strings.Contains(content, "hidden debug") {
		t.Error("debug message logged before SetDebug(true)")
	}
	if !strings.Contains(content, "visible debug") {
		t.Error("debug message not logged after SetDebug(true)")
	}
}

func TestDefaultLogPath(t *testing.T) {
	tmpDir := setupTestLogger(t)

	path, err := DefaultLogPath()
	if err != nil {
		t.Fatalf("DefaultLogPath: %v", err)
	}
	want := filepath.Join(tmpDir, ".git-clipboard", "logs", "gitclip.log")
	if path != want {
		t.Errorf("DefaultLogPath = %q, want %q", path, want)
	}
}

func TestClearLogs(t *testing.T) {
	setupTestLogger(t)

	defaultPath, err := DefaultLogPath()
	if err != nil {
		t.Fatalf("DefaultLogPath: %v", err)
	}
	if err := Init(defaultPath); err != nil {
		t.Fatalf("Init: %v", err)
	}
	Get().Info("something")
	Close()
	Reset()

	count, err := ClearLogs()
	if err != nil {
		t.Fatalf("ClearLogs: %v", err)
	}
	if count != 1 {
		t.Errorf("ClearLogs removed %d files, want 1", count)
	}

	// Clearing again finds nothing.
	count, err = ClearLogs()
	if err != nil {
		t.Fatalf("second ClearLogs: %v", err)
	}
	if count != 0 {
		t.Errorf("second ClearLogs removed %d files, want 0", count)
	}
}
