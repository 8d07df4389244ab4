package log

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestNewLogger_WritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")

	zl, err := NewLogger(WithLogLevel("debug"), WithOutputPaths(path))
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	zl.Sugar().Debugw("hello", "score", 3)
	zl.Sync()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}

	var entry map[string]interface{}
	if err := json.Unmarshal(b, &entry); err != nil {
		t.Fatalf("expected json line, got %q: %v", b, err)
	}
	if entry["msg"] != "hello" {
		t.Errorf("expected msg hello, got %v", entry["msg"])
	}
	if entry["score"] != float64(3) {
		t.Errorf("expected score 3, got %v", entry["score"])
	}
}

func TestNewLogger_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")

	zl, err := NewLogger(WithLogLevel("warn"), WithOutputPaths(path))
	if err != nil {
		t.Fatalf("NewLogger failed: %v", err)
	}
	zl.Info("dropped")
	zl.Sync()

	b, _ := os.ReadFile(path)
	if len(b) != 0 {
		t.Errorf("expected no output below warn, got %q", b)
	}
}

func TestNewLogger_BadOptions(t *testing.T) {
	if _, err := NewLogger(WithLogLevel("loud")); err == nil {
		t.Error("expected error for unknown level")
	}
	if _, err := NewLogger(WithFormat("xml")); err == nil {
		t.Error("expected error for unknown format")
	}
}
