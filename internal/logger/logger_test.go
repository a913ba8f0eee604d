package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"kiosk/internal/config"
)

func TestLogger_WritesPerLevelFiles(t *testing.T) {
	dir := t.TempDir()
	log := NewLogger(&config.Config{LogDirectory: dir})

	log.Info("terminal %s ready", "T1")
	log.Warning("camera slow")
	log.Error("reader gone")
	if err := log.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	tests := []struct {
		file string
		want string
	}{
		{"info.log", "terminal T1 ready"},
		{"warning.log", "camera slow"},
		{"error.log", "reader gone"},
	}

	for _, tt := range tests {
		data, err := os.ReadFile(filepath.Join(dir, tt.file))
		if err != nil {
			t.Fatalf("reading %s: %v", tt.file, err)
		}
		if !strings.Contains(string(data), tt.want) {
			t.Errorf("%s: expected %q in %q", tt.file, tt.want, data)
		}
	}
}

func TestLogger_CleanLogs(t *testing.T) {
	// rotation compresses backups in the background, so cleanup ignores errors
	dir, err := os.MkdirTemp("", "kiosk-logs")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	log := NewLogger(&config.Config{LogDirectory: dir})
	defer log.Close()

	log.Warning("old warning")
	log.CleanLogs("warning.log")
	log.Warning("new warning")

	data, err := os.ReadFile(filepath.Join(dir, "warning.log"))
	if err != nil {
		t.Fatalf("reading warning.log: %v", err)
	}
	if strings.Contains(string(data), "old warning") {
		t.Error("expected rotated file to drop old entries")
	}
	if !strings.Contains(string(data), "new warning") {
		t.Error("expected new entry after rotation")
	}
}

func TestNewDiscard(t *testing.T) {
	log := NewDiscard()
	log.Info("dropped")
	log.CleanLogs("info.log")
	if err := log.Close(); err != nil {
		t.Errorf("expected nil from Close, got %v", err)
	}
}
