package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATA_DIR", "")
	t.Setenv("API_URL", "")

	cfg := Load()

	if cfg.APIURL != "http://servidor-central:8000" {
		t.Errorf("expected default API URL, got %q", cfg.APIURL)
	}
	if cfg.ScreenWidth != 320 || cfg.ScreenHeight != 240 {
		t.Errorf("expected 320x240, got %dx%d", cfg.ScreenWidth, cfg.ScreenHeight)
	}
	if cfg.TimeoutVerification != 30*time.Second || cfg.TimeoutFacial != 20*time.Second || cfg.TimeoutResult != 5*time.Second {
		t.Errorf("unexpected screen timeouts %v %v %v", cfg.TimeoutVerification, cfg.TimeoutFacial, cfg.TimeoutResult)
	}
	if cfg.DatabasePath != filepath.Join("data", "records.db") {
		t.Errorf("unexpected database path %q", cfg.DatabasePath)
	}
	if len(cfg.EnrollStepDelays) != 3 {
		t.Errorf("expected 3 enroll delays, got %d", len(cfg.EnrollStepDelays))
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("TERMINAL_ID", "TERMINAL_042")
	t.Setenv("FRAME_RATE", "15")
	t.Setenv("SYNC_RATE", "0.5")
	t.Setenv("DATA_DIR", "/var/lib/kiosk")
	t.Setenv("INPUT_DEVICES", " /dev/input/event1, ,/dev/input/event2")

	cfg := Load()

	if cfg.TerminalID != "TERMINAL_042" {
		t.Errorf("TerminalID = %q", cfg.TerminalID)
	}
	if cfg.FrameRate != 15 {
		t.Errorf("FrameRate = %d", cfg.FrameRate)
	}
	if cfg.SyncRate != 0.5 {
		t.Errorf("SyncRate = %v", cfg.SyncRate)
	}
	if cfg.DatabasePath != "/var/lib/kiosk/records.db" || cfg.LogDirectory != "/var/lib/kiosk/logs" {
		t.Errorf("paths not derived from DATA_DIR: %q %q", cfg.DatabasePath, cfg.LogDirectory)
	}
	if len(cfg.InputDevices) != 2 || cfg.InputDevices[1] != "/dev/input/event2" {
		t.Errorf("InputDevices = %v", cfg.InputDevices)
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", time.Minute},
		{"1500ms", 1500 * time.Millisecond},
		{"30", 30 * time.Second},
		{"2.5", 2500 * time.Millisecond},
		{"soon", time.Minute},
	}

	for _, tt := range tests {
		t.Setenv("TEST_DURATION", tt.value)
		if got := getEnvAsDuration("TEST_DURATION", time.Minute); got != tt.want {
			t.Errorf("getEnvAsDuration(%q) = %v, expected %v", tt.value, got, tt.want)
		}
	}
}

func TestGetEnvAsInt_InvalidFallsBack(t *testing.T) {
	t.Setenv("TEST_INT", "abc")
	if got := getEnvAsInt("TEST_INT", 7); got != 7 {
		t.Errorf("expected fallback 7, got %d", got)
	}
}

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad url", func(c *Config) { c.APIURL = "not a url" }},
		{"missing terminal", func(c *Config) { c.TerminalID = "" }},
		{"zero frame rate", func(c *Config) { c.FrameRate = 0 }},
		{"zero facial timeout", func(c *Config) { c.TimeoutFacial = 0 }},
		{"monitor port out of range", func(c *Config) { c.MonitorPort = 70000 }},
	}

	for _, tt := range tests {
		cfg := Load()
		tt.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", tt.name)
		}
	}
}
