package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitLoggerConsoleOnly(t *testing.T) {
	config := DefaultLogConfig()
	if err := InitLogger(config); err != nil {
		t.Fatalf("InitLogger returned error: %v", err)
	}
	Info("console-only log line")
}

func TestInitLoggerWithFile(t *testing.T) {
	tempDir := t.TempDir()
	logFile := filepath.Join(tempDir, "keyhunter.log")

	config := DefaultLogConfig()
	config.LogFile = logFile

	if err := InitLogger(config); err != nil {
		t.Fatalf("InitLogger returned error: %v", err)
	}

	Info("info line")
	Warnf("warning %d", 1)

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if len(content) == 0 {
		t.Error("expected log file to have content")
	}
}

func TestDefaultLogConfig(t *testing.T) {
	config := DefaultLogConfig()

	if config.Level != "info" {
		t.Errorf("Level = %q, want info", config.Level)
	}
	if config.LogFile != "" {
		t.Errorf("LogFile = %q, want empty (console-only default)", config.LogFile)
	}
	if config.MaxSize != 10 {
		t.Errorf("MaxSize = %d, want 10", config.MaxSize)
	}
	if config.MaxBackups != 3 {
		t.Errorf("MaxBackups = %d, want 3", config.MaxBackups)
	}
	if config.MaxAge != 28 {
		t.Errorf("MaxAge = %d, want 28", config.MaxAge)
	}
	if !config.Compress {
		t.Error("expected compression enabled by default")
	}
}

func TestInitLoggerInvalidLevelFallsBackToInfo(t *testing.T) {
	config := DefaultLogConfig()
	config.Level = "not-a-real-level"
	if err := InitLogger(config); err != nil {
		t.Fatalf("InitLogger returned error: %v", err)
	}
}
