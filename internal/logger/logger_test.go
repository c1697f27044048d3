package logger

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHelpersAreNilSafe(t *testing.T) {
	saved := Logger
	Logger = nil
	defer func() { Logger = saved }()

	Debug("debug", "k", 1)
	Info("info")
	Warn("warn")
	Error("error", "err", "boom")
}

func TestInitWritesLogFile(t *testing.T) {
	saved := Logger
	defer func() { Logger = saved }()

	dir := filepath.Join(t.TempDir(), "logs")
	if err := Init(Config{Dir: dir}); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if Logger == nil {
		t.Fatal("expected Logger to be set")
	}

	Info("hello from test", "component", "logger")

	data, err := os.ReadFile(filepath.Join(dir, "habitgrid.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if len(data) == 0 {
		t.Error("expected log file to contain the message")
	}
}
