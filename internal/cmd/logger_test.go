package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KevinKickass/OpenPedalCore/internal/config"
	"go.uber.org/zap/zapcore"
)

func TestSetupLoggerRejectsBadSettings(t *testing.T) {
	tests := []struct {
		name string
		lc   config.LogConfig
		want string
	}{
		{"level", config.LogConfig{Level: "verbose"}, "invalid log level"},
		{"format", config.LogConfig{Level: "info", Format: "xml"}, "invalid log format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := setupLogger(tt.lc)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("setupLogger() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestSetupLoggerLevel(t *testing.T) {
	l, err := setupLogger(config.LogConfig{Level: "WARN", Format: "console"})
	if err != nil {
		t.Fatalf("setupLogger() error = %v", err)
	}
	if l.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
	if !l.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("error should be enabled at warn level")
	}
}

func TestSetupLoggerFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "server.log")

	l, err := setupLogger(config.LogConfig{Level: "info", Format: "json", Output: path})
	if err != nil {
		t.Fatalf("setupLogger() error = %v", err)
	}
	l.Info("hello file")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("log file not written: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"hello file"`) {
		t.Errorf("log file = %s", data)
	}
}

func TestSetupLoggerDirectoryOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs") + "/"

	l, err := setupLogger(config.LogConfig{Level: "debug", Output: dir})
	if err != nil {
		t.Fatalf("setupLogger() error = %v", err)
	}
	l.Debug("hello dir")
	_ = l.Sync()

	matches, err := filepath.Glob(filepath.Join(dir, "openpedalcore-*.log"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("dated log files = %v (%v)", matches, err)
	}
}
