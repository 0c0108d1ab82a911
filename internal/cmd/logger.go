package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/KevinKickass/OpenPedalCore/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// setupLogger builds the process logger from the log section.
func setupLogger(lc config.LogConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch strings.ToLower(lc.Level) {
	case "debug":
		level = zapcore.DebugLevel
	case "info", "":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", lc.Level)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	encoding := "json"
	switch strings.ToLower(lc.Format) {
	case "json", "":
	case "console", "text":
		encoding = "console"
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	default:
		return nil, fmt.Errorf("invalid log format: %s (must be json or console)", lc.Format)
	}

	outputs := []string{"stderr"}
	switch output := lc.Output; {
	case output == "" || output == "stderr":
	case strings.HasSuffix(output, "/"):
		// Directory - dated log file next to stderr
		if err := os.MkdirAll(output, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		outputs = append(outputs, filepath.Join(output,
			fmt.Sprintf("openpedalcore-%s.log", time.Now().Format("2006-01-02"))))
	default:
		if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		outputs = append(outputs, output)
	}

	zc := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      outputs,
		ErrorOutputPaths: []string{"stderr"},
	}

	l, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return l, nil
}
