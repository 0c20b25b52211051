package utils

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel names accepted on the command line.
const (
	TRACE    = "trace"
	DEBUG    = "debug"
	INFO     = "info"
	WARN     = "warn"
	ERROR    = "error"
	CRITICAL = "critical"
)

// ParseLevel maps trace|debug|info|warn|error|critical onto zap levels.
// Trace has no zap counterpart and logs at debug. Unknown names fall back
// to info.
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case TRACE, DEBUG:
		return zapcore.DebugLevel
	case INFO:
		return zapcore.InfoLevel
	case WARN, "warning":
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	case CRITICAL:
		return zapcore.DPanicLevel
	default:
		return zapcore.InfoLevel
	}
}

// NewLogger builds a logger appending JSON lines to filePath and, when
// alsoConsole is set, console lines to stderr. An empty filePath logs to
// the console only. Stdout is left to command output.
func NewLogger(filePath string, level zapcore.Level, alsoConsole bool) (*zap.Logger, error) {
	enabled := zap.NewAtomicLevelAt(level)
	var cores []zapcore.Core

	if filePath != "" {
		f, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		enc := zap.NewProductionEncoderConfig()
		enc.EncodeTime = zapcore.RFC3339NanoTimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.Lock(f), enabled))
	}
	if alsoConsole || filePath == "" {
		enc := zap.NewDevelopmentEncoderConfig()
		enc.EncodeTime = zapcore.RFC3339NanoTimeEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stderr), enabled))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}
