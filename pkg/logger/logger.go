// Package logger holds the process-wide zap logger and the level routing
// helpers shared by HTTP, ledger and dependency call logs.
package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is a no-op until Initialize runs, so packages may log from tests without setup
var Log = zap.NewNop()

// Config holds logger configuration
type Config struct {
	Level       string
	LogDir      string
	Environment string
	ServiceName string
}

// rotation settings for one log file, sizes in megabytes and ages in days
type rotation struct {
	file       string
	maxSize    int
	maxBackups int
	maxAge     int
}

var (
	appRotation   = rotation{file: "app.log", maxSize: 100, maxBackups: 5, maxAge: 14}
	errorRotation = rotation{file: "error.log", maxSize: 50, maxBackups: 5, maxAge: 30}
)

// Initialize replaces the global logger. Production with a log dir also writes rotated files;
// error.log only receives error level and above.
func Initialize(cfg Config) error {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return fmt.Errorf("invalid log level %s: %w", cfg.Level, err)
		}
	}
	atomicLevel := zap.NewAtomicLevelAt(level)
	encoder := newEncoder(cfg.Environment)

	cores := []zapcore.Core{zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), atomicLevel)}
	if cfg.Environment == "production" && cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		cores = append(cores,
			zapcore.NewCore(encoder, appRotation.writer(cfg.LogDir), atomicLevel),
			zapcore.NewCore(encoder, errorRotation.writer(cfg.LogDir), zap.ErrorLevel),
		)
	}

	l := zap.New(zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if cfg.ServiceName != "" {
		l = l.With(zap.String("service", cfg.ServiceName))
	}

	Log = l
	return nil
}

func newEncoder(environment string) zapcore.Encoder {
	if environment == "development" {
		ec := zap.NewDevelopmentEncoderConfig()
		ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zapcore.NewConsoleEncoder(ec)
	}
	ec := zap.NewProductionEncoderConfig()
	ec.TimeKey = "timestamp"
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewJSONEncoder(ec)
}

func (r rotation) writer(dir string) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(dir, r.file),
		MaxSize:    r.maxSize,
		MaxBackups: r.maxBackups,
		MaxAge:     r.maxAge,
		Compress:   true,
	})
}

func Info(msg string, fields ...zap.Field) {
	Log.Info(msg, fields...)
}

func Debug(msg string, fields ...zap.Field) {
	Log.Debug(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	Log.Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	Log.Error(msg, fields...)
}

// Fatal logs and exits the process
func Fatal(msg string, fields ...zap.Field) {
	Log.Fatal(msg, fields...)
}

// Sync flushes buffered entries, errors from syncing stdout are ignored
func Sync() {
	_ = Log.Sync()
}

// LogHTTPRequest logs a finished request at a level chosen by status: 5xx error, 4xx warn, else info
func LogHTTPRequest(method, path string, statusCode int, duration float64, fields ...zap.Field) {
	all := append([]zap.Field{
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", statusCode),
		zap.Float64("duration", duration),
	}, fields...)

	switch {
	case statusCode >= 500:
		Error("HTTP request failed", all...)
	case statusCode >= 400:
		Warn("HTTP request client error", all...)
	default:
		Info("HTTP request", all...)
	}
}

// LogAPICall logs a call to an external dependency such as object storage or a trigger endpoint
func LogAPICall(service, operation, status string, duration float64, fields ...zap.Field) {
	all := append([]zap.Field{
		zap.String("dependency", service),
		zap.String("operation", operation),
		zap.String("status", status),
		zap.Float64("duration", duration),
	}, fields...)

	if status == "error" {
		Error("Dependency call failed", all...)
		return
	}
	Debug("Dependency call", all...)
}
