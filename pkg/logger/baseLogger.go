package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config configures the base logger.
type Config struct {
	Level       string   `yaml:"level"`
	Development bool     `yaml:"development"`
	OutputPaths []string `yaml:"output_paths"`
}

type BaseLogger struct {
	z *zap.Logger
}

// NewLogger builds a JSON logger writing to the configured outputs (stderr by default).
func NewLogger(cfg Config) (*BaseLogger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	zapCfg.Level = zap.NewAtomicLevelAt(ParseLevel(cfg.Level))
	if len(cfg.OutputPaths) > 0 {
		zapCfg.OutputPaths = cfg.OutputPaths
	}
	if cfg.Development {
		zapCfg.Sampling = nil
	}

	z, err := zapCfg.Build(zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return &BaseLogger{z: z}, nil
}

// FromZap wraps an existing zap logger, mostly for tests using zaptest/observer.
func FromZap(z *zap.Logger) *BaseLogger {
	return &BaseLogger{z: z}
}

// NewNop returns a logger that discards everything.
func NewNop() *BaseLogger {
	return &BaseLogger{z: zap.NewNop()}
}

// ParseLevel maps a level name to a zap level, falling back to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *BaseLogger) Debug(msg string, fields ...Field) { l.z.Debug(msg, fields...) }
func (l *BaseLogger) Info(msg string, fields ...Field)  { l.z.Info(msg, fields...) }
func (l *BaseLogger) Warn(msg string, fields ...Field)  { l.z.Warn(msg, fields...) }
func (l *BaseLogger) Error(msg string, fields ...Field) { l.z.Error(msg, fields...) }

func (l *BaseLogger) With(fields ...Field) Logger {
	return &BaseLogger{z: l.z.With(fields...)}
}

func (l *BaseLogger) Named(name string) Logger {
	return &BaseLogger{z: l.z.Named(name)}
}

func (l *BaseLogger) Sync() error {
	return l.z.Sync()
}
