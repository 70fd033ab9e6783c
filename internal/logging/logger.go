package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where and how verbosely the screen logs.
type Options struct {
	Level string
	// File, when set, receives a rotated copy of every log line.
	File string
}

// NewLogger builds a production ready structured logger.
func NewLogger(opts Options) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if strings.TrimSpace(opts.Level) != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(opts.Level))); err != nil {
			return nil, err
		}
	}

	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.Level = level
	if opts.File == "" {
		return cfg.Build()
	}

	encoder := zapcore.NewJSONEncoder(cfg.EncoderConfig)
	rotating := &lumberjack.Logger{
		Filename:   opts.File,
		LocalTime:  true,
		Compress:   true,
		MaxSize:    100,
		MaxAge:     7,
		MaxBackups: 3,
	}
	core := zapcore.NewTee(
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), level),
		zapcore.NewCore(encoder, zapcore.AddSync(rotating), level),
	)
	return zap.New(core, zap.AddCaller()), nil
}

// WithOperation scopes the logger to one step of a dispatch.
func WithOperation(logger *zap.Logger, operation string, d Dispatch) *zap.Logger {
	fields := []zap.Field{zap.String("operation", operation)}
	if d.RequestID != "" {
		fields = append(fields, zap.String("request_id", d.RequestID))
	}
	if d.Generation != 0 {
		fields = append(fields, zap.Uint64("generation", d.Generation))
	}
	return logger.With(fields...)
}
