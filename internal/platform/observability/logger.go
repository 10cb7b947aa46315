// Package observability holds the structured logger, request logging, panic recovery and trace
// propagation shared by every route.
package observability

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerOption customises NewLogger.
type LoggerOption func(*loggerOptions)

type loggerOptions struct {
	out zapcore.WriteSyncer
}

// WithOutput sends log lines to ws instead of stdout.
func WithOutput(ws zapcore.WriteSyncer) LoggerOption {
	return func(o *loggerOptions) {
		if ws != nil {
			o.out = ws
		}
	}
}

// NewLogger builds a JSON logger in the Cloud Logging shape (severity, message, timestamp).
// Unknown or empty levels log at info.
func NewLogger(level string, opts ...LoggerOption) (*zap.Logger, error) {
	options := loggerOptions{out: zapcore.Lock(os.Stdout)}
	for _, opt := range opts {
		opt(&options)
	}

	lvl := zapcore.InfoLevel
	if text := strings.ToLower(strings.TrimSpace(level)); text != "" {
		if err := lvl.UnmarshalText([]byte(text)); err != nil {
			lvl = zapcore.InfoLevel
		}
	}

	encoder := zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "severity",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.RFC3339NanoTimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	})
	core := zapcore.NewCore(encoder, options.out, zap.NewAtomicLevelAt(lvl))
	return zap.New(core, zap.AddCaller(), zap.ErrorOutput(zapcore.Lock(os.Stderr))), nil
}
