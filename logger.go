package fastfetch

import (
	"log/slog"

	"github.com/go-logr/logr"
	"go.uber.org/zap"
)

// Logger is the structured logger used by the client. Arguments after msg
// are alternating keys and values.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// ZapLogger adapts a *zap.Logger.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger returns a Logger writing to logger. A nil logger discards
// everything.
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapLogger{sugar: logger.Named("fastfetch").Sugar()}
}

func (l *ZapLogger) Debug(msg string, kv ...any) { l.sugar.Debugw(msg, kv...) }
func (l *ZapLogger) Info(msg string, kv ...any)  { l.sugar.Infow(msg, kv...) }
func (l *ZapLogger) Warn(msg string, kv ...any)  { l.sugar.Warnw(msg, kv...) }
func (l *ZapLogger) Error(msg string, kv ...any) { l.sugar.Errorw(msg, kv...) }

// LogrLogger adapts a logr.Logger. Debug maps to V(1); Warn is logged at
// V(0) with a "level" key since logr has no warning level.
type LogrLogger struct {
	logger logr.Logger
}

// NewLogrLogger returns a Logger writing to logger.
func NewLogrLogger(logger logr.Logger) *LogrLogger {
	return &LogrLogger{logger: logger.WithName("fastfetch")}
}

func (l *LogrLogger) Debug(msg string, kv ...any) { l.logger.V(1).Info(msg, kv...) }
func (l *LogrLogger) Info(msg string, kv ...any)  { l.logger.Info(msg, kv...) }
func (l *LogrLogger) Warn(msg string, kv ...any) {
	l.logger.Info(msg, append([]any{"level", "warn"}, kv...)...)
}
func (l *LogrLogger) Error(msg string, kv ...any) { l.logger.Error(nil, msg, kv...) }

// SlogLogger adapts a *slog.Logger.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger returns a Logger writing to logger, or slog.Default when
// logger is nil.
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger}
}

func (l *SlogLogger) Debug(msg string, kv ...any) { l.logger.Debug(msg, kv...) }
func (l *SlogLogger) Info(msg string, kv ...any)  { l.logger.Info(msg, kv...) }
func (l *SlogLogger) Warn(msg string, kv ...any)  { l.logger.Warn(msg, kv...) }
func (l *SlogLogger) Error(msg string, kv ...any) { l.logger.Error(msg, kv...) }
