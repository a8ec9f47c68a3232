package logger

import (
	"context"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggerContextKey struct{}

var (
	//nolint:gochecknoglobals // The global logger is shared by every package of the application.
	globalLogger *zap.SugaredLogger
	//nolint:gochecknoglobals // The atomic level lets the level change after the logger has been built.
	globalLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	//nolint:gochecknoglobals // Protects globalLogger.
	globalLoggerMutex sync.RWMutex
)

//nolint:gochecknoinits // The logger must be usable before the configuration is loaded.
func init() {
	SetLogger(New(globalLevel))
}

// New creates a sugared console logger writing to stderr.
// A nil level falls back to the global atomic level.
func New(level zapcore.LevelEnabler, options ...zap.Option) *zap.SugaredLogger {
	if level == nil {
		level = globalLevel
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.Lock(os.Stderr),
		level,
	)

	return zap.New(core, options...).Sugar()
}

// Logger returns the global logger.
func Logger() *zap.SugaredLogger {
	globalLoggerMutex.RLock()
	defer globalLoggerMutex.RUnlock()

	return globalLogger
}

// SetLogger replaces the global logger.
func SetLogger(l *zap.SugaredLogger) {
	globalLoggerMutex.Lock()
	defer globalLoggerMutex.Unlock()

	globalLogger = l
}

// Level returns the current global log level.
func Level() zapcore.Level {
	return globalLevel.Level()
}

// SetLevel changes the global log level.
func SetLevel(level zapcore.Level) {
	globalLevel.SetLevel(level)
}

// IsDebugLevel reports whether debug messages are currently written.
func IsDebugLevel() bool {
	return globalLevel.Enabled(zapcore.DebugLevel)
}

// ParseLogLevel parses a level name, ignoring case and surrounding spaces.
// It returns zapcore.InfoLevel and false for unknown names.
func ParseLogLevel(value string) (zapcore.Level, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return zapcore.InfoLevel, false
	}

	level, err := zapcore.ParseLevel(normalized)
	if err != nil {
		return zapcore.InfoLevel, false
	}

	return level, true
}

// WithKV returns a context whose logger carries the given key-value pairs.
func WithKV(ctx context.Context, kv ...any) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, fromContext(ctx).With(kv...))
}

func fromContext(ctx context.Context) *zap.SugaredLogger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerContextKey{}).(*zap.SugaredLogger); ok {
			return l
		}
	}

	return Logger()
}

// Debug writes a message at debug level.
func Debug(ctx context.Context, args ...any) {
	fromContext(ctx).Debug(args...)
}

// Debugf writes a formatted message at debug level.
func Debugf(ctx context.Context, format string, args ...any) {
	fromContext(ctx).Debugf(format, args...)
}

// DebugKV writes a message with key-value pairs at debug level.
func DebugKV(ctx context.Context, message string, kv ...any) {
	fromContext(ctx).Debugw(message, kv...)
}

// Info writes a message at info level.
func Info(ctx context.Context, args ...any) {
	fromContext(ctx).Info(args...)
}

// Infof writes a formatted message at info level.
func Infof(ctx context.Context, format string, args ...any) {
	fromContext(ctx).Infof(format, args...)
}

// InfoKV writes a message with key-value pairs at info level.
func InfoKV(ctx context.Context, message string, kv ...any) {
	fromContext(ctx).Infow(message, kv...)
}

// Warn writes a message at warn level.
func Warn(ctx context.Context, args ...any) {
	fromContext(ctx).Warn(args...)
}

// Warnf writes a formatted message at warn level.
func Warnf(ctx context.Context, format string, args ...any) {
	fromContext(ctx).Warnf(format, args...)
}

// WarnKV writes a message with key-value pairs at warn level.
func WarnKV(ctx context.Context, message string, kv ...any) {
	fromContext(ctx).Warnw(message, kv...)
}

// Error writes a message at error level.
func Error(ctx context.Context, args ...any) {
	fromContext(ctx).Error(args...)
}

// Errorf writes a formatted message at error level.
func Errorf(ctx context.Context, format string, args ...any) {
	fromContext(ctx).Errorf(format, args...)
}

// ErrorKV writes a message with key-value pairs at error level.
func ErrorKV(ctx context.Context, message string, kv ...any) {
	fromContext(ctx).Errorw(message, kv...)
}

// Fatal writes a message at fatal level and exits.
func Fatal(ctx context.Context, args ...any) {
	fromContext(ctx).Fatal(args...)
}

// Fatalf writes a formatted message at fatal level and exits.
func Fatalf(ctx context.Context, format string, args ...any) {
	fromContext(ctx).Fatalf(format, args...)
}

// Panicf writes a formatted message at panic level and panics.
func Panicf(ctx context.Context, format string, args ...any) {
	fromContext(ctx).Panicf(format, args...)
}
