package logger

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey struct{}

var (
	global   *zap.SugaredLogger
	globalMx sync.RWMutex
)

func init() {
	global = zap.NewNop().Sugar()
}

// Init builds the process logger. level is a zap level name ("debug", "info", ...).
func Init(level string, development bool) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return err
	}

	SetLogger(l)
	return nil
}

func SetLogger(l *zap.Logger) {
	globalMx.Lock()
	defer globalMx.Unlock()

	global = l.Sugar()
}

func Sync() {
	_ = get().Sync()
}

// WithFields returns a context whose log lines carry the given key/value pairs.
func WithFields(ctx context.Context, keysAndValues ...interface{}) context.Context {
	return context.WithValue(ctx, ctxKey{}, fromContext(ctx).With(keysAndValues...))
}

func get() *zap.SugaredLogger {
	globalMx.RLock()
	defer globalMx.RUnlock()

	return global
}

func fromContext(ctx context.Context) *zap.SugaredLogger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(*zap.SugaredLogger); ok {
			return l
		}
	}
	return get()
}

func Debugf(ctx context.Context, format string, args ...interface{}) {
	fromContext(ctx).Debugf(format, args...)
}

func Infof(ctx context.Context, format string, args ...interface{}) {
	fromContext(ctx).Infof(format, args...)
}

func Warnf(ctx context.Context, format string, args ...interface{}) {
	fromContext(ctx).Warnf(format, args...)
}

func Errorf(ctx context.Context, format string, args ...interface{}) {
	fromContext(ctx).Errorf(format, args...)
}

func Info(ctx context.Context, args ...interface{}) {
	fromContext(ctx).Info(args...)
}

func Warn(ctx context.Context, args ...interface{}) {
	fromContext(ctx).Warn(args...)
}

func Error(ctx context.Context, args ...interface{}) {
	fromContext(ctx).Error(args...)
}

func Fatal(ctx context.Context, args ...interface{}) {
	fromContext(ctx).Fatal(args...)
}
