package logger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggerContextKey struct{}

const (
	TimeStampKey = "timestamp"
	MessageKey   = "message"
	VersionKey   = "version"
)

var (
	mu sync.Mutex

	// globalZapLogger is kept for Sync
	globalZapLogger *zap.Logger
	globalLogFile   *os.File
	globalLogr      *logr.Logger

	defaultNoopLogger = logr.Discard()
)

// Options configures the process logger
type Options struct {
	// Level is the minimum zap level; negative values enable logr V-levels
	// (-1 shows V(1), -2 shows V(2)).
	Level int8

	// Path is the JSON log file. Empty discards all output: the terminal
	// belongs to the UI.
	Path string

	Version string
}

// Setup builds the global logger from opts. Calling it again replaces the
// previous logger and closes its file.
func Setup(opts Options) (*logr.Logger, error) {
	mu.Lock()
	defer mu.Unlock()

	closeLocked()

	if opts.Path == "" {
		globalLogr = &defaultNoopLogger
		return globalLogr, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(filepath.Clean(opts.Path), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.TimeKey = TimeStampKey
	encoderCfg.MessageKey = MessageKey

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(zapcore.AddSync(f)),
		zap.NewAtomicLevelAt(zapcore.Level(opts.Level)),
	)
	if opts.Version != "" {
		core = core.With([]zapcore.Field{zap.String(VersionKey, opts.Version)})
	}

	globalZapLogger = zap.New(core,
		zap.AddCaller(),
		zap.AddStacktrace(zap.ErrorLevel),
	)
	globalLogFile = f

	gl := zapr.NewLogger(globalZapLogger)
	globalLogr = &gl
	return globalLogr, nil
}

// WithLogger returns a context carrying log
func WithLogger(ctx context.Context, log *logr.Logger) context.Context {
	if lp, ok := ctx.Value(loggerContextKey{}).(*logr.Logger); ok && lp == log {
		return ctx
	}
	return context.WithValue(ctx, loggerContextKey{}, log)
}

// FromContext returns the logger stored in ctx, else the global logger, else
// a no-op logger.
func FromContext(ctx context.Context) *logr.Logger {
	if log, ok := ctx.Value(loggerContextKey{}).(*logr.Logger); ok {
		return log
	}
	return Global()
}

// Global returns the logger built by Setup, or a no-op logger
func Global() *logr.Logger {
	mu.Lock()
	defer mu.Unlock()
	if globalLogr != nil {
		return globalLogr
	}
	return &defaultNoopLogger
}

// Sync flushes buffered entries and closes the log file. Call it before exit;
// afterwards Global returns a no-op logger.
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	closeLocked()
}

func closeLocked() {
	if globalZapLogger != nil {
		if err := globalZapLogger.Sync(); err != nil && !isIgnorableSyncError(err) {
			fmt.Fprintf(os.Stderr, "WARNING: failed to sync logger: %v\n", err)
		}
		globalZapLogger = nil
	}
	if globalLogFile != nil {
		_ = globalLogFile.Close()
		globalLogFile = nil
	}
	globalLogr = nil
}

// isIgnorableSyncError returns true for Sync errors on pipes and TTYs
func isIgnorableSyncError(err error) bool {
	if errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.EIO) || errors.Is(err, syscall.EBADF) {
		return true
	}
	return strings.Contains(err.Error(), "The handle is invalid")
}
