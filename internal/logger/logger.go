// Package logger is a log/slog wrapper exposing a package-level logger
// whose level/format/output are reconfigurable at runtime, grounded on
// marmos91-dittofs/internal/logger/logger.go (atomic level/format state,
// context-scoped fields) but pared down to this service's own domain
// fields (analyzer_id, session_id) in place of dittofs's NFS-specific
// ones (share, uid/gid). stdlib log/slog only, matching dittofs's own
// choice not to pull in zerolog/logrus despite being the
// dependency-richest repo in the pack.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// Config holds logger configuration, mirroring config.LoggingConfig's
// shape so cmd/lis can pass AppConfig.Logging straight through.
type Config struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // text, json
	Output string // stdout, stderr, or file path
}

var (
	currentLevel  atomic.Int32
	currentFormat atomic.Value // "text" or "json"

	mu      sync.RWMutex
	slogger *slog.Logger
	output  io.Writer = os.Stdout
)

func init() {
	currentLevel.Store(int32(slog.LevelInfo))
	currentFormat.Store("text")
	reconfigure()
}

// Init applies cfg to the package-level logger. Output may be "stdout",
// "stderr", or a file path (opened append-only).
func Init(cfg Config) error {
	if cfg.Output != "" {
		var w io.Writer
		switch strings.ToLower(cfg.Output) {
		case "stdout", "":
			w = os.Stdout
		case "stderr":
			w = os.Stderr
		default:
			f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("open log file %q: %w", cfg.Output, err)
			}
			w = f
		}
		mu.Lock()
		output = w
		mu.Unlock()
	}

	if cfg.Level != "" {
		SetLevel(cfg.Level)
	}
	if cfg.Format != "" {
		SetFormat(cfg.Format)
	}
	reconfigure()
	return nil
}

// InitWithWriter points the logger at w, bypassing Output resolution.
// Primarily useful for tests.
func InitWithWriter(w io.Writer, level, format string) {
	mu.Lock()
	output = w
	mu.Unlock()
	if level != "" {
		SetLevel(level)
	}
	if format != "" {
		SetFormat(format)
	}
	reconfigure()
}

// SetLevel sets the minimum log level. Invalid values are ignored.
func SetLevel(level string) {
	var lvl slog.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		lvl = slog.LevelDebug
	case "INFO":
		lvl = slog.LevelInfo
	case "WARN":
		lvl = slog.LevelWarn
	case "ERROR":
		lvl = slog.LevelError
	default:
		return
	}
	currentLevel.Store(int32(lvl))
	reconfigure()
}

// SetFormat sets the output format ("text" or "json"). Invalid values
// are ignored.
func SetFormat(format string) {
	format = strings.ToLower(format)
	if format != "text" && format != "json" {
		return
	}
	currentFormat.Store(format)
	reconfigure()
}

func reconfigure() {
	mu.Lock()
	defer mu.Unlock()

	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.Level(currentLevel.Load()))
	opts := &slog.HandlerOptions{Level: levelVar}

	format, _ := currentFormat.Load().(string)
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}
	slogger = slog.New(handler)
}

// Get returns the package-level slog.Logger.
func Get() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return slogger
}

type contextKey struct{}

// LogContext carries per-request fields auto-injected by the *Ctx
// logging functions.
type LogContext struct {
	AnalyzerID string
	SessionID  string
}

// WithContext attaches lc to ctx.
func WithContext(ctx context.Context, lc LogContext) context.Context {
	return context.WithValue(ctx, contextKey{}, lc)
}

// FromContext retrieves the LogContext attached by WithContext, or nil.
func FromContext(ctx context.Context) *LogContext {
	lc, ok := ctx.Value(contextKey{}).(LogContext)
	if !ok {
		return nil
	}
	return &lc
}

func appendContextFields(ctx context.Context, args []any) []any {
	lc := FromContext(ctx)
	if lc == nil {
		return args
	}
	ctxArgs := make([]any, 0, 4+len(args))
	if lc.AnalyzerID != "" {
		ctxArgs = append(ctxArgs, "analyzer_id", lc.AnalyzerID)
	}
	if lc.SessionID != "" {
		ctxArgs = append(ctxArgs, "session_id", lc.SessionID)
	}
	return append(ctxArgs, args...)
}

func Debug(msg string, args ...any) { Get().Debug(msg, args...) }
func Info(msg string, args ...any)  { Get().Info(msg, args...) }
func Warn(msg string, args ...any)  { Get().Warn(msg, args...) }
func Error(msg string, args ...any) { Get().Error(msg, args...) }

func DebugCtx(ctx context.Context, msg string, args ...any) {
	Get().Debug(msg, appendContextFields(ctx, args)...)
}
func InfoCtx(ctx context.Context, msg string, args ...any) {
	Get().Info(msg, appendContextFields(ctx, args)...)
}
func WarnCtx(ctx context.Context, msg string, args ...any) {
	Get().Warn(msg, appendContextFields(ctx, args)...)
}
func ErrorCtx(ctx context.Context, msg string, args ...any) {
	Get().Error(msg, appendContextFields(ctx, args)...)
}

// With returns a child logger with args pre-bound.
func With(args ...any) *slog.Logger {
	return Get().With(args...)
}
