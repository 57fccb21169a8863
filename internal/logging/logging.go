package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// Key constants for structured log fields.
const (
	KeyComponent  = "component"
	KeyMonitor    = "monitor"
	KeyCycle      = "cycle"
	KeyPath       = "path"
	KeyDurationMs = "durationMs"
	KeyError      = "error"
)

type contextKey struct{}

// switchableHandler lets package-level loggers created before Init()
// pick up the configured handler once Init runs.
type switchableHandler struct {
	state  *switchableState
	attrs  []slog.Attr
	groups []string
}

// handlerBox keeps the stored type fixed while the concrete handler
// switches between text and JSON.
type handlerBox struct {
	h slog.Handler
}

type switchableState struct {
	current atomic.Pointer[handlerBox]
}

func newSwitchableHandler(h slog.Handler) *switchableHandler {
	state := &switchableState{}
	state.current.Store(&handlerBox{h: h})
	return &switchableHandler{state: state}
}

func (h *switchableHandler) set(handler slog.Handler) {
	h.state.current.Store(&handlerBox{h: handler})
}

func (h *switchableHandler) resolve() slog.Handler {
	handler := h.state.current.Load().h
	for _, group := range h.groups {
		handler = handler.WithGroup(group)
	}
	if len(h.attrs) > 0 {
		handler = handler.WithAttrs(h.attrs)
	}
	return handler
}

func (h *switchableHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.resolve().Enabled(ctx, level)
}

func (h *switchableHandler) Handle(ctx context.Context, record slog.Record) error {
	return h.resolve().Handle(ctx, record)
}

func (h *switchableHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &switchableHandler{
		state:  h.state,
		attrs:  merged,
		groups: append([]string(nil), h.groups...),
	}
}

func (h *switchableHandler) WithGroup(name string) slog.Handler {
	groups := make([]string, 0, len(h.groups)+1)
	groups = append(groups, h.groups...)
	groups = append(groups, name)
	return &switchableHandler{
		state:  h.state,
		attrs:  append([]slog.Attr(nil), h.attrs...),
		groups: groups,
	}
}

var (
	rootHandler   = newSwitchableHandler(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	defaultLogger = slog.New(rootHandler)

	initMu    sync.Mutex
	logCloser io.Closer
)

func init() {
	slog.SetDefault(defaultLogger)
}

// Options configures the process-wide log sink.
type Options struct {
	// Format is "json" or "text" (default "text").
	Format string
	// Level is "debug", "info", "warn" or "error" (default "info").
	Level string
	// Output is the primary writer (nil = os.Stdout).
	Output io.Writer
	// File, when set, also writes to a size-rotated log file.
	File       string
	MaxSizeMB  int
	MaxBackups int
}

// Init configures the process-wide logger. It must run before components
// log anything meaningful; loggers obtained earlier through L are rebound.
// Calling Init again replaces the sink (tests rely on this).
func Init(format, level string, output io.Writer) {
	_ = Setup(Options{Format: format, Level: level, Output: output})
}

// Setup is Init with a rotating file sink. The file is opened before the
// handler is swapped so a bad path leaves the previous sink in place.
func Setup(opts Options) error {
	initMu.Lock()
	defer initMu.Unlock()

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	var closer io.Closer
	if opts.File != "" {
		rw, err := NewRotatingWriter(RotationConfig{
			Path:       opts.File,
			MaxSizeMB:  opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
		})
		if err != nil {
			return err
		}
		out = TeeWriter(out, rw)
		closer = rw
	}

	handlerOpts := &slog.HandlerOptions{Level: parseLevel(opts.Level)}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		handler = slog.NewJSONHandler(out, handlerOpts)
	} else {
		handler = slog.NewTextHandler(out, handlerOpts)
	}

	rootHandler.set(handler)
	slog.SetDefault(defaultLogger)

	if logCloser != nil {
		logCloser.Close()
	}
	logCloser = closer
	return nil
}

// Close releases the rotating file sink, if any.
func Close() error {
	initMu.Lock()
	defer initMu.Unlock()
	if logCloser == nil {
		return nil
	}
	err := logCloser.Close()
	logCloser = nil
	return err
}

// L returns a logger tagged with the given component name.
func L(component string) *slog.Logger {
	return defaultLogger.With(slog.String(KeyComponent, component))
}

// WithMonitor returns a child logger carrying the display name.
func WithMonitor(logger *slog.Logger, name string) *slog.Logger {
	return logger.With(slog.String(KeyMonitor, name))
}

// Discard returns a logger that drops everything. Used by tests and as the
// zero value for injected loggers.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// NewContext returns a new context carrying the given logger.
func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext extracts the logger from context, falling back to the default.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return l
	}
	return defaultLogger
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
