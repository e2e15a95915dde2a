package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/rollbar/rollbar-go"
)

// Options configures the process-wide logger.
type Options struct {
	Level        string
	Format       string
	RollbarToken string
	Environment  string
}

// Init configures the global slog default. If w is nil, os.Stdout is used.
// Format must be "text" or "json".
func Init(opts Options, w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level)}

	var handler slog.Handler
	switch opts.Format {
	case "json":
		handler = slog.NewJSONHandler(w, handlerOpts)
	default:
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	if opts.RollbarToken != "" {
		rollbar.SetToken(opts.RollbarToken)
		rollbar.SetEnvironment(opts.Environment)
		rollbar.SetServerRoot("seatdesk")
		handler = &rollbarHandler{Handler: handler}
	}
	slog.SetDefault(slog.New(handler))
}

// New returns a logger with a "component" attribute for module-scoped logging.
func New(component string) *slog.Logger {
	return slog.Default().With(slog.String("component", component))
}

func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
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

// Close flushes pending error reports.
func Close() {
	rollbar.Close()
}

// rollbarHandler forwards error records to Rollbar in addition to the wrapped handler.
type rollbarHandler struct {
	slog.Handler
	attrs []slog.Attr
}

func (h *rollbarHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Level >= slog.LevelError {
		extras := map[string]interface{}{}
		for _, attr := range h.attrs {
			extras[attr.Key] = attr.Value.String()
		}
		var reported error
		record.Attrs(func(attr slog.Attr) bool {
			if err, ok := attr.Value.Any().(error); ok && reported == nil {
				reported = err
				return true
			}
			extras[attr.Key] = attr.Value.String()
			return true
		})
		if reported != nil {
			rollbar.ErrorWithExtras(rollbar.ERR, reported, extras)
		} else {
			rollbar.MessageWithExtras(rollbar.ERR, record.Message, extras)
		}
	}
	return h.Handler.Handle(ctx, record)
}

func (h *rollbarHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &rollbarHandler{Handler: h.Handler.WithAttrs(attrs), attrs: merged}
}

func (h *rollbarHandler) WithGroup(name string) slog.Handler {
	return &rollbarHandler{Handler: h.Handler.WithGroup(name), attrs: h.attrs}
}
