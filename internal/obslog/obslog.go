// Package obslog wraps log/slog with a small text handler for the armsim
// CLI, the way rcornwell-S370's util/logger wraps it. Log lines
// always go to stderr; verbose mode additionally lowers the level to
// include step-by-step trace output.
package obslog

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Handler is a slog.Handler that renders records as single lines of
// "time level msg attr=val ...", matching the terseness expected of a
// small CLI tool's trace output.
type Handler struct {
	h     slog.Handler
	out   io.Writer
	mu    *sync.Mutex
	debug bool
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.h.Enabled(ctx, level)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{h: h.h.WithAttrs(attrs), out: h.out, mu: h.mu, debug: h.debug}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{h: h.h.WithGroup(name), out: h.out, mu: h.mu, debug: h.debug}
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	parts := []string{r.Time.Format("15:04:05.000"), r.Level.String() + ":", r.Message}
	r.Attrs(func(a slog.Attr) bool {
		parts = append(parts, a.Key+"="+a.Value.String())
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write([]byte(strings.Join(parts, " ") + "\n"))
	return err
}

// New creates a Logger that writes to stderr. When verbose is true, debug-
// level records (step traces) are enabled; otherwise only info and above
// are emitted.
func New(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	h := &Handler{
		out: os.Stderr,
		mu:  &sync.Mutex{},
		h: slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		}),
		debug: verbose,
	}
	return slog.New(h)
}
