package logging

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// SwappableHandler is a slog.Handler whose sink can be replaced at runtime.
// Handlers derived with WithAttrs or WithGroup share the sink of their
// parent, so loggers created before a Swap follow it.
type SwappableHandler struct {
	root   *atomic.Pointer[slog.Handler]
	derive func(slog.Handler) slog.Handler
	cache  atomic.Pointer[derivedHandler]
}

type derivedHandler struct {
	base    *slog.Handler
	handler slog.Handler
}

// NewSwappableHandler creates a handler writing to initial.
func NewSwappableHandler(initial slog.Handler) *SwappableHandler {
	root := new(atomic.Pointer[slog.Handler])
	root.Store(&initial)
	return &SwappableHandler{root: root}
}

// Swap replaces the sink for this handler and every handler derived from it.
func (sh *SwappableHandler) Swap(next slog.Handler) {
	sh.root.Store(&next)
}

func (sh *SwappableHandler) current() slog.Handler {
	base := sh.root.Load()
	if sh.derive == nil {
		return *base
	}
	if c := sh.cache.Load(); c != nil && c.base == base {
		return c.handler
	}
	h := sh.derive(*base)
	sh.cache.Store(&derivedHandler{base: base, handler: h})
	return h
}

// Enabled reports whether the handler handles records at the given level.
func (sh *SwappableHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return sh.current().Enabled(ctx, level)
}

// Handle handles the Record.
func (sh *SwappableHandler) Handle(ctx context.Context, r slog.Record) error {
	return sh.current().Handle(ctx, r)
}

// WithAttrs returns a handler that adds attrs to every record.
func (sh *SwappableHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return sh.child(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

// WithGroup returns a handler that nests attributes under name.
func (sh *SwappableHandler) WithGroup(name string) slog.Handler {
	return sh.child(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (sh *SwappableHandler) child(step func(slog.Handler) slog.Handler) *SwappableHandler {
	parent := sh.derive
	return &SwappableHandler{
		root: sh.root,
		derive: func(h slog.Handler) slog.Handler {
			if parent != nil {
				h = parent(h)
			}
			return step(h)
		},
	}
}
