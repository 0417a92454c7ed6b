// Package logbuf keeps the daemon's recent log records in memory so the
// status API can serve them without touching disk.
package logbuf

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Record is one captured log line.
type Record struct {
	Time    time.Time      `json:"time"`
	Level   string         `json:"level"`
	Message string         `json:"message"`
	Attrs   map[string]any `json:"attrs,omitempty"`
}

// Buffer is a fixed-capacity ring of Records. Safe for concurrent use.
type Buffer struct {
	mu   sync.Mutex
	ring []Record
	next int
	full bool
}

// New creates a buffer holding up to capacity records.
func New(capacity int) *Buffer {
	return &Buffer{ring: make([]Record, capacity)}
}

func (b *Buffer) add(r Record) {
	b.mu.Lock()
	b.ring[b.next] = r
	b.next++
	if b.next == len(b.ring) {
		b.next = 0
		b.full = true
	}
	b.mu.Unlock()
}

// Recent returns up to limit records at or above minLevel, oldest first.
// limit <= 0 means no limit.
func (b *Buffer) Recent(minLevel slog.Level, limit int) []Record {
	b.mu.Lock()
	defer b.mu.Unlock()

	start, n := 0, b.next
	if b.full {
		start, n = b.next, len(b.ring)
	}

	var out []Record
	for i := 0; i < n; i++ {
		r := b.ring[(start+i)%len(b.ring)]
		if levelOf(r.Level) < minLevel {
			continue
		}
		out = append(out, r)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

func levelOf(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// Handler tees slog records into a Buffer and an inner handler. The
// buffer captures every level; the inner handler keeps its own filter.
type Handler struct {
	inner slog.Handler
	buf   *Buffer
	bound []slog.Attr
}

// NewHandler wraps inner so records also land in buf.
func NewHandler(inner slog.Handler, buf *Buffer) *Handler {
	return &Handler{inner: inner, buf: buf}
}

func (h *Handler) Enabled(context.Context, slog.Level) bool { return true }

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	var attrs map[string]any
	collect := func(a slog.Attr) {
		if attrs == nil {
			attrs = make(map[string]any)
		}
		v := a.Value.Resolve().Any()
		if err, ok := v.(error); ok {
			v = err.Error() // errors serialize to {} otherwise
		}
		attrs[a.Key] = v
	}
	for _, a := range h.bound {
		collect(a)
	}
	r.Attrs(func(a slog.Attr) bool { collect(a); return true })

	h.buf.add(Record{
		Time:    r.Time,
		Level:   r.Level.String(),
		Message: r.Message,
		Attrs:   attrs,
	})

	if h.inner.Enabled(ctx, r.Level) {
		return h.inner.Handle(ctx, r)
	}
	return nil
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Handler{
		inner: h.inner.WithAttrs(attrs),
		buf:   h.buf,
		bound: append(h.bound[:len(h.bound):len(h.bound)], attrs...),
	}
}

func (h *Handler) WithGroup(name string) slog.Handler {
	return &Handler{inner: h.inner.WithGroup(name), buf: h.buf, bound: h.bound}
}
