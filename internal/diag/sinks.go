package diag

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// LogSink writes events through a slog logger. A nil logger means the
// package logger at the time of each report.
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Report(e Event) {
	l := s.Logger
	if l == nil {
		l = Logger()
	}
	level := slog.LevelWarn
	if e.Kind == KindMissingParameter {
		level = slog.LevelInfo
	}
	attrs := []slog.Attr{
		slog.String("kind", e.Kind.String()),
		slog.String("tag", e.Tag),
		slog.Float64("value", e.Value),
	}
	if e.Node != "" {
		attrs = append(attrs, slog.String("node", e.Node))
	}
	l.LogAttrs(context.Background(), level, "diagnostic", attrs...)
}

type limitKey struct {
	kind Kind
	tag  string
	node string
}

// Limiter forwards at most one event per (kind, tag, node) every interval.
// Events of kinds not listed in Kinds pass straight through; an empty Kinds
// limits everything.
type Limiter struct {
	Next     Sink
	Interval time.Duration
	Kinds    []Kind
	Now      func() time.Time

	mu   sync.Mutex
	last map[limitKey]time.Time
}

// RateLimit wraps next so that repeated events of the given kinds are
// reported at most once per interval.
func RateLimit(next Sink, interval time.Duration, kinds ...Kind) *Limiter {
	return &Limiter{Next: Or(next), Interval: interval, Kinds: kinds}
}

func (l *Limiter) limited(k Kind) bool {
	if len(l.Kinds) == 0 {
		return true
	}
	for _, lk := range l.Kinds {
		if lk == k {
			return true
		}
	}
	return false
}

func (l *Limiter) Report(e Event) {
	if !l.limited(e.Kind) {
		l.Next.Report(e)
		return
	}
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	t := now()
	key := limitKey{e.Kind, e.Tag, e.Node}

	l.mu.Lock()
	if l.last == nil {
		l.last = make(map[limitKey]time.Time)
	}
	prev, seen := l.last[key]
	if seen && t.Sub(prev) < l.Interval {
		l.mu.Unlock()
		return
	}
	l.last[key] = t
	l.mu.Unlock()

	l.Next.Report(e)
}
