package diag

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLimiterSuppressesRepeats(t *testing.T) {
	rec := &Recorder{}
	now := time.Unix(0, 0)
	lim := RateLimit(rec, time.Second, KindMissingParameter)
	lim.Now = func() time.Time { return now }

	miss := Event{Kind: KindMissingParameter, Tag: "driver", Node: "hair"}
	for i := 0; i < 5; i++ {
		lim.Report(miss)
	}
	lim.Report(Event{Kind: KindInvalidPhysics, Tag: "pendulum.dd"})
	lim.Report(Event{Kind: KindInvalidPhysics, Tag: "pendulum.dd"})

	if got := rec.Count(KindMissingParameter); got != 1 {
		t.Errorf("expected 1 missing-parameter event, got %d", got)
	}
	if got := rec.Count(KindInvalidPhysics); got != 2 {
		t.Errorf("expected unlimited kinds to pass through, got %d", got)
	}

	now = now.Add(1500 * time.Millisecond)
	lim.Report(miss)
	if got := rec.Count(KindMissingParameter); got != 2 {
		t.Errorf("expected event after interval, got %d", got)
	}
}

func TestLogSinkWritesAttributes(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))
	LogSink{Logger: l}.Report(Event{Kind: KindLargeDeformation, Tag: "push", Node: "arm", Value: 64})

	out := buf.String()
	for _, want := range []string{"level=WARN", "kind=large-deformation", "node=arm", "value=64"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestDefaultLoggerIsSilent(t *testing.T) {
	if Logger().Enabled(context.Background(), slog.LevelError) {
		t.Error("expected default logger to be disabled")
	}
	SetLogger(slog.Default())
	defer SetLogger(nil)
	if Logger() != slog.Default() {
		t.Error("expected SetLogger to replace the logger")
	}
}
