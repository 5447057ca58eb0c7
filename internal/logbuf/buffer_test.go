package logbuf

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestAppendProductionDropsVerbose(t *testing.T) {
	b := New(WithMode(ModeProduction))

	b.Append(LevelTrace, "trace")
	b.Append(LevelDebug, "debug")
	assert.Equal(t, 0, b.Len())

	b.Append(LevelInfo, "info")
	b.Append(LevelWarning, "warn")
	b.Append(LevelError, "error")
	assert.Equal(t, 3, b.Len())
}

func TestAppendDiagnosticKeepsAll(t *testing.T) {
	var out bytes.Buffer
	b := New(WithMode(ModeDiagnostic), WithSink(NewWriterSink(&out)))

	b.Append(LevelTrace, "trace")
	assert.Equal(t, 1, b.Len())
	assert.Contains(t, out.String(), "TRACE: ")
	assert.Contains(t, out.String(), ": trace\n")
}

func TestProductionDoesNotMirror(t *testing.T) {
	var out bytes.Buffer
	b := New(WithMode(ModeProduction), WithSink(NewWriterSink(&out)))

	b.Append(LevelError, "boom")
	assert.Empty(t, out.String())
	assert.Equal(t, 1, b.Len())
}

func TestAppendTimestampsFromClock(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	b := New(WithMode(ModeProduction), WithClock(clock))

	b.Append(LevelInfo, "first")
	clock.Advance(time.Second)
	b.Append(LevelInfo, "second")

	entries := b.Snapshot()
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].Message)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), entries[0].Time)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 1, 0, time.UTC), entries[1].Time)
}

func TestSnapshotIsCopy(t *testing.T) {
	b := New(WithMode(ModeProduction))
	b.Append(LevelInfo, "a")

	snap := b.Snapshot()
	snap[0].Message = "changed"

	assert.Equal(t, "a", b.Snapshot()[0].Message)
}

func TestSince(t *testing.T) {
	b := New(WithMode(ModeProduction))
	for i := 0; i < 5; i++ {
		b.Append(LevelInfo, fmt.Sprintf("m%d", i))
	}

	tail := b.Since(3)
	require.Len(t, tail, 2)
	assert.Equal(t, "m3", tail[0].Message)
	assert.Equal(t, "m4", tail[1].Message)

	assert.Nil(t, b.Since(5))
	assert.Len(t, b.Since(-1), 5)
}

func TestSubscribe(t *testing.T) {
	b := New(WithMode(ModeProduction))

	var got []string
	cancel := b.Subscribe(func(e Entry) {
		got = append(got, e.Message)
	})

	b.Append(LevelDebug, "dropped")
	b.Append(LevelInfo, "one")
	cancel()
	cancel()
	b.Append(LevelInfo, "two")

	assert.Equal(t, []string{"one"}, got)
}

func TestConcurrentAppend(t *testing.T) {
	b := New(WithMode(ModeDiagnostic))

	const writers = 8
	const perWriter = 200

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				b.Append(LevelDebug, fmt.Sprintf("w%d-%d", w, i))
			}
		}(w)
	}

	// A concurrent reader must always see fully formed entries.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			for _, e := range b.Snapshot() {
				if !strings.HasPrefix(e.Message, "w") {
					t.Errorf("partial entry observed: %+v", e)
					return
				}
			}
		}
	}()

	wg.Wait()
	<-done
	assert.Equal(t, writers*perWriter, b.Len())

	// Per-writer order is preserved.
	next := make(map[string]int)
	for _, e := range b.Snapshot() {
		var w, i int
		_, err := fmt.Sscanf(e.Message, "w%d-%d", &w, &i)
		require.NoError(t, err)
		key := fmt.Sprint(w)
		assert.Equal(t, next[key], i)
		next[key] = i + 1
	}
}

type recordingSink struct {
	entries []Entry
}

func (s *recordingSink) Write(e Entry) { s.entries = append(s.entries, e) }

func TestConcurrentAppendKeepsSinkOrder(t *testing.T) {
	sink := &recordingSink{}
	b := New(WithMode(ModeDiagnostic), WithSink(sink))

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				b.Append(LevelInfo, fmt.Sprintf("w%d-%d", w, i))
			}
		}(w)
	}
	wg.Wait()

	snap := b.Snapshot()
	require.Len(t, snap, 1600)
	assert.Equal(t, snap, sink.entries)
	for i := 1; i < len(snap); i++ {
		if snap[i].Time.Before(snap[i-1].Time) {
			t.Fatalf("entry %d stamped %v before entry %d at %v", i, snap[i].Time, i-1, snap[i-1].Time)
		}
	}
}

func TestSpanSink(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))

	sink := NewSpanSink(tp.Tracer("test"), "session")
	b := New(WithMode(ModeDiagnostic), WithSink(sink))

	b.Append(LevelTrace, "hello")
	b.Append(LevelError, "bye")
	sink.End()
	sink.End()
	b.Append(LevelInfo, "ignored")

	spans := rec.Ended()
	require.Len(t, spans, 1)
	events := spans[0].Events()
	require.Len(t, events, 2)
	assert.Equal(t, "hello", events[0].Name)
	assert.Equal(t, "bye", events[1].Name)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"trace", LevelTrace},
		{"DEBUG", LevelDebug},
		{"warn", LevelWarning},
		{"Warning", LevelWarning},
		{"error", LevelError},
		{"bogus", LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
	assert.True(t, LevelTrace < LevelDebug && LevelDebug < LevelInfo && LevelInfo < LevelWarning && LevelWarning < LevelError)
}

func TestParseMode(t *testing.T) {
	assert.Equal(t, ModeDiagnostic, ParseMode("diagnostic"))
	assert.Equal(t, ModeProduction, ParseMode("production"))
	assert.Equal(t, DefaultMode, ParseMode(""))
}
