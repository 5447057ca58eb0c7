package logbuf

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// WriterSink writes one line per entry to an io.Writer.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink creates a sink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Write implements Sink.
func (s *WriterSink) Write(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintf(s.w, "%s: %s: %s\n", e.Level, e.Time.Format("2006-01-02T15:04:05.000"), e.Message)
}

// SpanSink records entries as events on a single long-lived span, so a
// diagnostic session shows up as one trace in the collector.
type SpanSink struct {
	mu    sync.Mutex
	span  trace.Span
	ended bool
}

// NewSpanSink starts the session span using tracer.
func NewSpanSink(tracer trace.Tracer, name string) *SpanSink {
	_, span := tracer.Start(context.Background(), name)
	return &SpanSink{span: span}
}

// Write implements Sink.
func (s *SpanSink) Write(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.span.AddEvent(e.Message,
		trace.WithTimestamp(e.Time),
		trace.WithAttributes(attribute.String("log.level", e.Level.String())),
	)
}

// End ends the session span. Later writes are ignored.
func (s *SpanSink) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.ended = true
	s.span.End(trace.WithTimestamp(time.Now()))
}
