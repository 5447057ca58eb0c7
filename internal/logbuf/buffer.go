package logbuf

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Entry is a single log record. Entries are immutable once appended.
type Entry struct {
	Level   Level
	Time    time.Time
	Message string
}

// Sink receives a copy of every retained entry in diagnostic mode.
type Sink interface {
	Write(e Entry)
}

// Buffer is an ordered, append-only sequence of log entries.
//
// Append may be called from any goroutine. Readers obtain copies, so a
// presentation layer can drain the buffer while appends continue.
type Buffer struct {
	mu      sync.RWMutex
	entries []Entry

	mode  Mode
	clock clockwork.Clock

	// sinkMu is held for the whole of Append, outside mu.
	sinkMu sync.Mutex
	sinks  []Sink

	subMu   sync.Mutex
	subs    map[int]func(Entry)
	nextSub int
}

// Option configures a Buffer.
type Option func(*Buffer)

// WithMode sets the retention mode.
func WithMode(m Mode) Option {
	return func(b *Buffer) {
		b.mode = m
	}
}

// WithClock sets the clock used to timestamp entries.
func WithClock(c clockwork.Clock) Option {
	return func(b *Buffer) {
		b.clock = c
	}
}

// WithSink adds a diagnostic sink.
func WithSink(s Sink) Option {
	return func(b *Buffer) {
		if s != nil {
			b.sinks = append(b.sinks, s)
		}
	}
}

// New creates an empty buffer.
func New(opts ...Option) *Buffer {
	b := &Buffer{
		mode:  DefaultMode,
		clock: clockwork.NewRealClock(),
		subs:  make(map[int]func(Entry)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Mode returns the retention mode.
func (b *Buffer) Mode() Mode {
	return b.mode
}

// AddSink registers an additional diagnostic sink.
func (b *Buffer) AddSink(s Sink) {
	if s == nil {
		return
	}
	b.sinkMu.Lock()
	defer b.sinkMu.Unlock()
	b.sinks = append(b.sinks, s)
}

// Append adds an entry stamped with the current time.
// In production mode Trace and Debug entries are dropped.
func (b *Buffer) Append(level Level, message string) {
	if b.mode == ModeProduction && level.IsVerbose() {
		return
	}

	// sinkMu orders appends, so timestamps never decrease and sinks see
	// entries in the order they were retained.
	b.sinkMu.Lock()
	b.mu.Lock()
	e := Entry{Level: level, Time: b.clock.Now(), Message: message}
	b.entries = append(b.entries, e)
	b.mu.Unlock()

	if b.mode == ModeDiagnostic {
		for _, s := range b.sinks {
			s.Write(e)
		}
	}
	b.sinkMu.Unlock()

	b.notify(e)
}

func (b *Buffer) notify(e Entry) {
	b.subMu.Lock()
	fns := make([]func(Entry), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.subMu.Unlock()

	for _, fn := range fns {
		fn(e)
	}
}

// Subscribe registers fn to be called after each retained append.
// fn runs on the appending goroutine and must not block.
// The returned function cancels the subscription.
func (b *Buffer) Subscribe(fn func(Entry)) (cancel func()) {
	b.subMu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = fn
	b.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.subMu.Lock()
			delete(b.subs, id)
			b.subMu.Unlock()
		})
	}
}

// Len returns the number of retained entries.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Snapshot returns a copy of all retained entries in insertion order.
func (b *Buffer) Snapshot() []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Since returns a copy of the entries appended after the first n.
func (b *Buffer) Since(n int) []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if n < 0 {
		n = 0
	}
	if n >= len(b.entries) {
		return nil
	}
	out := make([]Entry, len(b.entries)-n)
	copy(out, b.entries[n:])
	return out
}
