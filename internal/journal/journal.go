// Package journal keeps a record of dispatches: which strategy ran, how it
// ended and how long it took. Receipt text is never recorded.
package journal

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// maxErrorLen caps the failure text kept per entry.
const maxErrorLen = 512

// Entry describes one finished dispatch.
type Entry struct {
	ID         string    `json:"id"`
	Strategy   string    `json:"strategy"`
	OK         bool      `json:"ok"`
	Kind       string    `json:"kind,omitempty"`
	ExitCode   int       `json:"exit_code"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
}

// SetError stores msg, truncated to a bounded length on a rune boundary.
func (e *Entry) SetError(msg string) {
	if len(msg) > maxErrorLen {
		n := maxErrorLen
		for n > 0 && !utf8.RuneStart(msg[n]) {
			n--
		}
		msg = msg[:n] + "..."
	}
	e.Error = msg
}

// Sink is what the dispatcher records into.
//
// Record must not panic and has no error return; callers assume it may be a
// no-op.
type Sink interface {
	Record(entry Entry)
}

// NopSink discards all entries.
type NopSink struct{}

func (NopSink) Record(Entry) {}

// SafeRecord records entry and swallows any panic from a misbehaving sink.
func SafeRecord(s Sink, entry Entry) {
	if s == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	s.Record(entry)
}

// Multi fans each entry out to every sink in order.
type Multi []Sink

func (m Multi) Record(entry Entry) {
	for _, s := range m {
		SafeRecord(s, entry)
	}
}

// DefaultCapacity is the Recorder size used when none is given.
const DefaultCapacity = 100

// Recorder is a bounded, concurrency-safe in-memory journal. Once full, the
// oldest entry is dropped for each new one.
type Recorder struct {
	mu       sync.Mutex
	capacity int
	entries  []Entry
}

func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Recorder{capacity: capacity}
}

func (r *Recorder) Record(entry Entry) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.entries) >= r.capacity {
		n := copy(r.entries, r.entries[1:])
		r.entries = r.entries[:n]
	}
	r.entries = append(r.entries, entry)
}

// Snapshot returns a copy of the recorded entries, oldest first.
func (r *Recorder) Snapshot() []Entry {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

type idKey struct{}

// WithID attaches a dispatch ID to ctx.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, idKey{}, id)
}

// IDFrom returns the dispatch ID carried by ctx, if any.
func IDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(idKey{}).(string)
	return id, ok && id != ""
}

// NewID returns a fresh random dispatch ID.
func NewID() string {
	return uuid.NewString()
}
