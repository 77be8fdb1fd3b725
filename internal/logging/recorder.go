package logging

import (
	"fmt"
	"strings"
	"sync"
)

// Level names used by Recorder entries.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// Entry is one message captured by a Recorder.
type Entry struct {
	Level string
	Msg   string
	KV    []any
}

// String renders the entry as "LEVEL msg k=v ...".
func (e Entry) String() string {
	var b strings.Builder
	b.WriteString(e.Level)
	b.WriteByte(' ')
	b.WriteString(e.Msg)
	for i := 0; i+1 < len(e.KV); i += 2 {
		fmt.Fprintf(&b, " %v=%v", e.KV[i], e.KV[i+1])
	}
	return b.String()
}

// Recorder is an in-memory Sink, mainly for tests. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) add(level, msg string, kv []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Level: level, Msg: msg, KV: kv})
}

func (r *Recorder) Debug(msg string, kv ...any) { r.add(LevelDebug, msg, kv) }
func (r *Recorder) Info(msg string, kv ...any)  { r.add(LevelInfo, msg, kv) }
func (r *Recorder) Warn(msg string, kv ...any)  { r.add(LevelWarn, msg, kv) }
func (r *Recorder) Error(msg string, kv ...any) { r.add(LevelError, msg, kv) }

// Entries returns a copy of everything recorded so far.
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Count returns how many entries were recorded at level.
func (r *Recorder) Count(level string) int {
	n := 0
	for _, e := range r.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}

// Contains reports whether an entry at level has a message containing substr.
func (r *Recorder) Contains(level, substr string) bool {
	for _, e := range r.Entries() {
		if e.Level == level && strings.Contains(e.Msg, substr) {
			return true
		}
	}
	return false
}
