package logger

import (
	"sync"
	"time"
)

// Entry is one captured warn/error log line.
type Entry struct {
	Time    time.Time              `json:"time"`
	Level   string                 `json:"level"`
	Message string                 `json:"message"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
}

// Buffer is a bounded ring of recent log entries. Oldest entries are
// discarded once capacity is reached.
type Buffer struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
}

func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = 500
	}
	return &Buffer{entries: make([]Entry, capacity)}
}

func (b *Buffer) Add(level, msg string, fields map[string]interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[b.next] = Entry{Time: time.Now(), Level: level, Message: msg, Fields: fields}
	b.next++
	if b.next == len(b.entries) {
		b.next = 0
		b.full = true
	}
}

// Recent returns up to limit entries, newest last.
func (b *Buffer) Recent(limit int) []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	var ordered []Entry
	if b.full {
		ordered = append(ordered, b.entries[b.next:]...)
		ordered = append(ordered, b.entries[:b.next]...)
	} else {
		ordered = append(ordered, b.entries[:b.next]...)
	}
	if limit > 0 && len(ordered) > limit {
		ordered = ordered[len(ordered)-limit:]
	}
	return ordered
}
