// Package conversation holds the per-conversation message logs fed by the
// channel layer and read by the UI. Logs are append-only projections of
// observed frames; nothing here emits events or touches the network.
package conversation

import (
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"

	"campuslink/domain"
)

// Book owns one log per conversation for the lifetime of a page visit.
// Logs are not persisted: a reload re-fetches history over REST and reopens
// the channel for new messages only.
type Book struct {
	mu   sync.Mutex
	logs map[string]*Log
}

func NewBook() *Book {
	return &Book{logs: make(map[string]*Log)}
}

// Log returns the log for id, creating it on first use.
func (b *Book) Log(id string) *Log {
	b.mu.Lock()
	defer b.mu.Unlock()
	l, ok := b.logs[id]
	if !ok {
		l = &Log{id: id}
		b.logs[id] = l
	}
	return l
}

// Drop discards the log for id, e.g. when the conversation view is torn down.
func (b *Book) Drop(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.logs, id)
}

// DropAll discards every log, e.g. on logout.
func (b *Book) DropAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logs = make(map[string]*Log)
}

// Log is the ordered message log of one conversation. Entries are never
// mutated after insertion.
type Log struct {
	id      string
	mu      sync.Mutex
	next    uint64
	entries []domain.Message
}

// Append records an inbound message in arrival order and returns it with its
// assigned ordinal. Ordinals strictly increase per conversation; they are
// client-assigned since the platform provides no sequence number, so a frame
// lost during a disconnect is not detectable here.
func (l *Log) Append(sender, text string, at time.Time) domain.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.next++
	msg := domain.Message{
		ID:      uuid.New(),
		Ordinal: l.next,
		Sender:  sender,
		Text:    text,
		SentAt:  at,
	}
	l.entries = append(l.entries, msg)
	return msg
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// All returns a restartable sequence over the log from the start.
func (l *Log) All() iter.Seq[domain.Message] {
	return func(yield func(domain.Message) bool) {
		for _, m := range l.Snapshot() {
			if !yield(m) {
				return
			}
		}
	}
}

// Snapshot copies the current entries. Messages are immutable, so the copy
// is safe to read without further locking.
func (l *Log) Snapshot() []domain.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Message, len(l.entries))
	copy(out, l.entries)
	return out
}
