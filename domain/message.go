package domain

import (
	"time"

	"github.com/google/uuid"
)

// Message represents an immutable chat event received on a conversation
// channel. Ordinal is assigned by the owning conversation log on arrival and
// strictly increases per conversation; the platform provides no server-side
// sequence number.
type Message struct {
	ID      uuid.UUID
	Ordinal uint64
	Sender  string
	Text    string
	SentAt  time.Time
}
