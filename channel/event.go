package channel

import "campuslink/domain"

// Event is a typed notification emitted by the channel layer. The UI
// consumes these instead of raw socket callbacks, which keeps the reconnect
// logic testable independent of the transport binding.
type Event interface {
	Conversation() string
}

// Connected fires when a channel reaches Open, both on first connect and
// after a successful reconnect.
type Connected struct {
	ID string
}

func (e Connected) Conversation() string { return e.ID }

// Disconnected fires when an Open channel loses its transport and enters
// Reconnecting. The UI shows a reconnecting indicator, not an error page.
type Disconnected struct {
	ID    string
	Cause error
}

func (e Disconnected) Conversation() string { return e.ID }

// MessageReceived fires for every inbound frame after it was appended to the
// conversation log.
type MessageReceived struct {
	ID      string
	Message domain.Message
}

func (e MessageReceived) Conversation() string { return e.ID }

// ReconnectExhausted fires when the bounded reconnect attempts are used up.
// The handle is Closed and discarded; this is a terminal connectivity error.
type ReconnectExhausted struct {
	ID    string
	Cause error
}

func (e ReconnectExhausted) Conversation() string { return e.ID }
