//go:generate go run go.uber.org/mock/mockgen -source=manager.go -destination=../mocks/mock_token_source.go -package=mocks
package channel

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"campuslink/conversation"
	"campuslink/errors"
)

// TokenSource yields a currently-valid access token; the session manager
// satisfies this.
type TokenSource interface {
	AuthorizedToken(ctx context.Context) (string, error)
}

// Conn is the minimal transport surface the channel layer uses.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v any) error
	Close() error
}

// Dialer opens a Conn to a fully-formed channel URL.
type Dialer interface {
	DialContext(ctx context.Context, rawURL string) (Conn, error)
}

type wsDialer struct {
	d *websocket.Dialer
}

func (w wsDialer) DialContext(ctx context.Context, rawURL string) (Conn, error) {
	conn, resp, err := w.d.DialContext(ctx, rawURL, nil)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}
		return nil, err
	}
	return conn, nil
}

// Options bound every timer in the channel layer.
type Options struct {
	// Endpoint is the channel base, e.g. "ws://localhost:8000".
	Endpoint         string
	DialTimeout      time.Duration
	ReconnectInitial time.Duration
	ReconnectMax     time.Duration
	// MaxReconnects bounds the retry attempts after a transport loss.
	MaxReconnects uint64
	EventBuffer   int
}

func (o *Options) fillDefaults() {
	if o.DialTimeout <= 0 {
		o.DialTimeout = 10 * time.Second
	}
	if o.ReconnectInitial <= 0 {
		o.ReconnectInitial = 500 * time.Millisecond
	}
	if o.ReconnectMax <= 0 {
		o.ReconnectMax = 15 * time.Second
	}
	if o.MaxReconnects == 0 {
		o.MaxReconnects = 6
	}
	if o.EventBuffer <= 0 {
		o.EventBuffer = 64
	}
}

// Manager maintains one live, authenticated, ordered message channel per
// conversation. Inbound frames feed the conversation book; state changes
// surface as typed events.
type Manager struct {
	tokens TokenSource
	dial   Dialer
	book   *conversation.Book
	opts   Options
	log    *slog.Logger
	events chan Event

	mu      sync.Mutex
	handles map[string]*Handle
}

func NewManager(tokens TokenSource, book *conversation.Book, opts Options, log *slog.Logger) *Manager {
	opts.fillDefaults()
	return &Manager{
		tokens:  tokens,
		dial:    wsDialer{d: &websocket.Dialer{HandshakeTimeout: opts.DialTimeout}},
		book:    book,
		opts:    opts,
		log:     log,
		events:  make(chan Event, opts.EventBuffer),
		handles: make(map[string]*Handle),
	}
}

// Events is the stream of typed channel events. Delivery is best effort: a
// consumer that stops draining loses events rather than wedging the channel.
func (m *Manager) Events() <-chan Event {
	return m.events
}

// Open returns the live handle for conversationID, dialing one if none
// exists. A valid token is obtained first; session errors propagate
// unchanged and no transport connection is attempted without one. Opening a
// conversation that already has a non-closed handle returns that handle.
func (m *Manager) Open(ctx context.Context, conversationID string) (*Handle, error) {
	m.mu.Lock()
	if h, ok := m.handles[conversationID]; ok && h.State() != StateClosed {
		m.mu.Unlock()
		return h, nil
	}
	hctx, cancel := context.WithCancel(context.Background())
	h := &Handle{id: conversationID, m: m, ctx: hctx, cancel: cancel}
	h.setState(StateCreated)
	m.handles[conversationID] = h
	m.mu.Unlock()

	h.setState(StateConnecting)
	if err := h.connect(ctx); err != nil {
		h.Close()
		return nil, err
	}
	return h, nil
}

// Send transmits one frame on the conversation's channel. Without a live
// Open handle this fails with ErrChannelNotReady; nothing is buffered.
func (m *Manager) Send(conversationID, text string) error {
	m.mu.Lock()
	h, ok := m.handles[conversationID]
	m.mu.Unlock()
	if !ok {
		return errors.ErrChannelNotReady
	}
	return h.Send(text)
}

// Close tears down the channel for one conversation, cancelling any pending
// reconnect. The conversation log is dropped with the view.
func (m *Manager) Close(conversationID string) {
	m.mu.Lock()
	h, ok := m.handles[conversationID]
	m.mu.Unlock()
	if ok {
		h.Close()
	}
	m.book.Drop(conversationID)
}

// CloseAll tears down every channel, e.g. on logout.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	open := make([]*Handle, 0, len(m.handles))
	for _, h := range m.handles {
		open = append(open, h)
	}
	m.mu.Unlock()
	for _, h := range open {
		h.Close()
	}
	m.book.DropAll()
}

func (m *Manager) discard(h *Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handles[h.id] == h {
		delete(m.handles, h.id)
	}
}

func (m *Manager) emit(e Event) {
	select {
	case m.events <- e:
	default:
		m.log.Warn("Dropping channel event, consumer too slow", "event", fmt.Sprintf("%T", e))
	}
}

// channelURL builds the per-conversation endpoint. The protocol has no
// per-frame auth header, so the access token rides as a query parameter.
func (m *Manager) channelURL(conversationID, token string) string {
	return fmt.Sprintf("%s/ws/chat/%s/?token=%s",
		strings.TrimRight(m.opts.Endpoint, "/"),
		url.PathEscape(conversationID),
		url.QueryEscape(token),
	)
}
