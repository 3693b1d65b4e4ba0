package channel

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"

	"campuslink/errors"
)

// State is the lifecycle position of a Handle.
type State int32

const (
	StateCreated State = iota
	StateConnecting
	StateOpen
	StateReconnecting
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "Created"
	case StateConnecting:
		return "Connecting"
	case StateOpen:
		return "Open"
	case StateReconnecting:
		return "Reconnecting"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

type outboundFrame struct {
	Message string `json:"message"`
}

type inboundFrame struct {
	Username  string `json:"username"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Handle is the per-conversation connection object. At most one non-closed
// Handle exists per conversation; a closed one is discarded, never
// resurrected.
type Handle struct {
	id        string
	m         *Manager
	state     atomic.Int32
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once

	connMu sync.Mutex
	conn   Conn
}

func (h *Handle) ID() string { return h.id }

func (h *Handle) State() State {
	return State(h.state.Load())
}

func (h *Handle) setState(s State) {
	h.state.Store(int32(s))
}

func (h *Handle) casState(from, to State) bool {
	return h.state.CompareAndSwap(int32(from), int32(to))
}

// Send transmits exactly one outbound frame. It is valid only while Open:
// during a reconnect the caller gets ErrChannelNotReady instead of a
// silently queued frame, so an ambiguous failure can never turn into a
// duplicate delivery.
func (h *Handle) Send(text string) error {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.State() != StateOpen || h.conn == nil {
		return errors.ErrChannelNotReady
	}
	if err := h.conn.WriteJSON(outboundFrame{Message: text}); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrConnectivity, err)
	}
	return nil
}

// Close cancels any in-flight reconnect, closes the transport and discards
// the handle. Open on the same conversation afterwards creates a new handle.
func (h *Handle) Close() {
	h.closeOnce.Do(func() {
		h.setState(StateClosed)
		h.cancel()
		h.connMu.Lock()
		if h.conn != nil {
			_ = h.conn.Close()
			h.conn = nil
		}
		h.connMu.Unlock()
		h.m.discard(h)
	})
}

// connect fetches a currently-valid token and dials. The token is fetched
// fresh on every call: it may well have expired since the channel was first
// opened, so renewal is re-checked per attempt, never assumed still valid.
// Session errors propagate unchanged and no transport is attempted for them.
func (h *Handle) connect(ctx context.Context) error {
	token, err := h.m.tokens.AuthorizedToken(ctx)
	if err != nil {
		return err
	}

	dctx, cancel := context.WithTimeout(ctx, h.m.opts.DialTimeout)
	defer cancel()
	conn, err := h.m.dial.DialContext(dctx, h.m.channelURL(h.id, token))
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrConnectivity, err)
	}

	if !h.adopt(conn) {
		return errors.ErrChannelClosed
	}
	h.m.emit(Connected{ID: h.id})
	go h.readLoop(conn)
	return nil
}

// adopt installs the transport and transitions to Open, unless the handle
// was closed while the dial was in flight; then the fresh transport must not
// leak and is closed immediately.
func (h *Handle) adopt(conn Conn) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.State() == StateClosed {
		_ = conn.Close()
		return false
	}
	h.conn = conn
	h.setState(StateOpen)
	return true
}

func (h *Handle) readLoop(conn Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if h.State() == StateClosed || h.ctx.Err() != nil {
				return
			}
			h.lost(err)
			return
		}
		h.deliver(data)
	}
}

func (h *Handle) deliver(data []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		h.m.log.Warn("Dropping malformed frame", "conversation", h.id, "err", err)
		return
	}
	msg := h.m.book.Log(h.id).Append(frame.Username, frame.Message, parseTimestamp(frame.Timestamp))
	h.m.emit(MessageReceived{ID: h.id, Message: msg})
}

// lost transitions an Open handle to Reconnecting after a transport-level
// failure. A handle never silently stays Open once its transport is gone.
func (h *Handle) lost(cause error) {
	h.connMu.Lock()
	if h.conn != nil {
		_ = h.conn.Close()
		h.conn = nil
	}
	h.connMu.Unlock()

	if !h.casState(StateOpen, StateReconnecting) {
		// Explicitly closed in the meantime.
		return
	}
	h.m.log.Info("Channel transport lost, reconnecting", "conversation", h.id, "cause", cause)
	h.m.emit(Disconnected{ID: h.id, Cause: cause})
	go h.reconnect()
}

// reconnect retries the connection with bounded exponential backoff,
// re-validating the token on every attempt. Sends are never retried here;
// only the connection is. Exhausting the attempts is terminal: the handle
// ends up Closed and the UI gets a ReconnectExhausted event.
func (h *Handle) reconnect() {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = h.m.opts.ReconnectInitial
	policy.MaxInterval = h.m.opts.ReconnectMax
	policy.MaxElapsedTime = 0

	op := func() error {
		err := h.connect(h.ctx)
		switch {
		case err == nil:
			return nil
		case stderrors.Is(err, errors.ErrUnauthenticated),
			stderrors.Is(err, errors.ErrSessionExpired),
			stderrors.Is(err, errors.ErrChannelClosed):
			// Not fixable by dialing again.
			return backoff.Permanent(err)
		default:
			h.m.log.Debug("Reconnect attempt failed", "conversation", h.id, "err", err)
			return err
		}
	}

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(policy, h.m.opts.MaxReconnects), h.ctx))
	if err == nil {
		return
	}
	if stderrors.Is(err, errors.ErrChannelClosed) || h.ctx.Err() != nil {
		// Explicit close cancelled the backoff; nothing to report.
		return
	}

	h.setState(StateClosed)
	h.m.discard(h)
	h.m.emit(ReconnectExhausted{ID: h.id, Cause: err})
}

func parseTimestamp(raw string) time.Time {
	if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts
	}
	// Malformed or absent; arrival time is the best remaining ordering hint.
	return time.Now()
}
