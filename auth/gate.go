//go:generate go run go.uber.org/mock/mockgen -source=gate.go -destination=../mocks/mock_channel_closer.go -package=mocks
package auth

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"campuslink/api"
	"campuslink/credentials"
	"campuslink/domain"
)

// ChannelCloser tears down every live conversation channel on logout.
type ChannelCloser interface {
	CloseAll()
}

// Gate owns the login and logout operations and derives the coarse session
// state the UI routes on. It never polls: a subscription to the credential
// store recomputes the state whenever storage changes, which is also how a
// silent expiry (the session manager clearing a dead pair) reaches the UI.
type Gate struct {
	store    credentials.Store
	tokens   api.TokenAPI
	channels ChannelCloser
	log      *slog.Logger
	now      func() time.Time

	loginMu        sync.Mutex
	authenticating atomic.Bool

	subMu       sync.Mutex
	subs        map[int]func(domain.Session)
	nextSub     int
	unsubscribe func()
}

func NewGate(store credentials.Store, tokens api.TokenAPI, channels ChannelCloser, log *slog.Logger) *Gate {
	g := &Gate{
		store:    store,
		tokens:   tokens,
		channels: channels,
		log:      log,
		now:      time.Now,
		subs:     make(map[int]func(domain.Session)),
	}
	g.unsubscribe = store.Subscribe(func(c domain.Credential, present bool) {
		g.notify(domain.SessionOf(c, present, g.now()))
	})
	return g
}

// Session recomputes the current state from the store on every read.
func (g *Gate) Session() domain.Session {
	if g.authenticating.Load() {
		return domain.Session{State: domain.Authenticating}
	}
	c, ok := g.store.Read()
	return domain.SessionOf(c, ok, g.now())
}

// LoginWithPassword exchanges a username and password for a credential pair.
// A denied attempt surfaces ErrRejectedCredentials and leaves the store
// untouched; a transport failure surfaces ErrConnectivity instead.
func (g *Gate) LoginWithPassword(ctx context.Context, username, password string) error {
	g.loginMu.Lock()
	defer g.loginMu.Unlock()
	g.authenticating.Store(true)
	defer g.authenticating.Store(false)

	cred, err := g.tokens.IssueToken(ctx, username, password)
	if err != nil {
		return err
	}
	return g.store.Write(cred)
}

// LoginWithFace ships a captured image to the server-side matcher. Success
// and failure behave exactly like password login; the client is purely a
// transport for the capture and the returned pair.
func (g *Gate) LoginWithFace(ctx context.Context, image []byte) error {
	g.loginMu.Lock()
	defer g.loginMu.Unlock()
	g.authenticating.Store(true)
	defer g.authenticating.Store(false)

	cred, err := g.tokens.FaceLogin(ctx, image)
	if err != nil {
		return err
	}
	return g.store.Write(cred)
}

// Logout closes every open channel, clears the stored pair and leaves the
// gate Anonymous. The store clear bumps the generation, so a renewal still
// in flight cannot resurrect the session.
func (g *Gate) Logout() {
	if g.channels != nil {
		g.channels.CloseAll()
	}
	if err := g.store.Clear(); err != nil {
		g.log.Warn("Clearing credential store on logout", "err", err)
	}
}

// Subscribe registers fn, invoked with the recomputed session after every
// storage change. The returned function unregisters it.
func (g *Gate) Subscribe(fn func(domain.Session)) func() {
	g.subMu.Lock()
	defer g.subMu.Unlock()
	id := g.nextSub
	g.nextSub++
	g.subs[id] = fn
	return func() {
		g.subMu.Lock()
		defer g.subMu.Unlock()
		delete(g.subs, id)
	}
}

// Close detaches the gate from the store.
func (g *Gate) Close() {
	if g.unsubscribe != nil {
		g.unsubscribe()
	}
}

func (g *Gate) notify(s domain.Session) {
	g.subMu.Lock()
	defer g.subMu.Unlock()
	for _, fn := range g.subs {
		fn(s)
	}
}
