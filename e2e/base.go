package e2e

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"

	"campuslink/api"
	"campuslink/auth"
	"campuslink/channel"
	"campuslink/conversation"
	"campuslink/credentials"
	"campuslink/session"
)

// BaseSuite wires a complete client stack against an in-process stub platform.
// Each test gets a fresh platform, a fresh in-memory credential store and a
// fresh channel manager, so scenarios cannot bleed into each other.
type BaseSuite struct {
	suite.Suite
	Config Config

	platform *platform
	db       *badger.DB
	store    credentials.Store
	tokens   *api.Client
	session  *session.Manager
	book     *conversation.Book
	channels *channel.Manager
	gate     *auth.Gate
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
}

func (s *BaseSuite) TearDownTest() {
	if s.gate != nil {
		s.gate.Close()
	}
	if s.channels != nil {
		s.channels.CloseAll()
	}
	if s.db != nil {
		s.Require().NoError(s.db.Close())
	}
	if s.platform != nil {
		s.platform.close()
	}
}

// StartPlatform boots the stub backend. accessTTL controls how long the
// access tokens it signs stay valid.
func (s *BaseSuite) StartPlatform(username, password string, accessTTL time.Duration) {
	s.platform = newPlatform(username, password, accessTTL)
	if s.Config.DebugFrames {
		s.platform.logFrame = func(direction, payload string) {
			s.T().Logf("PLATFORM %s %q", direction, payload)
		}
	}
}

// StartClient assembles the full client stack against the running platform.
// skew is the session manager's renewal margin.
func (s *BaseSuite) StartClient(skew time.Duration) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR))
	s.Require().NoError(err)
	s.db = db

	s.store = credentials.NewBadgerStore(db, log)
	s.tokens = api.NewClient(s.platform.restBase(), 5*time.Second, log)
	s.session = session.NewManager(s.store, s.tokens, skew, 5*time.Second, log)
	s.book = conversation.NewBook()
	s.channels = channel.NewManager(s.session, s.book, channel.Options{
		Endpoint:         s.platform.channelBase(),
		DialTimeout:      5 * time.Second,
		ReconnectInitial: 20 * time.Millisecond,
		ReconnectMax:     200 * time.Millisecond,
		MaxReconnects:    5,
	}, log)
	s.gate = auth.NewGate(s.store, s.tokens, s.channels, log)
}

// Step prints a colorized header so a failing scenario reads top-down in logs
func (s *BaseSuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// NextEvent blocks for the next channel event, failing the test on timeout.
func (s *BaseSuite) NextEvent() channel.Event {
	select {
	case e := <-s.channels.Events():
		return e
	case <-time.After(5 * time.Second):
		s.FailNow("timed out waiting for a channel event")
		return nil
	}
}

// NextEventOfType drains events until one of type T arrives.
func NextEventOfType[T channel.Event](s *BaseSuite) T {
	deadline := time.After(5 * time.Second)
	for {
		select {
		case e := <-s.channels.Events():
			if typed, ok := e.(T); ok {
				return typed
			}
		case <-deadline:
			var zero T
			s.FailNowf("timed out waiting for a channel event", "wanted %T", zero)
			return zero
		}
	}
}
