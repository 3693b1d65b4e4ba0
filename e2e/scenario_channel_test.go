package e2e

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"campuslink/channel"
)

type testChannelSuite struct {
	BaseSuite
}

func TestChannelSuite(t *testing.T) {
	suite.Run(t, &testChannelSuite{})
}

// The full channel lifecycle against a live websocket: open, send, lose the
// transport, come back, and keep the conversation log ordered throughout.
func (s *testChannelSuite) TestChannelSurvivesTransportLoss() {
	s.StartPlatform("alice", "s3cret", time.Hour)
	s.StartClient(30 * time.Second)
	s.Require().NoError(s.gate.LoginWithPassword(context.Background(), "alice", "s3cret"))

	s.Step("Open the channel for conversation 42")
	h, err := s.channels.Open(context.Background(), "42")
	s.Require().NoError(err)
	s.Require().Equal(channel.StateOpen, h.State())
	NextEventOfType[channel.Connected](&s.BaseSuite)

	s.Step("Send one frame and get exactly one echo back")
	s.Require().NoError(h.Send("hi"))
	echoed := NextEventOfType[channel.MessageReceived](&s.BaseSuite)
	s.Require().Equal("hi", echoed.Message.Text)
	s.Require().Equal(uint64(1), echoed.Message.Ordinal)
	s.Require().Equal("alice", echoed.Message.Sender)

	s.Step("Kill the transport server-side")
	s.platform.dropConnections()
	NextEventOfType[channel.Disconnected](&s.BaseSuite)

	s.Step("The handle reconnects on its own")
	NextEventOfType[channel.Connected](&s.BaseSuite)
	s.Require().Equal(channel.StateOpen, h.State())

	s.Step("The log continues in order with no duplicate of the old frame")
	s.Require().NoError(h.Send("back again"))
	echoed = NextEventOfType[channel.MessageReceived](&s.BaseSuite)
	s.Require().Equal("back again", echoed.Message.Text)
	s.Require().Equal(uint64(2), echoed.Message.Ordinal)

	var texts []string
	for m := range s.book.Log("42").All() {
		texts = append(texts, m.Text)
	}
	s.Require().Equal([]string{"hi", "back again"}, texts)
}

func (s *testChannelSuite) TestReconnectExhaustionIsTerminal() {
	s.StartPlatform("alice", "s3cret", time.Hour)
	s.StartClient(30 * time.Second)
	s.Require().NoError(s.gate.LoginWithPassword(context.Background(), "alice", "s3cret"))

	h, err := s.channels.Open(context.Background(), "42")
	s.Require().NoError(err)
	NextEventOfType[channel.Connected](&s.BaseSuite)

	s.Step("Take the platform down for good")
	s.platform.close()
	s.platform = nil

	s.Step("The handle retries, gives up and closes")
	exhausted := NextEventOfType[channel.ReconnectExhausted](&s.BaseSuite)
	s.Require().Equal("42", exhausted.ID)
	s.Require().Equal(channel.StateClosed, h.State())
}

func (s *testChannelSuite) TestTwoConversationsAreIndependent() {
	s.StartPlatform("alice", "s3cret", time.Hour)
	s.StartClient(30 * time.Second)
	s.Require().NoError(s.gate.LoginWithPassword(context.Background(), "alice", "s3cret"))

	first, err := s.channels.Open(context.Background(), "42")
	s.Require().NoError(err)
	second, err := s.channels.Open(context.Background(), "43")
	s.Require().NoError(err)
	s.Require().NotSame(first, second)

	s.Require().NoError(first.Send("to 42"))
	s.Require().NoError(second.Send("to 43"))

	for range 2 {
		got := NextEventOfType[channel.MessageReceived](&s.BaseSuite)
		switch got.Conversation() {
		case "42":
			s.Require().Equal("to 42", got.Message.Text)
		case "43":
			s.Require().Equal("to 43", got.Message.Text)
		default:
			s.FailNowf("unexpected conversation", "got %s", got.Conversation())
		}
	}
	s.Require().Equal(1, s.book.Log("42").Len())
	s.Require().Equal(1, s.book.Log("43").Len())
}
