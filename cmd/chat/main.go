package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"

	"campuslink/api"
	"campuslink/auth"
	"campuslink/channel"
	"campuslink/conversation"
	"campuslink/credentials"
	"campuslink/domain"
	"campuslink/internal"
	"campuslink/session"
)

// Exit codes for the chat client.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// chatConfig defines the CLI-only environment variables; the shared client
// settings live in internal.Config.
type chatConfig struct {
	ConversationID string `env:"CHAT_CONVERSATION_ID,default=1"`
	Username       string `env:"CHAT_USERNAME"`
	Password       string `env:"CHAT_PASSWORD"`
}

func main() {
	// The main function manages the OS exit code based on run()'s return.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Chat client error: %v\n", err)
	}
	os.Exit(code)
}

// run wires the session layer and the channel layer, then streams one
// conversation until interrupted.
func run() (int, error) {
	// 1. Load configuration from .env and environment variables.
	_ = godotenv.Load()

	var cfg internal.Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	var chat chatConfig
	if _, err := env.UnmarshalFromEnviron(&chat); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	log := logs.GetLoggerFromString(cfg.LogLevel)

	// 2. Setup context to handle termination signals (Ctrl+C).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Durable credential store; a restart resumes the previous session
	// without asking for the password again.
	opts := badger.DefaultOptions(cfg.CredentialDBPath).WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		return exitRuntime, fmt.Errorf("credential store opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing credential store...")
		_ = db.Close()
	}()

	// 4. Assemble the core: store -> session gate -> channels.
	store := credentials.NewBadgerStore(db, log)
	tokenAPI := api.NewClient(cfg.RESTBase(), cfg.HTTPTimeout, log)
	sessions := session.NewManager(store, tokenAPI, cfg.SkewTolerance, cfg.RefreshTimeout, log)
	book := conversation.NewBook()
	channels := channel.NewManager(sessions, book, channel.Options{
		Endpoint:         cfg.ChannelBase(),
		DialTimeout:      cfg.DialTimeout,
		ReconnectInitial: cfg.ReconnectInitialInterval,
		ReconnectMax:     cfg.ReconnectMaxInterval,
		MaxReconnects:    cfg.ReconnectMaxAttempts,
	}, log)
	gate := auth.NewGate(store, tokenAPI, channels, log)
	defer gate.Close()

	unsubscribe := gate.Subscribe(func(s domain.Session) {
		if s.State == domain.Anonymous || s.State == domain.Expired {
			log.Info("Session ended, log in again to continue", "state", s.State.String())
		}
	})
	defer unsubscribe()

	// 5. Authenticate unless a stored session survived the restart.
	if gate.Session().State != domain.Authenticated {
		if chat.Username == "" {
			return exitConfig, fmt.Errorf("no stored session: set CHAT_USERNAME and CHAT_PASSWORD")
		}
		if err := gate.LoginWithPassword(ctx, chat.Username, chat.Password); err != nil {
			return exitRuntime, fmt.Errorf("login failed: %w", err)
		}
	}
	me := gate.Session().Identity

	// 6. Open the conversation channel.
	handle, err := channels.Open(ctx, chat.ConversationID)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not open channel: %w", err)
	}
	defer channels.CloseAll()

	log.Info(">>> Connected! Listening conversation (Ctrl+C to quit)...",
		"conversation", chat.ConversationID, "as", me.Username)

	// 7. Forward stdin lines as outbound frames. A send during a reconnect
	// fails fast rather than being queued; the user retypes it.
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			text := strings.TrimSpace(scanner.Text())
			if text == "" {
				continue
			}
			if err := handle.Send(text); err != nil {
				log.Warn("Message not sent", "err", err)
			}
		}
	}()

	// 8. Event loop: render inbound messages and connection transitions.
	for {
		select {
		case <-ctx.Done():
			log.Info("Stopping client...")
			return exitOK, nil
		case e := <-channels.Events():
			switch evt := e.(type) {
			case channel.MessageReceived:
				marker := " "
				if evt.Message.Sender == me.Username {
					marker = "*"
				}
				fmt.Printf("[%s]%s %s: %s\n",
					evt.Message.SentAt.Format(time.TimeOnly),
					marker,
					evt.Message.Sender,
					evt.Message.Text,
				)
			case channel.Connected:
				log.Info("Channel open", "conversation", evt.ID)
			case channel.Disconnected:
				log.Warn("Connection lost, reconnecting...", "conversation", evt.ID)
			case channel.ReconnectExhausted:
				return exitRuntime, fmt.Errorf("gave up reconnecting: %w", evt.Cause)
			}
		}
	}
}
