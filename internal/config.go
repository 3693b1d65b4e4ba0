package internal

import (
	"fmt"
	"time"
)

// Config defines the client environment variables. The platform host is
// resolved at runtime rather than hardcoded, mirroring how the browser
// surface derives it from the page location.
type Config struct {
	PlatformHost string `env:"PLATFORM_HOST,default=localhost"`
	PlatformPort int    `env:"PLATFORM_PORT,default=8000"`

	CredentialDBPath string `env:"CREDENTIAL_DB_PATH,default=.campuslink/credentials"`
	LogLevel         string `env:"LOG_LEVEL,default=INFO"`

	HTTPTimeout    time.Duration `env:"HTTP_TIMEOUT,default=10s"`
	RefreshTimeout time.Duration `env:"REFRESH_TIMEOUT,default=10s"`
	SkewTolerance  time.Duration `env:"SKEW_TOLERANCE,default=30s"`

	DialTimeout              time.Duration `env:"DIAL_TIMEOUT,default=10s"`
	ReconnectInitialInterval time.Duration `env:"RECONNECT_INITIAL_INTERVAL,default=500ms"`
	ReconnectMaxInterval     time.Duration `env:"RECONNECT_MAX_INTERVAL,default=15s"`
	ReconnectMaxAttempts     uint64        `env:"RECONNECT_MAX_ATTEMPTS,default=6"`
}

// RESTBase is the credential and CRUD API root.
func (c Config) RESTBase() string {
	return fmt.Sprintf("http://%s:%d/api", c.PlatformHost, c.PlatformPort)
}

// ChannelBase is the websocket endpoint root; conversation paths are
// appended by the channel layer.
func (c Config) ChannelBase() string {
	return fmt.Sprintf("ws://%s:%d", c.PlatformHost, c.PlatformPort)
}
