//go:generate go run go.uber.org/mock/mockgen -source=manager.go -destination=../mocks/mock_refresher.go -package=mocks
package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"campuslink/credentials"
	"campuslink/domain"
	"campuslink/errors"
)

// DefaultSkewTolerance is the safety margin subtracted from a token's expiry
// so renewal happens before the platform starts rejecting calls.
const DefaultSkewTolerance = 30 * time.Second

// Refresher exchanges a refresh token for a new pair.
type Refresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (domain.Credential, error)
}

// Manager presents a single up-to-date access token to every caller, hiding
// renewal. REST wrappers and the channel layer share this one gate, so they
// share one renewal policy and one single-flight guarantee.
type Manager struct {
	store   credentials.Store
	refresh Refresher
	log     *slog.Logger
	skew    time.Duration
	timeout time.Duration
	group   singleflight.Group
	now     func() time.Time
}

func NewManager(store credentials.Store, refresher Refresher, skew, timeout time.Duration, log *slog.Logger) *Manager {
	if skew <= 0 {
		skew = DefaultSkewTolerance
	}
	return &Manager{
		store:   store,
		refresh: refresher,
		log:     log,
		skew:    skew,
		timeout: timeout,
		now:     time.Now,
	}
}

// AuthorizedToken returns an access token valid for at least the skew
// tolerance, renewing the pair when needed. For N concurrent callers
// observing a stale token exactly one renewal network call is issued; all N
// resolve from its result. Renewal failure is not retried here: the stored
// pair is cleared and every waiter gets ErrSessionExpired.
func (m *Manager) AuthorizedToken(ctx context.Context) (string, error) {
	cred, ok := m.store.Read()
	if !ok {
		return "", errors.ErrUnauthenticated
	}
	if cred.Fresh(m.now(), m.skew) {
		return cred.Access, nil
	}

	token, err, _ := m.group.Do("renew", m.renew)
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

// renew runs detached from any caller context: one caller cancelling must
// not abort a renewal other callers are waiting on. The network call is
// still bounded by the configured timeout.
func (m *Manager) renew() (any, error) {
	gen := m.store.Generation()
	cred, ok := m.store.Read()
	if !ok {
		return "", errors.ErrUnauthenticated
	}
	if cred.Fresh(m.now(), m.skew) {
		// A previous flight already renewed while we queued.
		return cred.Access, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	renewed, err := m.refresh.RefreshToken(ctx, cred.Refresh)
	if err != nil {
		if m.store.Generation() == gen {
			if clearErr := m.store.Clear(); clearErr != nil {
				m.log.Warn("Clearing credentials after failed renewal", "err", clearErr)
			}
		}
		m.log.Info("Session renewal failed", "err", err)
		return "", fmt.Errorf("%w: %w", errors.ErrSessionExpired, err)
	}

	if err := m.store.WriteIfGeneration(renewed, gen); err != nil {
		// Logout won the race; the fresh pair must not resurrect the store.
		m.log.Debug("Discarding renewal result after interleaved store mutation")
		return "", errors.ErrUnauthenticated
	}
	return renewed.Access, nil
}
