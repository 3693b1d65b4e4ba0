package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"campuslink/credentials"
	"campuslink/domain"
	"campuslink/errors"
	"campuslink/mocks"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) credentials.Store {
	t.Helper()
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLoggingLevel(badger.ERROR))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return credentials.NewBadgerStore(db, testLogger())
}

func tokenWithExpiry(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"username": "alice", "user_id": int64(7), "exp": exp.Unix()}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestManager_AuthorizedToken_Fresh(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := newTestStore(t)
	refresher := mocks.NewMockRefresher(ctrl)
	mgr := NewManager(store, refresher, 30*time.Second, time.Second, testLogger())

	cred := domain.Credential{Access: tokenWithExpiry(t, time.Now().Add(time.Hour)), Refresh: "r"}
	req.NoError(store.Write(cred))

	// No renewal network call for a fresh token.
	refresher.EXPECT().RefreshToken(gomock.Any(), gomock.Any()).Times(0)

	token, err := mgr.AuthorizedToken(context.Background())
	req.NoError(err)
	req.Equal(cred.Access, token)
}

func TestManager_AuthorizedToken_Absent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mgr := NewManager(newTestStore(t), mocks.NewMockRefresher(ctrl), 0, time.Second, testLogger())

	_, err := mgr.AuthorizedToken(context.Background())
	require.ErrorIs(t, err, errors.ErrUnauthenticated)
}

func TestManager_AuthorizedToken_RenewsInsideSkew(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := newTestStore(t)
	refresher := mocks.NewMockRefresher(ctrl)
	// Expiry in 2 seconds with a 5 second skew tolerance: renew immediately.
	mgr := NewManager(store, refresher, 5*time.Second, time.Second, testLogger())

	stale := domain.Credential{Access: tokenWithExpiry(t, time.Now().Add(2*time.Second)), Refresh: "old-refresh"}
	req.NoError(store.Write(stale))

	renewed := domain.Credential{Access: tokenWithExpiry(t, time.Now().Add(time.Hour)), Refresh: "new-refresh"}
	refresher.EXPECT().
		RefreshToken(gomock.Any(), "old-refresh").
		Return(renewed, nil).
		Times(1)

	token, err := mgr.AuthorizedToken(context.Background())
	req.NoError(err)
	req.Equal(renewed.Access, token)

	stored, ok := store.Read()
	req.True(ok)
	req.Equal(renewed, stored)
}

func TestManager_AuthorizedToken_SingleFlight(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := newTestStore(t)
	refresher := mocks.NewMockRefresher(ctrl)
	mgr := NewManager(store, refresher, 30*time.Second, time.Second, testLogger())

	stale := domain.Credential{Access: tokenWithExpiry(t, time.Now().Add(-time.Minute)), Refresh: "old-refresh"}
	req.NoError(store.Write(stale))

	renewed := domain.Credential{Access: tokenWithExpiry(t, time.Now().Add(time.Hour)), Refresh: "new-refresh"}
	refresher.EXPECT().
		RefreshToken(gomock.Any(), "old-refresh").
		DoAndReturn(func(context.Context, string) (domain.Credential, error) {
			time.Sleep(100 * time.Millisecond)
			return renewed, nil
		}).
		Times(1) // the invariant: N concurrent callers, exactly one network call

	const callers = 16
	results := make([]string, callers)
	failures := make([]error, callers)

	var start, done sync.WaitGroup
	start.Add(1)
	done.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer done.Done()
			start.Wait()
			results[i], failures[i] = mgr.AuthorizedToken(context.Background())
		}(i)
	}
	start.Done()
	done.Wait()

	for i := 0; i < callers; i++ {
		req.NoError(failures[i])
		req.Equal(renewed.Access, results[i], "all callers resolve from the same renewal")
	}
}

func TestManager_AuthorizedToken_RenewalFailure(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := newTestStore(t)
	refresher := mocks.NewMockRefresher(ctrl)
	mgr := NewManager(store, refresher, 30*time.Second, time.Second, testLogger())

	stale := domain.Credential{Access: tokenWithExpiry(t, time.Now().Add(-time.Minute)), Refresh: "dead"}
	req.NoError(store.Write(stale))

	cause := fmt.Errorf("%w: token is blacklisted", errors.ErrRejectedCredentials)
	refresher.EXPECT().
		RefreshToken(gomock.Any(), "dead").
		Return(domain.Credential{}, cause).
		Times(1)

	_, err := mgr.AuthorizedToken(context.Background())
	req.ErrorIs(err, errors.ErrSessionExpired)
	req.ErrorIs(err, errors.ErrRejectedCredentials, "the cause stays distinguishable")

	_, ok := store.Read()
	req.False(ok, "a failed renewal clears the stored pair")
}

func TestManager_AuthorizedToken_StaleRenewalDiscarded(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := newTestStore(t)
	refresher := mocks.NewMockRefresher(ctrl)
	mgr := NewManager(store, refresher, 30*time.Second, time.Second, testLogger())

	stale := domain.Credential{Access: tokenWithExpiry(t, time.Now().Add(-time.Minute)), Refresh: "old-refresh"}
	req.NoError(store.Write(stale))

	renewed := domain.Credential{Access: tokenWithExpiry(t, time.Now().Add(time.Hour)), Refresh: "new-refresh"}
	refresher.EXPECT().
		RefreshToken(gomock.Any(), "old-refresh").
		DoAndReturn(func(context.Context, string) (domain.Credential, error) {
			// Logout lands while the renewal is on the wire.
			req.NoError(store.Clear())
			return renewed, nil
		}).
		Times(1)

	_, err := mgr.AuthorizedToken(context.Background())
	req.ErrorIs(err, errors.ErrUnauthenticated)

	_, ok := store.Read()
	req.False(ok, "the in-flight renewal must not resurrect the cleared store")
}
