//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=../mocks/mock_store.go -package=mocks
package credentials

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"

	"campuslink/domain"
	"campuslink/errors"
)

// storageKey is the single durable key the pair lives under.
const storageKey = "auth:tokens"

// Store holds the current credential pair. It is the single shared mutable
// resource of the client: every mutation is atomic from the perspective of
// readers (no partial pair is ever observable) and notifies subscribers
// synchronously after the durable write succeeded.
type Store interface {
	// Read returns the current pair, if any. It never fails: a corrupt or
	// unreadable entry reads as absent.
	Read() (domain.Credential, bool)

	// Write replaces the pair and bumps the generation.
	Write(c domain.Credential) error

	// WriteIfGeneration replaces the pair only when the store has not been
	// mutated since the caller observed gen, failing with ErrStaleWrite
	// otherwise. A renewal result landing after logout is discarded this way.
	WriteIfGeneration(c domain.Credential, gen uint64) error

	// Clear removes the pair and bumps the generation.
	Clear() error

	// Generation returns a counter incremented by every Write or Clear.
	Generation() uint64

	// Subscribe registers fn, invoked synchronously after every successful
	// mutation with the new pair (or absence). The returned function
	// unregisters it. Callbacks must not mutate the store.
	Subscribe(fn func(c domain.Credential, present bool)) (unsubscribe func())
}

// BadgerStore persists the pair in BadgerDB so a process restart restores
// the session without re-authentication.
type BadgerStore struct {
	db  *badger.DB
	log *slog.Logger

	gen atomic.Uint64

	mu   sync.Mutex
	subs map[int]func(domain.Credential, bool)
	next int
}

func NewBadgerStore(db *badger.DB, log *slog.Logger) *BadgerStore {
	return &BadgerStore{
		db:   db,
		log:  log,
		subs: make(map[int]func(domain.Credential, bool)),
	}
}

func (s *BadgerStore) Read() (domain.Credential, bool) {
	var cred domain.Credential
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(storageKey))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			return json.Unmarshal(v, &cred)
		})
	})
	if err != nil {
		if !stderrors.Is(err, badger.ErrKeyNotFound) {
			s.log.Warn("Unreadable credential entry, treating as absent", "err", err)
		}
		return domain.Credential{}, false
	}
	// Partial pairs are disallowed; refuse to surface one.
	if cred.Access == "" || cred.Refresh == "" {
		return domain.Credential{}, false
	}
	return cred, true
}

func (s *BadgerStore) Write(c domain.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(c)
}

func (s *BadgerStore) WriteIfGeneration(c domain.Credential, gen uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen.Load() != gen {
		return errors.ErrStaleWrite
	}
	return s.writeLocked(c)
}

func (s *BadgerStore) writeLocked(c domain.Credential) error {
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(storageKey), data)
	})
	if err != nil {
		return err
	}
	s.gen.Add(1)
	s.notifyLocked(c, true)
	return nil
}

func (s *BadgerStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(storageKey))
	})
	if err != nil {
		return err
	}
	s.gen.Add(1)
	s.notifyLocked(domain.Credential{}, false)
	return nil
}

func (s *BadgerStore) Generation() uint64 {
	return s.gen.Load()
}

func (s *BadgerStore) Subscribe(fn func(c domain.Credential, present bool)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *BadgerStore) notifyLocked(c domain.Credential, present bool) {
	for _, fn := range s.subs {
		fn(c, present)
	}
}
