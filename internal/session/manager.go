package session

import (
	"context"
	"errors"
	"sync"
)

// Manager serializes work on a single session. Two requests carrying the same session id
// never run their handlers concurrently.
type Manager struct {
	store Store

	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

func NewManager(store Store) *Manager {
	return &Manager{store: store, locks: make(map[string]*keyLock)}
}

// Do loads (or starts) the session, runs fn while holding the session lock and saves the
// session afterwards, even when fn fails.
func (m *Manager) Do(ctx context.Context, id string, fn func(s *Session) error) error {
	unlock := m.lock(id)
	defer unlock()

	s, err := m.store.Get(ctx, id)
	if errors.Is(err, ErrSessionNotFound) {
		s = New(id)
	} else if err != nil {
		return err
	}

	fnErr := fn(s)
	if err := m.store.Save(ctx, s); err != nil {
		return errors.Join(fnErr, err)
	}
	return fnErr
}

func (m *Manager) lock(id string) func() {
	m.mu.Lock()
	l, ok := m.locks[id]
	if !ok {
		l = &keyLock{}
		m.locks[id] = l
	}
	l.refs++
	m.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		m.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(m.locks, id)
		}
		m.mu.Unlock()
	}
}
