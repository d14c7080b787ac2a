package session

import (
	"context"
	"sync"
	"time"

	"github.com/yourname/eduflow/internal"
	"github.com/yourname/eduflow/internal/mirror"
	"github.com/yourname/eduflow/internal/storage"
)

// Manager owns one mirror store per signed-in user.
type Manager struct {
	backend storage.DocumentStore
	opts    mirror.Options
	logger  internal.Logger
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	store *mirror.Store
	once  sync.Once
	err   error

	// guarded by Manager.mu
	active   int
	lastUsed time.Time
}

func NewManager(backend storage.DocumentStore, opts mirror.Options, logger internal.Logger) *Manager {
	opts.Logger = logger
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Manager{
		backend: backend,
		opts:    opts,
		logger:  logger,
		now:     now,
		entries: make(map[string]*entry),
	}
}

// Open returns the user's store, signing in and waiting for the first snapshot
// the first time the user is seen.
func (m *Manager) Open(ctx context.Context, uid string) (*mirror.Store, error) {
	store, release, err := m.Acquire(ctx, uid)
	if err != nil {
		return nil, err
	}
	release()
	return store, nil
}

// Acquire is Open for callers that keep using the store for a while, such as
// a request or an event stream. The store is not evicted while held; call
// release when done.
func (m *Manager) Acquire(ctx context.Context, uid string) (*mirror.Store, func(), error) {
	m.mu.Lock()
	e, ok := m.entries[uid]
	if !ok {
		e = &entry{store: mirror.NewStore(m.backend, m.opts)}
		m.entries[uid] = e
	}
	e.active++
	e.lastUsed = m.now()
	m.mu.Unlock()

	var once sync.Once
	release := func() {
		once.Do(func() {
			m.mu.Lock()
			e.active--
			e.lastUsed = m.now()
			m.mu.Unlock()
		})
	}

	e.once.Do(func() {
		e.err = e.store.SignIn(ctx, uid)
		if e.err == nil {
			m.logger.Infof("session: opened store for %s", uid)
		}
	})
	if e.err != nil {
		release()
		m.drop(uid, e)
		return nil, nil, e.err
	}
	if err := e.store.Ready(ctx); err != nil {
		release()
		return nil, nil, err
	}
	return e.store, release, nil
}

// Close signs the user out and discards their store.
func (m *Manager) Close(uid string) bool {
	m.mu.Lock()
	e, ok := m.entries[uid]
	delete(m.entries, uid)
	m.mu.Unlock()
	if !ok {
		return false
	}
	e.store.Dispose()
	m.logger.Infof("session: closed store for %s", uid)
	return true
}

func (m *Manager) drop(uid string, e *entry) {
	m.mu.Lock()
	owned := m.entries[uid] == e
	if owned {
		delete(m.entries, uid)
	}
	m.mu.Unlock()
	if owned {
		e.store.Dispose()
	}
}

// Sweep disposes stores nobody holds that have been unused for longer than
// idle, and returns how many it closed.
func (m *Manager) Sweep(idle time.Duration) int {
	cutoff := m.now().Add(-idle)
	var evicted []string
	var stores []*mirror.Store
	m.mu.Lock()
	for uid, e := range m.entries {
		if e.active == 0 && e.lastUsed.Before(cutoff) {
			delete(m.entries, uid)
			evicted = append(evicted, uid)
			stores = append(stores, e.store)
		}
	}
	m.mu.Unlock()
	for i, store := range stores {
		store.Dispose()
		m.logger.Infof("session: evicted idle store for %s", evicted[i])
	}
	return len(stores)
}

// Run sweeps idle stores until ctx is done. A non-positive idle disables
// eviction.
func (m *Manager) Run(ctx context.Context, idle time.Duration) {
	if idle <= 0 {
		return
	}
	ticker := time.NewTicker(idle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(idle)
		}
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Shutdown disposes every open store, flushing queued writes.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	entries := m.entries
	m.entries = make(map[string]*entry)
	m.mu.Unlock()
	for uid, e := range entries {
		e.store.Dispose()
		m.logger.Infof("session: closed store for %s", uid)
	}
}
