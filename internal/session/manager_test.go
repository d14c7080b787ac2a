package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourname/eduflow/internal"
	"github.com/yourname/eduflow/internal/mirror"
	"github.com/yourname/eduflow/internal/storage"
)

func newManager() (*Manager, *storage.MemoryStorage) {
	backend := storage.NewMemoryStorage()
	m := NewManager(backend, mirror.Options{
		Location:       time.UTC,
		StarterMonster: "monster-001",
		StreakBonus:    10,
		Seed:           mirror.SeedPolicy{Categories: []string{"Homework"}},
	}, internal.NewNopLogger())
	return m, backend
}

func TestOpenReturnsSameStore(t *testing.T) {
	m, _ := newManager()
	defer m.Shutdown()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var wg sync.WaitGroup
	stores := make([]*mirror.Store, 8)
	for i := range stores {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := m.Open(ctx, "u1")
			assert.NoError(t, err)
			stores[i] = s
		}(i)
	}
	wg.Wait()

	for _, s := range stores {
		assert.Same(t, stores[0], s)
	}
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, "u1", stores[0].UID())
	assert.Len(t, stores[0].Categories().ToArray(), 1)
}

func TestCloseDisposesStore(t *testing.T) {
	m, backend := newManager()
	ctx := context.Background()

	s, err := m.Open(ctx, "u1")
	require.NoError(t, err)
	_, err = s.Assignments().Add(internal.Assignment{ID: "a1"})
	require.NoError(t, err)

	assert.True(t, m.Close("u1"))
	assert.False(t, m.Close("u1"))
	assert.Equal(t, 0, m.Len())

	snap, err := backend.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, snap.Data["assignments"], 1)

	again, err := m.Open(ctx, "u1")
	require.NoError(t, err)
	assert.NotSame(t, s, again)
	_, ok := again.Assignments().Get("a1")
	assert.True(t, ok)
	m.Shutdown()
	assert.Equal(t, 0, m.Len())
}

func TestOpenRejectsInvalidUID(t *testing.T) {
	m, _ := newManager()
	defer m.Shutdown()
	_, err := m.Open(context.Background(), "a/b")
	assert.ErrorIs(t, err, storage.ErrInvalidUID)
	assert.Equal(t, 0, m.Len())
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newClockedManager() (*Manager, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)}
	m := NewManager(storage.NewMemoryStorage(), mirror.Options{
		Location:       time.UTC,
		StarterMonster: "monster-001",
		StreakBonus:    10,
		Now:            clock.Now,
	}, internal.NewNopLogger())
	return m, clock
}

func TestSweepEvictsIdleStores(t *testing.T) {
	m, clock := newClockedManager()
	defer m.Shutdown()
	ctx := context.Background()

	_, err := m.Open(ctx, "u1")
	require.NoError(t, err)
	clock.Advance(10 * time.Minute)
	_, err = m.Open(ctx, "u2")
	require.NoError(t, err)

	clock.Advance(25 * time.Minute)
	assert.Equal(t, 1, m.Sweep(30*time.Minute))
	assert.Equal(t, 1, m.Len())

	again, err := m.Open(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", again.UID())
	assert.Equal(t, 2, m.Len())
}

func TestSweepKeepsHeldStores(t *testing.T) {
	m, clock := newClockedManager()
	defer m.Shutdown()

	held, release, err := m.Acquire(context.Background(), "u1")
	require.NoError(t, err)

	clock.Advance(time.Hour)
	assert.Equal(t, 0, m.Sweep(30*time.Minute))
	_, err = held.Assignments().Add(internal.Assignment{ID: "a1"})
	assert.NoError(t, err)

	release()
	release()
	assert.Equal(t, 0, m.Sweep(30*time.Minute))
	clock.Advance(time.Hour)
	assert.Equal(t, 1, m.Sweep(30*time.Minute))
	assert.Equal(t, 0, m.Len())
}

func TestRunWithoutIdleTimeoutReturns(t *testing.T) {
	m, _ := newManager()
	done := make(chan struct{})
	go func() {
		m.Run(context.Background(), 0)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return with eviction disabled")
	}
}
