package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourname/eduflow/internal"
	"github.com/yourname/eduflow/internal/config"
)

func testDocument() internal.Document {
	doc := internal.EmptyDocument()
	doc.Assignments = []internal.Assignment{{
		ID:        "a1",
		Name:      "Essay",
		Duration:  30,
		Category:  "Homework",
		Status:    internal.StatusPending,
		CreatedAt: time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC),
	}}
	doc.Categories = []internal.Category{{ID: "c1", Name: "Homework", IsDefault: true}}
	doc.Stats = internal.UserStats{Coins: 40, Streak: 2, UnlockedMonsters: []string{"monster-001"}}
	return doc
}

func backends(t *testing.T) map[string]DocumentStore {
	t.Helper()
	logger := internal.NewNopLogger()
	dir := t.TempDir()

	file, err := NewFileStorage(filepath.Join(dir, "files"), logger)
	require.NoError(t, err)
	sqlite, err := NewSQLiteStorage(filepath.Join(dir, "eduflow.db"), logger)
	require.NoError(t, err)

	all := map[string]DocumentStore{
		"memory": NewMemoryStorage(),
		"file":   file,
		"sqlite": sqlite,
	}
	t.Cleanup(func() {
		for _, b := range all {
			_ = b.Close()
		}
	})
	return all
}

type recorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *recorder) record(s Snapshot) {
	r.mu.Lock()
	r.snaps = append(r.snaps, s)
	r.mu.Unlock()
}

func (r *recorder) last() (Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snaps) == 0 {
		return Snapshot{}, false
	}
	return r.snaps[len(r.snaps)-1], true
}

func TestBackendRoundTrip(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			snap, err := b.Get(ctx, "u1")
			require.NoError(t, err)
			assert.False(t, snap.Exists)

			require.NoError(t, b.Set(ctx, "u1", testDocument()))
			snap, err = b.Get(ctx, "u1")
			require.NoError(t, err)
			require.True(t, snap.Exists)

			stats := snap.Data["stats"].(map[string]any)
			assert.Equal(t, float64(40), stats["coins"])
			assignments := snap.Data["assignments"].([]any)
			require.Len(t, assignments, 1)
			assert.Equal(t, "Essay", assignments[0].(map[string]any)["name"])

			other, err := b.Get(ctx, "u2")
			require.NoError(t, err)
			assert.False(t, other.Exists)
		})
	}
}

func TestBackendRejectsInvalidUID(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, uid := range []string{"", "..", "a/b", `a\b`} {
				_, err := b.Get(ctx, uid)
				assert.ErrorIs(t, err, ErrInvalidUID, uid)
				assert.ErrorIs(t, b.Set(ctx, uid, testDocument()), ErrInvalidUID, uid)
				_, err = b.Subscribe(ctx, uid, func(Snapshot) {})
				assert.ErrorIs(t, err, ErrInvalidUID, uid)
			}
		})
	}
}

func TestBackendSubscribe(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec := &recorder{}
			cancel, err := b.Subscribe(ctx, "u1", rec.record)
			require.NoError(t, err)

			require.Eventually(t, func() bool {
				snap, ok := rec.last()
				return ok && !snap.Exists
			}, 2*time.Second, 10*time.Millisecond)

			require.NoError(t, b.Set(ctx, "u1", testDocument()))
			require.Eventually(t, func() bool {
				snap, ok := rec.last()
				return ok && snap.Exists
			}, 2*time.Second, 10*time.Millisecond)

			cancel()
			rec.mu.Lock()
			seen := len(rec.snaps)
			rec.mu.Unlock()

			doc := testDocument()
			doc.Stats.Coins = 99
			require.NoError(t, b.Set(ctx, "u1", doc))
			time.Sleep(50 * time.Millisecond)

			rec.mu.Lock()
			defer rec.mu.Unlock()
			assert.LessOrEqual(t, len(rec.snaps), seen+1)
			if len(rec.snaps) > seen {
				assert.NotEqual(t, float64(99), rec.snaps[len(rec.snaps)-1].Data["stats"].(map[string]any)["coins"])
			}
		})
	}
}

func TestBackendSetHonoursCancelledContext(t *testing.T) {
	for name, b := range backends(t) {
		if name == "sqlite" {
			continue
		}
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			assert.ErrorIs(t, b.Set(ctx, "u1", testDocument()), context.Canceled)
		})
	}
}

func TestMemoryStorageDelete(t *testing.T) {
	m := NewMemoryStorage()
	defer m.Close()
	require.NoError(t, m.Set(context.Background(), "u1", testDocument()))

	rec := &recorder{}
	cancel, err := m.Subscribe(context.Background(), "u1", rec.record)
	require.NoError(t, err)
	defer cancel()

	m.Delete("u1")
	require.Eventually(t, func() bool {
		snap, ok := rec.last()
		return ok && !snap.Exists
	}, time.Second, 10*time.Millisecond)
}

func TestFileStorageReadWrite(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStorage(dir, internal.NewNopLogger())
	require.NoError(t, err)
	defer s.Close()

	empty := s.Read("missing")
	assert.Empty(t, empty.Assignments)
	assert.Equal(t, 1, empty.Stats.Streak)

	assert.True(t, s.Write("u1", testDocument()))
	got := s.Read("u1")
	require.Len(t, got.Assignments, 1)
	assert.Equal(t, "Essay", got.Assignments[0].Name)
	assert.Equal(t, 40, got.Stats.Coins)

	_, err = os.Stat(filepath.Join(dir, "u1.json.tmp"))
	assert.True(t, os.IsNotExist(err))

	assert.False(t, s.Write("../escape", testDocument()))
	assert.Equal(t, internal.EmptyDocument(), s.Read("../escape"))
}

func TestFileStorageCorruptFileReadsAsEmpty(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStorage(dir, internal.NewNopLogger())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "u1.json"), []byte("{not json"), 0644))
	assert.Equal(t, internal.EmptyDocument(), s.Read("u1"))
	_, err = s.Get(context.Background(), "u1")
	assert.Error(t, err)
}

func TestFileStorageSeesExternalEdits(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStorage(dir, internal.NewNopLogger())
	require.NoError(t, err)
	defer s.Close()

	rec := &recorder{}
	cancel, err := s.Subscribe(context.Background(), "u1", rec.record)
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "u1.json"), []byte(`{"stats":{"coins":7}}`), 0644))
	require.Eventually(t, func() bool {
		snap, ok := rec.last()
		if !ok || !snap.Exists {
			return false
		}
		stats, _ := snap.Data["stats"].(map[string]any)
		return stats["coins"] == float64(7)
	}, 2*time.Second, 20*time.Millisecond)
}

func TestFileStorageCloseTwice(t *testing.T) {
	s, err := NewFileStorage(t.TempDir(), internal.NewNopLogger())
	require.NoError(t, err)
	_, err = s.Subscribe(context.Background(), "u1", func(Snapshot) {})
	require.NoError(t, err)

	require.NoError(t, s.Close())
	assert.NotPanics(t, func() { _ = s.Close() })
}

func TestSQLiteStorageUsesPrefixedKey(t *testing.T) {
	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "kv.db"), internal.NewNopLogger())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Set(context.Background(), "u1", testDocument()))
	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM kv WHERE key = ?`, "eduflow:data:u1").Scan(&n))
	assert.Equal(t, 1, n)

	require.NoError(t, s.Set(context.Background(), "u1", testDocument()))
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM kv`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestNewSelectsBackend(t *testing.T) {
	logger := internal.NewNopLogger()
	b, err := New(context.Background(), &config.Config{StorageBackend: "memory"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStorage{}, b)

	b, err = New(context.Background(), &config.Config{StorageBackend: "file", DataDir: t.TempDir()}, logger)
	require.NoError(t, err)
	assert.IsType(t, &FileStorage{}, b)
	require.NoError(t, b.Close())

	_, err = New(context.Background(), &config.Config{StorageBackend: "redis"}, logger)
	assert.Error(t, err)
}
