package storage

import (
	"context"
	"sync"

	"github.com/yourname/eduflow/internal"
)

// MemoryStorage keeps documents in process. Used for tests and demo runs.
type MemoryStorage struct {
	mu   sync.Mutex
	docs map[string][]byte
	hub  *hub
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		docs: make(map[string][]byte),
		hub:  newHub(),
	}
}

func (m *MemoryStorage) Get(ctx context.Context, uid string) (Snapshot, error) {
	if err := validUID(uid); err != nil {
		return Snapshot{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked(uid)
}

func (m *MemoryStorage) snapshotLocked(uid string) (Snapshot, error) {
	raw, ok := m.docs[uid]
	if !ok {
		return Snapshot{}, nil
	}
	return decodeSnapshot(raw)
}

func (m *MemoryStorage) Set(ctx context.Context, uid string, doc internal.Document) error {
	if err := validUID(uid); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[uid] = raw
	snap, err := decodeSnapshot(raw)
	if err != nil {
		return err
	}
	m.hub.publish(uid, snap)
	return nil
}

// Delete removes a document and reports it as absent to subscribers.
func (m *MemoryStorage) Delete(uid string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, uid)
	m.hub.publish(uid, Snapshot{})
}

func (m *MemoryStorage) Subscribe(ctx context.Context, uid string, fn func(Snapshot)) (func(), error) {
	if err := validUID(uid); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	w, cancel := m.hub.add(uid, fn)
	snap, err := m.snapshotLocked(uid)
	if err != nil {
		cancel()
		return nil, err
	}
	w.offer(snap)
	return cancel, nil
}

func (m *MemoryStorage) Close() error {
	m.hub.closeAll()
	return nil
}

var _ DocumentStore = (*MemoryStorage)(nil)
