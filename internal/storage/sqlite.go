package storage

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/yourname/eduflow/internal"
)

const sqliteKeyPrefix = "eduflow:data:"

// SQLiteStorage is the local single-key store: each user's document lives as
// one serialized value under "eduflow:data:{uid}".
type SQLiteStorage struct {
	db     *sql.DB
	mu     sync.Mutex
	hub    *hub
	logger internal.Logger
}

func NewSQLiteStorage(path string, logger internal.Logger) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		logger.Errorf("storage: failed to open sqlite %s: %v", path, err)
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	s := &SQLiteStorage{db: db, hub: newHub(), logger: logger}
	if err := s.initTables(); err != nil {
		db.Close()
		logger.Errorf("storage: failed to init sqlite tables: %v", err)
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStorage) initTables() error {
	_, err := s.db.Exec(`
        CREATE TABLE IF NOT EXISTS kv (
            key TEXT PRIMARY KEY,
            value TEXT NOT NULL,
            updated_at DATETIME NOT NULL
        )
    `)
	return err
}

func sqliteKey(uid string) string {
	return sqliteKeyPrefix + uid
}

func (s *SQLiteStorage) Get(ctx context.Context, uid string) (Snapshot, error) {
	if err := validUID(uid); err != nil {
		return Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(ctx, uid)
}

func (s *SQLiteStorage) snapshotLocked(ctx context.Context, uid string) (Snapshot, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, sqliteKey(uid)).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, nil
		}
		return Snapshot{}, err
	}
	return decodeSnapshot([]byte(value))
}

func (s *SQLiteStorage) Set(ctx context.Context, uid string, doc internal.Document) error {
	if err := validUID(uid); err != nil {
		return err
	}
	raw, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
    `, sqliteKey(uid), string(raw), time.Now().UTC())
	if err != nil {
		s.logger.Errorf("storage: failed to upsert %s: %v", uid, err)
		return err
	}
	snap, err := decodeSnapshot(raw)
	if err != nil {
		return err
	}
	s.hub.publish(uid, snap)
	return nil
}

func (s *SQLiteStorage) Subscribe(ctx context.Context, uid string, fn func(Snapshot)) (func(), error) {
	if err := validUID(uid); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w, cancel := s.hub.add(uid, fn)
	snap, err := s.snapshotLocked(ctx, uid)
	if err != nil {
		cancel()
		return nil, err
	}
	w.offer(snap)
	return cancel, nil
}

func (s *SQLiteStorage) Close() error {
	s.hub.closeAll()
	return s.db.Close()
}

var _ DocumentStore = (*SQLiteStorage)(nil)
