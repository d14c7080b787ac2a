package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/yourname/eduflow/internal"
)

// FileStorage keeps one JSON file per user under dir. It is the persistence
// path of the desktop shell: Read and Write never fail loudly.
type FileStorage struct {
	dir     string
	mu      sync.Mutex
	hub     *hub
	watcher *fsnotify.Watcher
	done    chan struct{}
	logger  internal.Logger

	closeOnce sync.Once
	closeErr  error
}

func NewFileStorage(dir string, logger internal.Logger) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		logger.Errorf("storage: failed to create data dir %s: %v", dir, err)
		return nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		logger.Errorf("storage: failed to watch %s: %v", dir, err)
		return nil, err
	}
	s := &FileStorage{
		dir:     dir,
		hub:     newHub(),
		watcher: w,
		done:    make(chan struct{}),
		logger:  logger,
	}
	go s.watchWorker()
	return s, nil
}

func (s *FileStorage) path(uid string) string {
	return filepath.Join(s.dir, uid+".json")
}

// Read returns the stored document, or empty defaults on any failure.
func (s *FileStorage) Read(uid string) internal.Document {
	doc := internal.EmptyDocument()
	if err := validUID(uid); err != nil {
		s.logger.Warnf("storage: read rejected: %v", err)
		return doc
	}
	raw, err := os.ReadFile(s.path(uid))
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Errorf("storage: failed to read %s: %v", uid, err)
		}
		return doc
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		s.logger.Errorf("storage: failed to decode %s: %v", uid, err)
		return internal.EmptyDocument()
	}
	if doc.Assignments == nil {
		doc.Assignments = []internal.Assignment{}
	}
	if doc.Categories == nil {
		doc.Categories = []internal.Category{}
	}
	return doc
}

// Write persists doc and reports success. Failures are logged, never returned.
func (s *FileStorage) Write(uid string, doc internal.Document) bool {
	if err := s.Set(context.Background(), uid, doc); err != nil {
		s.logger.Errorf("storage: failed to write %s: %v", uid, err)
		return false
	}
	return true
}

func (s *FileStorage) Get(ctx context.Context, uid string) (Snapshot, error) {
	if err := validUID(uid); err != nil {
		return Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(uid)
}

func (s *FileStorage) snapshotLocked(uid string) (Snapshot, error) {
	raw, err := os.ReadFile(s.path(uid))
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, nil
		}
		return Snapshot{}, err
	}
	if len(raw) == 0 {
		return Snapshot{}, nil
	}
	return decodeSnapshot(raw)
}

func (s *FileStorage) Set(ctx context.Context, uid string, doc internal.Document) error {
	if err := validUID(uid); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := atomicWriteFileJSON(s.path(uid), doc); err != nil {
		return err
	}
	snap, err := s.snapshotLocked(uid)
	if err != nil {
		return err
	}
	s.hub.publish(uid, snap)
	return nil
}

func (s *FileStorage) Subscribe(ctx context.Context, uid string, fn func(Snapshot)) (func(), error) {
	if err := validUID(uid); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w, cancel := s.hub.add(uid, fn)
	snap, err := s.snapshotLocked(uid)
	if err != nil {
		cancel()
		return nil, err
	}
	w.offer(snap)
	return cancel, nil
}

// watchWorker picks up edits made by other processes sharing the data dir.
func (s *FileStorage) watchWorker() {
	for {
		select {
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			name := filepath.Base(ev.Name)
			if !strings.HasSuffix(name, ".json") {
				continue
			}
			uid := strings.TrimSuffix(name, ".json")
			switch {
			case ev.Has(fsnotify.Remove):
				s.hub.publish(uid, Snapshot{})
			case ev.Has(fsnotify.Write), ev.Has(fsnotify.Create), ev.Has(fsnotify.Rename):
				s.mu.Lock()
				snap, err := s.snapshotLocked(uid)
				s.mu.Unlock()
				if err != nil {
					s.logger.Warnf("storage: failed to reload %s after change: %v", uid, err)
					continue
				}
				s.hub.publish(uid, snap)
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Errorf("storage: file watcher error: %v", err)
		case <-s.done:
			return
		}
	}
}

func (s *FileStorage) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.hub.closeAll()
		s.closeErr = s.watcher.Close()
	})
	return s.closeErr
}

func atomicWriteFileJSON(filePath string, data interface{}) error {
	tempFile := filePath + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	if err := os.Rename(tempFile, filePath); err != nil {
		return errors.Join(err, os.Remove(tempFile))
	}
	return nil
}

var _ DocumentStore = (*FileStorage)(nil)
