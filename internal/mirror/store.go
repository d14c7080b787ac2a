package mirror

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yourname/eduflow/internal"
	"github.com/yourname/eduflow/internal/storage"
)

var (
	ErrSignedOut = errors.New("mirror: no user signed in")
	ErrMissingID = errors.New("mirror: record id is required")
	ErrDisposed  = errors.New("mirror: store disposed")
	ErrNotLoaded = errors.New("mirror: document not loaded yet")
)

// Fields is a shallow patch keyed by JSON field name.
type Fields map[string]any

type Options struct {
	Logger         internal.Logger
	Location       *time.Location
	Now            func() time.Time
	WriteTimeout   time.Duration
	StarterMonster string
	StreakBonus    int
	Seed           SeedPolicy
}

type write struct {
	gen uint64
	uid string
	doc internal.Document
}

// Store mirrors one user's document in memory. Reads are served from the
// mirror; every mutation updates the mirror first and then queues a
// whole-document write, applied to the backend in mutation order.
type Store struct {
	backend      storage.DocumentStore
	logger       internal.Logger
	notifier     *Notifier
	loc          *time.Location
	now          func() time.Time
	writeTimeout time.Duration
	starter      string
	streakBonus  int
	seed         SeedPolicy

	mu     sync.Mutex
	doc    internal.Document
	uid    string
	gen    uint64
	cancel func()
	seeded bool
	loaded bool
	ready  chan struct{}
	// stale is set when a snapshot was skipped because local writes were in flight.
	stale          bool
	pendingCurrent int
	pending        int
	drained        chan struct{}
	queue          []write
	disposed       bool

	wake     chan struct{}
	shutdown chan struct{}
	done     chan struct{}
	stopOnce sync.Once

	assignments *Table[internal.Assignment]
	categories  *Table[internal.Category]
	stats       *StatsAccount
}

func NewStore(backend storage.DocumentStore, opts Options) *Store {
	if opts.Logger == nil {
		opts.Logger = internal.NewNopLogger()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}
	drained := make(chan struct{})
	close(drained)

	s := &Store{
		backend:      backend,
		logger:       opts.Logger,
		notifier:     NewNotifier(opts.Logger),
		loc:          opts.Location,
		now:          opts.Now,
		writeTimeout: opts.WriteTimeout,
		starter:      opts.StarterMonster,
		streakBonus:  opts.StreakBonus,
		seed:         opts.Seed,
		doc:          internal.EmptyDocument(),
		ready:        make(chan struct{}),
		drained:      drained,
		wake:         make(chan struct{}, 1),
		shutdown:     make(chan struct{}),
		done:         make(chan struct{}),
	}
	s.assignments = &Table[internal.Assignment]{
		store: s,
		name:  "assignments",
		field: func(d *internal.Document) *[]internal.Assignment { return &d.Assignments },
	}
	s.categories = &Table[internal.Category]{
		store: s,
		name:  "categories",
		field: func(d *internal.Document) *[]internal.Category { return &d.Categories },
	}
	s.stats = &StatsAccount{store: s}

	go s.writeWorker()
	return s
}

func (s *Store) Assignments() *Table[internal.Assignment] { return s.assignments }
func (s *Store) Categories() *Table[internal.Category]   { return s.categories }
func (s *Store) Stats() *StatsAccount                    { return s.stats }
func (s *Store) Notifier() *Notifier                     { return s.notifier }

// Subscribe registers fn to run after every mirror change.
func (s *Store) Subscribe(fn func()) func() {
	return s.notifier.Subscribe(fn)
}

func (s *Store) UID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uid
}

// Snapshot returns a copy of the whole mirror.
func (s *Store) Snapshot() internal.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// SignIn starts mirroring users/{uid}. Any previous subscription is cancelled
// first, and snapshots still in flight for it are dropped.
func (s *Store) SignIn(ctx context.Context, uid string) error {
	if uid == "" {
		return storage.ErrInvalidUID
	}
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	if s.uid == uid && s.cancel != nil {
		s.mu.Unlock()
		return nil
	}
	prev := s.resetLocked(uid)
	gen := s.gen
	s.mu.Unlock()
	if prev != nil {
		prev()
	}

	cancel, err := s.backend.Subscribe(ctx, uid, func(snap storage.Snapshot) {
		s.onSnapshot(gen, snap, false)
	})
	if err != nil {
		s.logger.Errorf("mirror: failed to subscribe to %s: %v", uid, err)
		return fmt.Errorf("mirror: subscribe %s: %w", uid, err)
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		cancel()
		return nil
	}
	s.cancel = cancel
	s.mu.Unlock()
	s.logger.Infof("mirror: subscribed to users/%s", uid)
	return nil
}

// SignOut cancels the subscription and resets the mirror to empty defaults.
func (s *Store) SignOut() {
	s.mu.Lock()
	prev := s.resetLocked("")
	s.mu.Unlock()
	if prev != nil {
		prev()
	}
	s.notifier.Notify()
}

// resetLocked starts a new generation for uid and returns the cancel func of
// the previous subscription, to be called without the lock held.
func (s *Store) resetLocked(uid string) func() {
	prev := s.cancel
	s.cancel = nil
	s.gen++
	s.uid = uid
	s.doc = internal.EmptyDocument()
	s.seeded = false
	s.loaded = false
	s.ready = make(chan struct{})
	s.stale = false
	s.pendingCurrent = 0
	return prev
}

// Ready blocks until the first snapshot of the current sign-in has been applied.
func (s *Store) Ready(ctx context.Context) error {
	s.mu.Lock()
	if s.uid == "" {
		s.mu.Unlock()
		return ErrSignedOut
	}
	ch := s.ready
	s.mu.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Flush blocks until every queued write has been handed to the backend.
func (s *Store) Flush(ctx context.Context) error {
	for {
		s.mu.Lock()
		if s.pending == 0 {
			s.mu.Unlock()
			return nil
		}
		ch := s.drained
		s.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Dispose signs out, writes whatever is still queued and stops the writer.
func (s *Store) Dispose() {
	s.SignOut()
	s.mu.Lock()
	s.disposed = true
	s.mu.Unlock()
	s.stopOnce.Do(func() { close(s.shutdown) })
	<-s.done
}

func (s *Store) onSnapshot(gen uint64, snap storage.Snapshot, force bool) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.logger.Debugf("mirror: dropped snapshot from superseded subscription %d", gen)
		return
	}
	if s.pendingCurrent > 0 && !force {
		s.stale = true
		s.mu.Unlock()
		return
	}
	if s.applyLocked(snap) {
		s.enqueueLocked()
	}
	if !s.loaded {
		s.loaded = true
		close(s.ready)
	}
	s.mu.Unlock()
	s.notifier.Notify()
}

// applyLocked installs snap as the mirror and reports whether the mirror now
// differs from the backend and needs to be written back.
func (s *Store) applyLocked(snap storage.Snapshot) bool {
	now := s.now()
	if !snap.Exists {
		if s.seeded {
			return false
		}
		if !s.seed.Apply(&s.doc, now) {
			return false
		}
		s.seeded = true
		s.logger.Infof("mirror: seeded defaults for %s", s.uid)
		return true
	}
	doc, err := decodeDocument(snap.Data)
	if err != nil {
		s.logger.Errorf("mirror: failed to decode snapshot for %s: %v", s.uid, err)
		return false
	}
	s.doc = doc
	dirty := s.stats.recomputeLocked(now)
	if s.stats.ensureStarterLocked() {
		dirty = true
	}
	return dirty
}

// mutate applies fn to the mirror, then queues a write and notifies. fn errors
// leave the mirror untouched as long as fn itself did not modify it.
func (s *Store) mutate(fn func(doc *internal.Document) error) error {
	s.mu.Lock()
	if s.uid == "" {
		s.mu.Unlock()
		return ErrSignedOut
	}
	if !s.loaded {
		s.mu.Unlock()
		return ErrNotLoaded
	}
	if err := fn(&s.doc); err != nil {
		s.mu.Unlock()
		return err
	}
	s.enqueueLocked()
	s.mu.Unlock()
	s.notifier.Notify()
	return nil
}

func (s *Store) enqueueLocked() {
	if s.uid == "" {
		return
	}
	if s.pending == 0 {
		s.drained = make(chan struct{})
	}
	s.pending++
	s.pendingCurrent++
	s.queue = append(s.queue, write{gen: s.gen, uid: s.uid, doc: s.doc.Clone()})
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Store) writeWorker() {
	defer close(s.done)
	for {
		select {
		case <-s.wake:
			s.drainQueue()
		case <-s.shutdown:
			s.drainQueue()
			return
		}
	}
}

func (s *Store) drainQueue() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		w := s.queue[0]
		s.queue = s.queue[1:]
		s.mu.Unlock()
		s.persist(w)
	}
}

func (s *Store) persist(w write) {
	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	err := s.backend.Set(ctx, w.uid, w.doc)
	cancel()
	if err != nil {
		s.logger.Errorf("mirror: failed to persist users/%s: %v", w.uid, err)
	}

	// Snapshots skipped while writes were in flight may have carried changes
	// from elsewhere; the last write of a generation reads the settled document
	// before it counts as done.
	for {
		s.mu.Lock()
		if w.gen != s.gen || s.pendingCurrent != 1 || !s.stale {
			s.finishLocked(w)
			s.mu.Unlock()
			return
		}
		s.stale = false
		s.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
		snap, err := s.backend.Get(ctx, w.uid)
		cancel()
		if err != nil {
			s.logger.Errorf("mirror: failed to resync users/%s: %v", w.uid, err)
			s.mu.Lock()
			s.finishLocked(w)
			s.mu.Unlock()
			return
		}
		s.onSnapshot(w.gen, snap, true)
	}
}

func (s *Store) finishLocked(w write) {
	s.pending--
	if w.gen == s.gen && s.pendingCurrent > 0 {
		s.pendingCurrent--
	}
	if s.pending == 0 {
		close(s.drained)
	}
}
