package storage

import "sync"

// hub fans snapshots out to per-user watchers. Each watcher runs its own
// goroutine and only keeps the newest undelivered snapshot.
type hub struct {
	mu       sync.Mutex
	next     uint64
	watchers map[string]map[uint64]*watcher
}

type watcher struct {
	fn      func(Snapshot)
	mu      sync.Mutex
	pending *Snapshot
	signal  chan struct{}
	done    chan struct{}
	once    sync.Once
}

func newHub() *hub {
	return &hub{watchers: make(map[string]map[uint64]*watcher)}
}

func (h *hub) add(uid string, fn func(Snapshot)) (*watcher, func()) {
	w := &watcher{
		fn:     fn,
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	h.mu.Lock()
	h.next++
	id := h.next
	if h.watchers[uid] == nil {
		h.watchers[uid] = make(map[uint64]*watcher)
	}
	h.watchers[uid][id] = w
	h.mu.Unlock()

	go w.run()

	cancel := func() {
		h.mu.Lock()
		delete(h.watchers[uid], id)
		if len(h.watchers[uid]) == 0 {
			delete(h.watchers, uid)
		}
		h.mu.Unlock()
		w.stop()
	}
	return w, cancel
}

func (h *hub) publish(uid string, snap Snapshot) {
	h.mu.Lock()
	ws := make([]*watcher, 0, len(h.watchers[uid]))
	for _, w := range h.watchers[uid] {
		ws = append(ws, w)
	}
	h.mu.Unlock()
	for _, w := range ws {
		w.offer(snap)
	}
}

func (h *hub) has(uid string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.watchers[uid]) > 0
}

func (h *hub) uids() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.watchers))
	for uid := range h.watchers {
		out = append(out, uid)
	}
	return out
}

func (h *hub) closeAll() {
	h.mu.Lock()
	all := h.watchers
	h.watchers = make(map[string]map[uint64]*watcher)
	h.mu.Unlock()
	for _, byID := range all {
		for _, w := range byID {
			w.stop()
		}
	}
}

func (w *watcher) offer(snap Snapshot) {
	w.mu.Lock()
	w.pending = &snap
	w.mu.Unlock()
	select {
	case w.signal <- struct{}{}:
	default:
	}
}

func (w *watcher) stop() {
	w.once.Do(func() { close(w.done) })
}

func (w *watcher) run() {
	for {
		select {
		case <-w.signal:
			w.mu.Lock()
			snap := w.pending
			w.pending = nil
			w.mu.Unlock()
			if snap == nil {
				continue
			}
			select {
			case <-w.done:
				return
			default:
			}
			w.fn(*snap)
		case <-w.done:
			return
		}
	}
}
