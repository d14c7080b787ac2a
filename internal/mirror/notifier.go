package mirror

import (
	"sync"

	"github.com/yourname/eduflow/internal"
)

// Notifier calls its subscribers, in registration order, whenever the mirror changes.
type Notifier struct {
	mu     sync.Mutex
	nextID uint64
	subs   []subscriber
	logger internal.Logger
}

type subscriber struct {
	id uint64
	fn func()
}

func NewNotifier(logger internal.Logger) *Notifier {
	return &Notifier{logger: logger}
}

// Subscribe registers fn without calling it. The returned func unregisters it
// and is safe to call more than once.
func (n *Notifier) Subscribe(fn func()) func() {
	n.mu.Lock()
	n.nextID++
	id := n.nextID
	n.subs = append(n.subs, subscriber{id: id, fn: fn})
	n.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			for i, s := range n.subs {
				if s.id == id {
					n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (n *Notifier) Notify() {
	n.mu.Lock()
	subs := append([]subscriber(nil), n.subs...)
	n.mu.Unlock()
	for _, s := range subs {
		n.call(s)
	}
}

func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

func (n *Notifier) call(s subscriber) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Errorf("mirror: change subscriber %d panicked: %v", s.id, r)
		}
	}()
	s.fn()
}
