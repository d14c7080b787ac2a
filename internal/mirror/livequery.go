package mirror

import (
	"sync"
	"sync/atomic"

	"github.com/yourname/eduflow/internal"
)

// Watch runs query once right away and again after every notification, each
// run on its own goroutine. Runs are numbered; a result is delivered only if no
// newer run was started before it finished, so a slow stale run can never
// overwrite a fresher one.
func Watch[T any](n *Notifier, query func() (T, error), deliver func(T), logger internal.Logger) (stop func()) {
	var (
		issued  atomic.Uint64
		stopped atomic.Bool
		mu      sync.Mutex
	)

	run := func() {
		gen := issued.Add(1)
		go func() {
			res, err := query()
			if err != nil {
				logger.Warnf("mirror: live query %d failed: %v", gen, err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if stopped.Load() || gen != issued.Load() {
				return
			}
			deliver(res)
		}()
	}

	unsubscribe := n.Subscribe(run)
	run()
	return func() {
		stopped.Store(true)
		unsubscribe()
	}
}
