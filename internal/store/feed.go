package store

import (
	"context"
	"sync"
)

// Hub fans change nudges out to collection watchers. Backends call Nudge
// after a write or when a change notification arrives.
type Hub struct {
	mu       sync.Mutex
	watchers map[string]map[*watcher]struct{}
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{watchers: make(map[string]map[*watcher]struct{})}
}

// watcher reloads its collection and delivers it once per nudge. Nudges
// that arrive during a reload coalesce into one follow-up delivery.
type watcher struct {
	hub        *Hub
	collection string
	deliver    func(ctx context.Context)
	wake       chan struct{}
	ctx        context.Context
	cancel     context.CancelFunc
	once       sync.Once
}

// Watch registers deliver for collection. deliver runs once immediately and
// again after every Nudge, on its own goroutine, until the returned
// Subscription is cancelled or ctx is done.
func (h *Hub) Watch(ctx context.Context, collection string, deliver func(ctx context.Context)) Subscription {
	wctx, cancel := context.WithCancel(ctx)
	w := &watcher{
		hub:        h,
		collection: collection,
		deliver:    deliver,
		wake:       make(chan struct{}, 1),
		ctx:        wctx,
		cancel:     cancel,
	}

	h.mu.Lock()
	set, ok := h.watchers[collection]
	if !ok {
		set = make(map[*watcher]struct{})
		h.watchers[collection] = set
	}
	set[w] = struct{}{}
	h.mu.Unlock()

	// Initial snapshot.
	w.poke()
	go w.run()
	return w
}

// Nudge wakes every watcher of collection.
func (h *Hub) Nudge(collection string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for w := range h.watchers[collection] {
		w.poke()
	}
}

func (h *Hub) remove(w *watcher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.watchers[w.collection], w)
}

// CancelAll cancels every registered watcher.
func (h *Hub) CancelAll() {
	h.mu.Lock()
	all := make([]*watcher, 0)
	for _, set := range h.watchers {
		for w := range set {
			all = append(all, w)
		}
	}
	h.mu.Unlock()
	for _, w := range all {
		w.Cancel()
	}
}

func (w *watcher) poke() {
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *watcher) run() {
	for {
		select {
		case <-w.ctx.Done():
			w.hub.remove(w)
			return
		case <-w.wake:
			if w.ctx.Err() != nil {
				continue
			}
			w.deliver(w.ctx)
		}
	}
}

// Cancel stops the watch. It does not wait for an in-flight delivery, so
// it is safe to call from inside the callback.
func (w *watcher) Cancel() {
	w.once.Do(w.cancel)
}
