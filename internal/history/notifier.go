package history

import "sync"

// Notifier fans out "history changed" signals. Listeners carry no payload and
// are expected to re-fetch.
type Notifier struct {
	mu        sync.RWMutex
	nextID    int
	listeners map[int]func()
}

func NewNotifier() *Notifier {
	return &Notifier{listeners: make(map[int]func())}
}

// Subscribe registers fn and returns a function that removes it.
func (n *Notifier) Subscribe(fn func()) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.listeners[id] = fn

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.listeners, id)
	}
}

// Notify calls every listener synchronously on the caller's goroutine.
func (n *Notifier) Notify() {
	n.mu.RLock()
	fns := make([]func(), 0, len(n.listeners))
	for _, fn := range n.listeners {
		fns = append(fns, fn)
	}
	n.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}
