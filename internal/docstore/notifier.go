package docstore

import "sync"

// notifier fans collection changes out to registered watchers. Both store
// backends publish through it after each successful mutation.
type notifier struct {
	mu       sync.Mutex
	next     int
	watchers map[string]map[int]func([]Document)
}

func (n *notifier) watch(collection string, fn func([]Document)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.watchers == nil {
		n.watchers = make(map[string]map[int]func([]Document))
	}
	if n.watchers[collection] == nil {
		n.watchers[collection] = make(map[int]func([]Document))
	}

	id := n.next
	n.next++
	n.watchers[collection][id] = fn

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.watchers[collection], id)
	}
}

// notify invokes each watcher of the collection with its own copy of docs.
// Callbacks run on the mutating goroutine, outside any store lock, so a
// callback may itself issue store operations.
func (n *notifier) notify(collection string, docs []Document) {
	n.mu.Lock()
	fns := make([]func([]Document), 0, len(n.watchers[collection]))
	for _, fn := range n.watchers[collection] {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(append([]Document(nil), docs...))
	}
}
