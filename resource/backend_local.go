package resource

import (
	"errors"
	"sort"
	"sync"
)

var ErrClosed = errors.New("resource backend closed")

// LocalBackend is an in-memory backend with monotonically increasing handles.
type LocalBackend struct {
	entries map[Handle]entry
	next    Handle
	mu      sync.RWMutex
	closed  bool
}

type entry struct {
	value any
	kind  uint32
}

var _ Backend = (*LocalBackend)(nil)

// NewLocalBackend creates a new in-memory backend.
func NewLocalBackend() *LocalBackend {
	return &LocalBackend{
		entries: make(map[Handle]entry, 16),
	}
}

// Create stores a value and returns a handle.
func (b *LocalBackend) Create(kind uint32, value any) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}

	b.next++
	b.entries[b.next] = entry{value: value, kind: kind}
	return b.next, nil
}

// Get retrieves a value by handle.
func (b *LocalBackend) Get(handle Handle) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, ok := b.entries[handle]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Kind returns the kind an entry was created with.
func (b *LocalBackend) Kind(handle Handle) (uint32, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, ok := b.entries[handle]
	if !ok {
		return 0, false
	}
	return e.kind, true
}

// Drop removes an entry and returns (value, true) if it existed.
func (b *LocalBackend) Drop(handle Handle) (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e, ok := b.entries[handle]
	if !ok {
		return nil, false
	}
	delete(b.entries, handle)
	return e.value, true
}

// Len returns the number of live entries.
func (b *LocalBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

// Each calls fn for each live entry in handle order until fn returns false.
func (b *LocalBackend) Each(fn func(h Handle, kind uint32, value any) bool) {
	b.mu.RLock()
	handles := make([]Handle, 0, len(b.entries))
	for h := range b.entries {
		handles = append(handles, h)
	}
	snapshot := make(map[Handle]entry, len(b.entries))
	for h, e := range b.entries {
		snapshot[h] = e
	}
	b.mu.RUnlock()

	sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
	for _, h := range handles {
		e := snapshot[h]
		if !fn(h, e.kind, e.value) {
			return
		}
	}
}

// Close drops all entries.
func (b *LocalBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for h, e := range b.entries {
		if d, ok := e.value.(Dropper); ok {
			d.Drop()
		}
		delete(b.entries, h)
	}
	return nil
}
