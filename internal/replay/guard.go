// ABOUTME: Thread-safe TTL cache tracking already-seen sign-in signatures
// ABOUTME: Rejects replayed credentials within the signature acceptance window

package replay

import (
	"container/list"
	"sync"
	"time"
)

// guardEntry stores the timestamp and list element for a tracked key.
type guardEntry struct {
	timestamp time.Time
	element   *list.Element
}

// Guard provides a thread-safe, TTL-based, size-limited record of sign-in
// signatures that have already been accepted. A signature presented twice
// within the window is a replay and must be rejected. Uses a doubly-linked
// list to maintain insertion order for O(1) eviction.
type Guard struct {
	mu      sync.Mutex
	seen    map[string]*guardEntry
	order   *list.List // keys in insertion order, oldest at front
	ttl     time.Duration
	maxSize int
	done    chan struct{}
	closed  bool
}

// New creates a replay guard with the specified TTL and maximum size.
// A background goroutine periodically cleans up expired entries.
func New(ttl time.Duration, maxSize int) *Guard {
	g := &Guard{
		seen:    make(map[string]*guardEntry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	go g.cleanup()
	return g
}

// Seen atomically checks whether key was already recorded and records it if
// not. Returns true for a replay, false for a first use. The single
// lock-held check-and-record avoids the TOCTOU race where two concurrent
// requests both pass a lookup before either records.
func (g *Guard) Seen(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, ok := g.seen[key]
	if ok && time.Since(entry.timestamp) < g.ttl {
		return true
	}

	g.record(key)
	return false
}

// record inserts or refreshes a key. Must be called with mu held.
func (g *Guard) record(key string) {
	now := time.Now()

	if entry, exists := g.seen[key]; exists {
		entry.timestamp = now
		g.order.MoveToBack(entry.element)
		return
	}

	if len(g.seen) >= g.maxSize {
		g.evictOldest()
	}

	elem := g.order.PushBack(key)
	g.seen[key] = &guardEntry{timestamp: now, element: elem}
}

// evictOldest removes the oldest entry. Must be called with mu held.
func (g *Guard) evictOldest() {
	front := g.order.Front()
	if front == nil {
		return
	}

	key, _ := front.Value.(string)
	g.order.Remove(front)
	delete(g.seen, key)
}

// cleanup runs in a background goroutine, periodically removing expired entries.
func (g *Guard) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.runCleanup()
		case <-g.done:
			return
		}
	}
}

// runCleanup removes all expired entries.
func (g *Guard) runCleanup() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	for key, entry := range g.seen {
		if now.Sub(entry.timestamp) > g.ttl {
			g.order.Remove(entry.element)
			delete(g.seen, key)
		}
	}
}

// Close stops the background cleanup goroutine. Safe to call multiple times.
func (g *Guard) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.closed {
		close(g.done)
		g.closed = true
	}
}
