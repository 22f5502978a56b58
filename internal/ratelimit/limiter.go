// Package ratelimit implements the lifetime per-address prompt limit.
package ratelimit

import (
	"container/list"
	"sync"
)

// DefaultLimit is the number of prompts an address may submit per process lifetime.
const DefaultLimit = 5

// Limiter counts requests per client address. Counts only grow; there is no
// window and no decay. When capacity is positive the least recently seen
// address is dropped once the map is full.
type Limiter struct {
	mu       sync.Mutex
	counts   map[string]*list.Element
	order    *list.List
	limit    int
	capacity int
}

type entry struct {
	addr  string
	count int
}

// New creates a limiter. A non-positive limit falls back to DefaultLimit and
// a non-positive capacity leaves the map unbounded.
func New(limit, capacity int) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if capacity < 0 {
		capacity = 0
	}
	return &Limiter{
		counts:   make(map[string]*list.Element),
		order:    list.New(),
		limit:    limit,
		capacity: capacity,
	}
}

// Admit increments the count for addr and reports whether the new count is
// still within the limit. Denied calls are counted too.
func (l *Limiter) Admit(addr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.counts[addr]
	if !ok {
		e = l.order.PushBack(&entry{addr: addr})
		l.counts[addr] = e
		l.evict()
	} else {
		l.order.MoveToBack(e)
	}

	ent := e.Value.(*entry)
	ent.count++
	return ent.count <= l.limit
}

// Count returns the number of Admit calls seen for addr.
func (l *Limiter) Count(addr string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.counts[addr]; ok {
		return e.Value.(*entry).count
	}
	return 0
}

// Limit returns the configured per-address limit.
func (l *Limiter) Limit() int {
	return l.limit
}

// evict drops the oldest addresses above capacity. Caller holds l.mu.
func (l *Limiter) evict() {
	if l.capacity == 0 {
		return
	}
	for l.order.Len() > l.capacity {
		front := l.order.Front()
		l.order.Remove(front)
		delete(l.counts, front.Value.(*entry).addr)
	}
}
