package services

import (
	"sort"
	"sync"
)

// SourceLocks hands out one mutex per document name so that ingest,
// rename and delete of the same document run one at a time.
// Locks are only held within this process.
type SourceLocks struct {
	mu    sync.Mutex
	locks map[string]*sourceLock
}

type sourceLock struct {
	mu   sync.Mutex
	refs int
}

// NewSourceLocks creates an empty lock table.
func NewSourceLocks() *SourceLocks {
	return &SourceLocks{locks: make(map[string]*sourceLock)}
}

// Lock acquires the locks for names and returns a function releasing them.
// Names are locked in sorted order, so callers locking several names
// cannot deadlock each other.
func (l *SourceLocks) Lock(names ...string) func() {
	keys := uniqueSorted(names)

	held := make([]*sourceLock, 0, len(keys))
	for _, name := range keys {
		lk := l.acquire(name)
		lk.mu.Lock()
		held = append(held, lk)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
			l.release(keys[i])
		}
	}
}

func (l *SourceLocks) acquire(name string) *sourceLock {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk, ok := l.locks[name]
	if !ok {
		lk = &sourceLock{}
		l.locks[name] = lk
	}
	lk.refs++
	return lk
}

func (l *SourceLocks) release(name string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk, ok := l.locks[name]
	if !ok {
		return
	}
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, name)
	}
}

// size reports how many names currently have a lock entry.
func (l *SourceLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

func uniqueSorted(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
