package usecase

import "sync"

// GroupLocker serializes read-modify-write sequences on one tracked group.
type GroupLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewGroupLocker() *GroupLocker {
	return &GroupLocker{locks: make(map[string]*sync.Mutex)}
}

// Lock blocks until groupID is free and returns the matching unlock func.
func (l *GroupLocker) Lock(groupID string) func() {
	l.mu.Lock()
	m, ok := l.locks[groupID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[groupID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
