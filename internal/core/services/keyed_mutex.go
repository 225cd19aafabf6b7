package services

import "sync"

// keyedMutex serializes operations per key. It closes the check-then-set
// race between concurrent requests for the same room or session without
// serializing unrelated ones.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{
		locks: make(map[string]*sync.Mutex),
	}
}

func (km *keyedMutex) lock(key string) func() {
	km.mu.Lock()
	m, exists := km.locks[key]
	if !exists {
		m = &sync.Mutex{}
		km.locks[key] = m
	}
	km.mu.Unlock()

	m.Lock()
	return m.Unlock
}
