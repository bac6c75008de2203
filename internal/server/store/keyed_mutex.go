package store

import "sync"

// keyedMutex serializes operations per key while letting different keys
// proceed independently. Entries are kept for the life of the store; the
// id space is small enough that this never matters.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (km *keyedMutex) Lock(key string) {
	km.get(key).Lock()
}

func (km *keyedMutex) Unlock(key string) {
	km.get(key).Unlock()
}

func (km *keyedMutex) get(key string) *sync.Mutex {
	km.mu.Lock()
	defer km.mu.Unlock()

	lock, ok := km.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		km.locks[key] = lock
	}
	return lock
}
