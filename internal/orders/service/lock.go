package service

import "sync"

// keyedMutex serializes order creation per agent+campaign pair. Steps between
// the open/closed-order lookups and the daily limit write are read-then-write
// without a store transaction; without this serialization two concurrent
// payments for one agent could both observe "no open order" and double-apply
// the leftover rollover.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for the key, creating it on first use, and returns
// the unlock function.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	lock, ok := k.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		k.locks[key] = lock
	}
	k.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
