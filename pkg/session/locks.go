package session

import "sync"

// keyedMutex serializes work per conversation. Entries live only while
// someone holds or waits for them.
type keyedMutex struct {
	mu      sync.Mutex
	entries map[string]*keyedEntry
}

type keyedEntry struct {
	sync.Mutex
	waiters int
}

// lock blocks until id is free and returns its unlock function.
func (k *keyedMutex) lock(id string) (unlock func()) {
	k.mu.Lock()
	if k.entries == nil {
		k.entries = make(map[string]*keyedEntry)
	}
	e := k.entries[id]
	if e == nil {
		e = &keyedEntry{}
		k.entries[id] = e
	}
	e.waiters++
	k.mu.Unlock()

	e.Lock()
	return func() {
		e.Unlock()
		k.mu.Lock()
		if e.waiters--; e.waiters == 0 {
			delete(k.entries, id)
		}
		k.mu.Unlock()
	}
}

// size reports how many conversations currently have an entry.
func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}
