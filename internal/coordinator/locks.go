package coordinator

import "sync"

// lockArena hands out per-device mutexes on demand.
//
// Locks are reference counted: a lock exists only while at least one
// goroutine holds or waits for it, so the arena never grows with the
// number of devices ever seen, only with the number currently active.
type lockArena struct {
	mu    sync.Mutex
	locks map[string]*deviceLock
}

type deviceLock struct {
	mu   sync.Mutex
	refs int
}

func newLockArena() *lockArena {
	return &lockArena{locks: make(map[string]*deviceLock)}
}

// acquire blocks until the caller holds the device's lock.
func (a *lockArena) acquire(deviceID string) *deviceLock {
	a.mu.Lock()
	l, ok := a.locks[deviceID]
	if !ok {
		l = &deviceLock{}
		a.locks[deviceID] = l
	}
	l.refs++
	a.mu.Unlock()

	l.mu.Lock()
	return l
}

// release unlocks the device's lock and evicts it when no one else is
// waiting.
func (a *lockArena) release(deviceID string, l *deviceLock) {
	l.mu.Unlock()

	a.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(a.locks, deviceID)
	}
	a.mu.Unlock()
}

// size reports the number of live locks.
func (a *lockArena) size() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.locks)
}
