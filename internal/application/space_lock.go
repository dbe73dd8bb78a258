package application

import "sync"

// spaceLocker serializes the conflict-check-then-write sequence per space id.
// The underlying store offers no transactional read-modify-write, so without
// this two concurrent requests for overlapping intervals on the same space
// could both pass the conflict check and both commit.
type spaceLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSpaceLocker() *spaceLocker {
	return &spaceLocker{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex guarding spaceID and returns its release function.
// Entries are retained for the life of the process; the table is bounded by
// the number of distinct spaces.
func (l *spaceLocker) Lock(spaceID string) func() {
	if l == nil {
		return func() {}
	}

	l.mu.Lock()
	lock, ok := l.locks[spaceID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[spaceID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
