package services

import "sync"

// taskLocks serializes status transitions per task id so that two concurrent
// callers cannot both observe the same pre-transition status and both succeed.
// Entries are reference-counted and removed once the last holder unlocks.
type taskLocks struct {
	mu    sync.Mutex
	locks map[string]*taskLockEntry
}

type taskLockEntry struct {
	mu   sync.Mutex
	refs int
}

func newTaskLocks() *taskLocks {
	return &taskLocks{locks: make(map[string]*taskLockEntry)}
}

// Lock acquires the lock for the given task id and returns the matching unlock
// function.
func (l *taskLocks) Lock(taskID string) func() {
	l.mu.Lock()
	entry, ok := l.locks[taskID]
	if !ok {
		entry = &taskLockEntry{}
		l.locks[taskID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, taskID)
		}
		l.mu.Unlock()
	}
}
