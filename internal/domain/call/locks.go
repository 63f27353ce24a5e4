package call

import "sync"

// LockTable serializes operations per call. Operations against the same call
// take the same mutex; operations against different calls run in parallel.
// The transfer state machine is not safe for concurrent transition attempts,
// so every mutating entry point acquires the call's lock first.
type LockTable struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLockTable creates an empty lock table.
func NewLockTable() *LockTable {
	return &LockTable{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for callID and returns its release function.
func (t *LockTable) Lock(callID string) func() {
	t.mu.Lock()
	lock, ok := t.locks[callID]
	if !ok {
		lock = &sync.Mutex{}
		t.locks[callID] = lock
	}
	t.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
