package inventory

import (
	"context"
	"sync"
)

// lockTable hands out one mutual-exclusion slot per event so that every
// reserve/cancel/adjust sequence on a given event runs alone while
// operations on different events proceed in parallel. Lock entries are
// reference counted and removed once the last waiter is gone, so the table
// does not grow with the number of events ever seen.
type lockTable struct {
	mu    sync.Mutex
	locks map[uint64]*eventLock
}

type eventLock struct {
	slot chan struct{} // buffered with capacity 1; holding the token = holding the lock
	refs int
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[uint64]*eventLock)}
}

// acquire blocks until the event's slot is free or ctx expires. On success
// it returns a release function that must be called exactly once. On
// context expiry it returns ErrLockTimeout so callers can distinguish a
// timed-out wait from business failures.
func (t *lockTable) acquire(ctx context.Context, eventID uint64) (func(), error) {
	t.mu.Lock()
	l, ok := t.locks[eventID]
	if !ok {
		l = &eventLock{slot: make(chan struct{}, 1)}
		t.locks[eventID] = l
	}
	l.refs++
	t.mu.Unlock()

	select {
	case l.slot <- struct{}{}:
		return func() {
			<-l.slot
			t.release(eventID, l)
		}, nil
	case <-ctx.Done():
		t.release(eventID, l)
		return nil, ErrLockTimeout
	}
}

func (t *lockTable) release(eventID uint64, l *eventLock) {
	t.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(t.locks, eventID)
	}
	t.mu.Unlock()
}
