package state

import "sync"

// UserLocks serializes work per user instead of behind one global lock.
// Entries are dropped once no goroutine holds or waits on them.
type UserLocks struct {
	userLocks map[string]*userLock // user id → mutex
	mapMutex  sync.Mutex           // protects the map and the ref counts
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func NewUserLocks() *UserLocks {
	return &UserLocks{
		userLocks: make(map[string]*userLock),
	}
}

// Lock blocks until the user's lock is held
func (l *UserLocks) Lock(userID string) {
	l.mapMutex.Lock()
	ul := l.userLocks[userID]
	if ul == nil {
		ul = &userLock{}
		l.userLocks[userID] = ul
	}
	ul.refs++
	l.mapMutex.Unlock()

	ul.mu.Lock()
}

func (l *UserLocks) Unlock(userID string) {
	l.mapMutex.Lock()
	ul := l.userLocks[userID]
	if ul == nil {
		l.mapMutex.Unlock()
		return
	}
	ul.refs--
	if ul.refs == 0 {
		delete(l.userLocks, userID)
	}
	l.mapMutex.Unlock()

	ul.mu.Unlock()
}

// Len returns the number of users with a held or awaited lock
func (l *UserLocks) Len() int {
	l.mapMutex.Lock()
	defer l.mapMutex.Unlock()
	return len(l.userLocks)
}
