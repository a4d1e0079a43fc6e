package services

import "sync"

// AccountLocks hands out one mutex per account id. Entries are reference
// counted and dropped once nobody holds or waits for them, so unrelated
// accounts never contend and the map does not grow without bound.
type AccountLocks struct {
	mu    sync.Mutex
	locks map[string]*accountLock
}

type accountLock struct {
	mu   sync.Mutex
	refs int
}

func NewAccountLocks() *AccountLocks {
	return &AccountLocks{locks: map[string]*accountLock{}}
}

// Lock blocks until the account's mutex is held and returns its release
// function.
func (l *AccountLocks) Lock(accountID string) (unlock func()) {
	l.mu.Lock()
	al, ok := l.locks[accountID]
	if !ok {
		al = &accountLock{}
		l.locks[accountID] = al
	}
	al.refs++
	l.mu.Unlock()

	al.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			al.mu.Unlock()

			l.mu.Lock()
			al.refs--
			if al.refs == 0 {
				delete(l.locks, accountID)
			}
			l.mu.Unlock()
		})
	}
}

func (l *AccountLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
