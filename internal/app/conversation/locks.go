package conversation

import (
	"sync"

	"github.com/PabloGalante/chatpro/internal/domain"
)

// sessionLocks serialises read-modify-write cycles per session id.
// Entries are dropped once nobody holds or waits for them.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[domain.SessionID]*refLock
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

func (l *sessionLocks) lock(id domain.SessionID) (unlock func()) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[domain.SessionID]*refLock)
	}
	rl, ok := l.locks[id]
	if !ok {
		rl = &refLock{}
		l.locks[id] = rl
	}
	rl.refs++
	l.mu.Unlock()

	rl.mu.Lock()

	return func() {
		rl.mu.Unlock()

		l.mu.Lock()
		rl.refs--
		if rl.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}

func (l *sessionLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
