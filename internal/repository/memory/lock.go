package memory

import (
	"context"
	"sync"

	"github.com/Rrens/ai-interviewer/internal/domain"
)

// TurnLocker serializes turns within a single process
type TurnLocker struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func NewTurnLocker() *TurnLocker {
	return &TurnLocker{active: make(map[string]struct{})}
}

func (l *TurnLocker) TryLock(ctx context.Context, sessionID string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, busy := l.active[sessionID]; busy {
		return nil, domain.ErrTurnInProgress
	}
	l.active[sessionID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.active, sessionID)
			l.mu.Unlock()
		})
	}, nil
}
