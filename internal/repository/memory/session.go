package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/Rrens/ai-interviewer/internal/domain"
)

// SessionRepository keeps encoded session documents in process memory.
// Documents are stored encoded so callers never share slices with the store.
type SessionRepository struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewSessionRepository creates an empty in-memory store
func NewSessionRepository() *SessionRepository {
	return &SessionRepository{docs: make(map[string][]byte)}
}

func (r *SessionRepository) Load(ctx context.Context, id string) (*domain.Session, error) {
	r.mu.RLock()
	doc, ok := r.docs[id]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	var s domain.Session
	if err := json.Unmarshal(doc, &s); err != nil {
		return nil, fmt.Errorf("failed to decode session %s: %w", id, err)
	}
	return &s, nil
}

func (r *SessionRepository) Save(ctx context.Context, session *domain.Session) error {
	doc, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", session.SessionID, err)
	}

	r.mu.Lock()
	r.docs[session.SessionID] = doc
	r.mu.Unlock()
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	delete(r.docs, id)
	r.mu.Unlock()
	return nil
}

func (r *SessionRepository) List(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	ids := make([]string, 0, len(r.docs))
	for id := range r.docs {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids, nil
}

func (r *SessionRepository) Ping(ctx context.Context) error {
	return nil
}
