package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Rrens/ai-interviewer/internal/domain"
)

const sessionPrefix = "interview:session:"

// SessionRepository stores session documents as JSON strings
type SessionRepository struct {
	client *Client
	ttl    time.Duration
}

// NewSessionRepository creates a session store. A zero ttl keeps documents forever.
func NewSessionRepository(client *Client, ttl time.Duration) *SessionRepository {
	return &SessionRepository{client: client, ttl: ttl}
}

func sessionKey(id string) string {
	return sessionPrefix + id
}

func (r *SessionRepository) Load(ctx context.Context, id string) (*domain.Session, error) {
	data, err := r.client.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &s, nil
}

func (r *SessionRepository) Save(ctx context.Context, session *domain.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.client.rdb.Set(ctx, sessionKey(session.SessionID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	return r.client.rdb.Del(ctx, sessionKey(id)).Err()
}

// List scans the session keyspace
func (r *SessionRepository) List(ctx context.Context) ([]string, error) {
	ids := []string{}
	iter := r.client.rdb.Scan(ctx, 0, sessionPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), sessionPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan sessions: %w", err)
	}

	sort.Strings(ids)
	return ids, nil
}

func (r *SessionRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}
