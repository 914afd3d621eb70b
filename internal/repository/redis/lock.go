package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/ai-interviewer/internal/domain"
)

const lockPrefix = "interview:lock:"

// releaseScript deletes the lock only if it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// TurnLocker serializes turns of a session across server instances
type TurnLocker struct {
	client *Client
	ttl    time.Duration
}

// NewTurnLocker creates a locker whose locks expire after ttl
func NewTurnLocker(client *Client, ttl time.Duration) *TurnLocker {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &TurnLocker{client: client, ttl: ttl}
}

func (l *TurnLocker) TryLock(ctx context.Context, sessionID string) (func(), error) {
	key := lockPrefix + sessionID
	token := uuid.NewString()

	ok, err := l.client.rdb.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire turn lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrTurnInProgress
	}

	return func() {
		// the request context may already be done
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.client.rdb, []string{key}, token).Err(); err != nil {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to release turn lock")
		}
	}, nil
}
