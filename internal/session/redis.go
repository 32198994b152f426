package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// lingerScript refreshes the key's expiry only when it still holds the
// caller's token. The key is never deleted on release.
var lingerScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// RedisTracker shares current tokens between API instances.
type RedisTracker struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisTracker(client redis.UniversalClient, ttl time.Duration) *RedisTracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisTracker{client: client, ttl: ttl}
}

func (t *RedisTracker) Begin(ctx context.Context, accountID, uiContext string) (string, error) {
	token := uuid.NewString()
	if err := t.client.Set(ctx, trackerKey(accountID, uiContext), token, t.ttl).Err(); err != nil {
		return "", fmt.Errorf("session: set token: %w", err)
	}
	return token, nil
}

func (t *RedisTracker) IsCurrent(ctx context.Context, accountID, uiContext, token string) (bool, error) {
	current, err := t.client.Get(ctx, trackerKey(accountID, uiContext)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("session: get token: %w", err)
	}
	return current == token, nil
}

func (t *RedisTracker) End(ctx context.Context, accountID, uiContext, token string) error {
	key := trackerKey(accountID, uiContext)
	if err := lingerScript.Run(ctx, t.client, []string{key}, token, t.ttl.Milliseconds()).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("session: release token: %w", err)
	}
	return nil
}
