package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// MemoryTracker keeps current tokens in process. It fits single instance
// deployments.
type MemoryTracker struct {
	mu    sync.Mutex
	cache *cache.Cache
	ttl   time.Duration
}

func NewMemoryTracker(ttl time.Duration) *MemoryTracker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryTracker{cache: cache.New(ttl, 2*ttl), ttl: ttl}
}

// Begin issues a new token and makes it current, superseding any earlier one.
func (t *MemoryTracker) Begin(ctx context.Context, accountID, uiContext string) (string, error) {
	token := uuid.NewString()
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cache.Set(trackerKey(accountID, uiContext), token, t.ttl)
	return token, nil
}

// IsCurrent reports whether token is still the latest for the pair. A
// missing entry means a newer request ended or the token expired, so the
// caller is treated as stale.
func (t *MemoryTracker) IsCurrent(ctx context.Context, accountID, uiContext, token string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.cache.Get(trackerKey(accountID, uiContext))
	if !ok {
		return false, nil
	}
	return v.(string) == token, nil
}

// End keeps the token as the latest for another full TTL so that older
// requests still in flight keep seeing themselves as superseded.
func (t *MemoryTracker) End(ctx context.Context, accountID, uiContext, token string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := trackerKey(accountID, uiContext)
	if v, ok := t.cache.Get(key); ok && v.(string) == token {
		t.cache.Set(key, token, t.ttl)
	}
	return nil
}
