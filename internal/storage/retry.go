package storage

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// RetryPolicy bounds the exponential backoff applied to uploads.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// DefaultRetryPolicy doubles a 500ms delay for up to four attempts.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 4, BaseDelay: 500 * time.Millisecond}

// RetryingStore retries Put with exponential backoff. Delete and Get are
// attempted once.
type RetryingStore struct {
	next   ObjectStore
	policy RetryPolicy
	logger zerolog.Logger
}

// WithRetry wraps next.
func WithRetry(next ObjectStore, policy RetryPolicy, logger zerolog.Logger) *RetryingStore {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = DefaultRetryPolicy.BaseDelay
	}
	return &RetryingStore{next: next, policy: policy, logger: logger}
}

func (r *RetryingStore) newBackOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = r.policy.BaseDelay
	exp.Multiplier = 2
	exp.RandomizationFactor = 0
	exp.MaxInterval = r.policy.BaseDelay << r.policy.MaxAttempts
	exp.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(r.policy.MaxAttempts-1)), ctx)
}

func (r *RetryingStore) Put(ctx context.Context, key string, data []byte, contentType string) (Object, error) {
	var obj Object
	attempt := 0
	op := func() error {
		attempt++
		var err error
		obj, err = r.next.Put(ctx, key, data, contentType)
		return err
	}
	notify := func(err error, wait time.Duration) {
		r.logger.Warn().
			Err(err).
			Str("key", key).
			Int("attempt", attempt).
			Dur("retry_in", wait).
			Msg("upload failed, retrying")
	}
	if err := backoff.RetryNotify(op, r.newBackOff(ctx), notify); err != nil {
		return Object{}, err
	}
	return obj, nil
}

func (r *RetryingStore) Delete(ctx context.Context, key string) error {
	return r.next.Delete(ctx, key)
}

// Get reads through to the wrapped store when it supports reads.
func (r *RetryingStore) Get(ctx context.Context, key string) ([]byte, error) {
	reader, ok := r.next.(ObjectReader)
	if !ok {
		return nil, ErrNoStore
	}
	return reader.Get(ctx, key)
}

var (
	_ ObjectStore  = (*RetryingStore)(nil)
	_ ObjectReader = (*RetryingStore)(nil)
)
