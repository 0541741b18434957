// Package lock provides tenant-scoped distributed mutual exclusion on top
// of Redis. Acquisition is non-blocking: callers that lose the race get
// ErrBusy immediately and must not wait.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"actiongate/internal/logger"
)

// ErrBusy is returned when the lock is already held by another holder.
var ErrBusy = errors.New("lock already held")

// Locker hands out named distributed locks.
type Locker struct {
	client *redislock.Client
	ttl    time.Duration
}

// NewLocker creates a Locker backed by the given Redis client. ttl bounds
// how long a crashed holder can keep a lock dangling.
func NewLocker(rdb *redis.Client, ttl time.Duration) *Locker {
	return &Locker{client: redislock.New(rdb), ttl: ttl}
}

// DetectBatchKey returns the lock key serializing detect batches per tenant.
func DetectBatchKey(tenantID uint) string {
	return fmt.Sprintf("detect:%d", tenantID)
}

// TryAcquire attempts to obtain the named lock without retrying. Returns
// ErrBusy when another holder has it. The returned Lock must be released
// via Release, typically in a defer so every exit path (including panics)
// releases it.
func (l *Locker) TryAcquire(ctx context.Context, key string) (*Lock, error) {
	inner, err := l.client.Obtain(ctx, key, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrBusy
	}
	if err != nil {
		return nil, err
	}
	return &Lock{inner: inner, key: key}, nil
}

// Lock is a held distributed lock.
type Lock struct {
	inner *redislock.Lock
	key   string
}

// Release releases the lock. Safe to call with a background context from a
// defer; release failures are logged, not returned, because the TTL bounds
// the damage and the primary operation already finished.
func (l *Lock) Release(ctx context.Context) {
	if l == nil || l.inner == nil {
		return
	}
	if err := l.inner.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
		logger.Get().Warnw("failed to release lock", "key", l.key, "error", err)
	}
}
