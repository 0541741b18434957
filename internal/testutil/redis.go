package testutil

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"actiongate/internal/lock"
)

// SetupTestLocker starts an in-process Redis and returns a Locker backed by
// it. The server and client are cleaned up with the test.
func SetupTestLocker(t *testing.T, ttl time.Duration) *lock.Locker {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		if err := client.Close(); err != nil {
			t.Errorf("failed to close test redis client: %v", err)
		}
	})

	return lock.NewLocker(client, ttl)
}
