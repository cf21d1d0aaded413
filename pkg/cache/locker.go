package cache

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
)

var ErrLockBusy = errors.New("system busy, please try again later (lock)")

// RedisLocker serializes work on a set of keys across processes (several cashier
// stations talking to different service replicas).
type RedisLocker struct {
	client  *RedisClient
	prefix  string
	ttl     time.Duration
	retries int
	backoff time.Duration
}

func NewRedisLocker(client *RedisClient, prefix string) *RedisLocker {
	return &RedisLocker{
		client:  client,
		prefix:  prefix,
		ttl:     10 * time.Second,
		retries: 20,
		backoff: 50 * time.Millisecond,
	}
}

// Lock acquires every key in sorted order and returns a release func.
// Sorting keeps two callers locking overlapping carts from deadlocking.
func (l *RedisLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	keys = uniqueSorted(keys)
	token := uuid.New().String()

	held := make([]string, 0, len(keys))
	release := func() {
		// Use a fresh context so a cancelled request still frees its locks.
		rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		for i := len(held) - 1; i >= 0; i-- {
			_ = l.client.ReleaseLock(rctx, held[i], token)
		}
	}

	for _, k := range keys {
		key := l.prefix + k
		acquired := false
		for i := 0; i < l.retries; i++ {
			ok, err := l.client.AcquireLock(ctx, key, token, l.ttl)
			if err != nil {
				release()
				return nil, err
			}
			if ok {
				acquired = true
				break
			}
			select {
			case <-ctx.Done():
				release()
				return nil, ctx.Err()
			case <-time.After(l.backoff):
			}
		}
		if !acquired {
			release()
			return nil, ErrLockBusy
		}
		held = append(held, key)
	}

	return release, nil
}

func uniqueSorted(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
