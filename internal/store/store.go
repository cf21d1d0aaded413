// Package store holds the persistence contracts shared by every ledger.
package store

import (
	"context"
	"sort"
	"sync"
)

// Transactor runs fn as one atomic unit. Repositories called with the ctx
// passed to fn take part in the same transaction; nested calls join it.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Locker serializes work on keys (product codes). The returned func releases
// every key.
type Locker interface {
	Lock(ctx context.Context, keys ...string) (func(), error)
}

// LocalLocker is an in-process Locker.
type LocalLocker struct {
	mu   sync.Mutex
	keys map[string]*sync.Mutex
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{keys: make(map[string]*sync.Mutex)}
}

func (l *LocalLocker) Lock(ctx context.Context, keys ...string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	keys = SortedKeys(keys)
	held := make([]*sync.Mutex, 0, len(keys))
	for _, k := range keys {
		m := l.mutex(k)
		m.Lock()
		held = append(held, m)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}, nil
}

func (l *LocalLocker) mutex(key string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.keys[key]
	if !ok {
		m = &sync.Mutex{}
		l.keys[key] = m
	}
	return m
}

// SortedKeys dedupes and sorts keys so overlapping lock sets are always
// acquired in the same order.
func SortedKeys(keys []string) []string {
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
