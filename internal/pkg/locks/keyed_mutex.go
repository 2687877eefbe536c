// Package locks provides in-process mutual exclusion keyed by string, with bounded waits.
//
// Orders and products are locked through separate KeyedMutex instances. Callers always take
// the order lock before any product lock, and product locks are taken in ascending key order
// through Set.Acquire, so two transitions can never wait on each other in a cycle.
package locks

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"fulfillment/internal/pkg/errs"

	"golang.org/x/sync/semaphore"
)

// ErrLockTimeout is the cause of the retryable error returned when a key stays locked
// longer than the configured wait.
var ErrLockTimeout = errors.New("lock wait timed out")

// KeyedMutex serializes work per key. Entries are reference counted and removed once
// nobody holds or waits for them, so the map only contains keys in use.
type KeyedMutex struct {
	name    string
	timeout time.Duration

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	sem  *semaphore.Weighted
	refs int
}

// NewKeyedMutex creates a KeyedMutex. name is used in error messages ("order", "product"),
// timeout bounds each Lock call; a non-positive timeout waits until ctx is done.
func NewKeyedMutex(name string, timeout time.Duration) *KeyedMutex {
	return &KeyedMutex{
		name:    name,
		timeout: timeout,
		entries: make(map[string]*entry),
	}
}

// Lock blocks until key is free, the timeout elapses or ctx is done.
//
// On timeout it returns an errs.RetryableError wrapping ErrLockTimeout. On success the
// returned unlock function must be called exactly once; extra calls are ignored.
//
// Example:
//
//	unlock, err := orderLocks.Lock(ctx, orderID.String())
//	if err != nil {
//	    return err
//	}
//	defer unlock()
func (k *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	e := k.retain(key)

	waitCtx := ctx
	if k.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, k.timeout)
		defer cancel()
	}

	if err := e.sem.Acquire(waitCtx, 1); err != nil {
		k.release(key)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errs.NewRetryableError(k.name+" lock "+key, ErrLockTimeout)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			e.sem.Release(1)
			k.release(key)
		})
	}, nil
}

// NewSet returns an empty Set that acquires keys from this mutex.
func (k *KeyedMutex) NewSet() *Set {
	return &Set{mutex: k, held: make(map[string]func())}
}

func (k *KeyedMutex) retain(key string) *entry {
	k.mu.Lock()
	defer k.mu.Unlock()

	e, ok := k.entries[key]
	if !ok {
		e = &entry{sem: semaphore.NewWeighted(1)}
		k.entries[key] = e
	}
	e.refs++
	return e
}

func (k *KeyedMutex) release(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	e, ok := k.entries[key]
	if !ok {
		return
	}
	e.refs--
	if e.refs == 0 {
		delete(k.entries, key)
	}
}

// Set holds a group of keys until ReleaseAll. It is meant to live for one unit of work:
// stock actions add product keys to it and the command handler releases them after
// commit or rollback. A Set is not safe for concurrent use.
type Set struct {
	mutex *KeyedMutex
	held  map[string]func()
	order []string
}

// Acquire locks every key not already held by the set, in ascending order.
// If any lock fails, keys acquired by this call are released again and the error is returned.
func (s *Set) Acquire(ctx context.Context, keys ...string) error {
	pending := make([]string, 0, len(keys))
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if _, ok := s.held[key]; ok {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		pending = append(pending, key)
	}
	sort.Strings(pending)

	acquired := make([]string, 0, len(pending))
	for _, key := range pending {
		unlock, err := s.mutex.Lock(ctx, key)
		if err != nil {
			for _, k := range acquired {
				s.held[k]()
				delete(s.held, k)
			}
			s.order = s.order[:len(s.order)-len(acquired)]
			return err
		}
		s.held[key] = unlock
		s.order = append(s.order, key)
		acquired = append(acquired, key)
	}

	return nil
}

// Holds reports whether key is currently held by the set.
func (s *Set) Holds(key string) bool {
	_, ok := s.held[key]
	return ok
}

// ReleaseAll unlocks every held key in reverse acquisition order.
func (s *Set) ReleaseAll() {
	for i := len(s.order) - 1; i >= 0; i-- {
		key := s.order[i]
		if unlock, ok := s.held[key]; ok {
			unlock()
			delete(s.held, key)
		}
	}
	s.order = s.order[:0]
}
