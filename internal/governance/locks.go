package governance

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

type assemblyKey struct {
	tenantID   uint
	assemblyID uint
}

type assemblyLock struct {
	sem  *semaphore.Weighted
	refs int
}

// lockRegistry hands out one writer lock per assembly. Entries live only
// while someone holds or waits for them.
type lockRegistry struct {
	mu    sync.Mutex
	locks map[assemblyKey]*assemblyLock
}

func newLockRegistry() *lockRegistry {
	return &lockRegistry{locks: make(map[assemblyKey]*assemblyLock)}
}

// acquire waits up to timeout for the writer lock of key. It fails with
// ErrSessionBusy on timeout and with the context error when ctx ends first.
func (r *lockRegistry) acquire(ctx context.Context, key assemblyKey, timeout time.Duration) (func(), time.Duration, error) {
	r.mu.Lock()
	l, ok := r.locks[key]
	if !ok {
		l = &assemblyLock{sem: semaphore.NewWeighted(1)}
		r.locks[key] = l
	}
	l.refs++
	r.mu.Unlock()

	start := time.Now()
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := l.sem.Acquire(waitCtx, 1); err != nil {
		r.unref(key, l)
		waited := time.Since(start)
		if ctx.Err() != nil {
			return nil, waited, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, waited, newError(CodeSessionBusy, "assembly %d is busy", key.assemblyID)
		}
		return nil, waited, err
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			l.sem.Release(1)
			r.unref(key, l)
		})
	}
	return release, time.Since(start), nil
}

func (r *lockRegistry) unref(key assemblyKey, l *assemblyLock) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(r.locks, key)
	}
}

func (r *lockRegistry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}
