// Package lock serializes writers that race on the same compound key.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrNotObtained = errors.New("lock not obtained")

// Release gives the lock back. Calling it more than once is a no-op.
type Release func()

type Locker interface {
	Obtain(ctx context.Context, key string) (Release, error)
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

// Local is an in-process keyed mutex. Waiters give up when their context is
// done.
type Local struct {
	mu   sync.Mutex
	keys map[string]*keyLock
}

func NewLocal() *Local {
	return &Local{keys: make(map[string]*keyLock)}
}

func (l *Local) Obtain(ctx context.Context, key string) (Release, error) {
	l.mu.Lock()
	kl, ok := l.keys[key]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		l.keys[key] = kl
	}
	kl.refs++
	l.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, kl)
		return nil, fmt.Errorf("%w: %s: %v", ErrNotObtained, key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-kl.ch
			l.unref(key, kl)
		})
	}, nil
}

func (l *Local) unref(key string, kl *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kl.refs--
	if kl.refs == 0 {
		delete(l.keys, key)
	}
}

// held reports how many keys currently have holders or waiters.
func (l *Local) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.keys)
}
