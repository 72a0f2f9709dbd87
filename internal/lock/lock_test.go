package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestLocalSerializesSameKey(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	var (
		mu      sync.Mutex
		inside  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := l.Obtain(ctx, "sale:s1:EUR:2024-01-01")
			if err != nil {
				t.Errorf("obtain: %v", err)
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Fatalf("expected at most one holder, saw %d", maxSeen)
	}
	if n := l.held(); n != 0 {
		t.Fatalf("expected no keys left after release, got %d", n)
	}
}

func TestLocalDifferentKeysDoNotBlock(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	releaseA, err := l.Obtain(ctx, "a")
	if err != nil {
		t.Fatalf("obtain a: %v", err)
	}
	defer releaseA()

	timeout, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	releaseB, err := l.Obtain(timeout, "b")
	if err != nil {
		t.Fatalf("expected b to be free, got %v", err)
	}
	releaseB()
}

func TestLocalObtainHonoursContext(t *testing.T) {
	l := NewLocal()
	ctx := context.Background()

	release, err := l.Obtain(ctx, "k")
	if err != nil {
		t.Fatalf("obtain: %v", err)
	}

	timeout, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if _, err := l.Obtain(timeout, "k"); !errors.Is(err, ErrNotObtained) {
		t.Fatalf("expected ErrNotObtained, got %v", err)
	}

	release()
	release()
	if n := l.held(); n != 0 {
		t.Fatalf("expected key to be dropped, got %d held", n)
	}
}
