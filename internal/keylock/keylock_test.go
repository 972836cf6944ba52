package keylock

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMap_SameKeyExcludes(t *testing.T) {
	var m Map[int64]
	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := m.Lock(1)
			defer unlock()
			n := inside.Add(1)
			for {
				cur := maxInside.Load()
				if n <= cur || maxInside.CompareAndSwap(cur, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
		}()
	}
	wg.Wait()

	if got := maxInside.Load(); got != 1 {
		t.Errorf("expected at most one holder, saw %d", got)
	}
	if m.Len() != 0 {
		t.Errorf("expected no entries left, got %d", m.Len())
	}
}

func TestMap_DifferentKeysDoNotBlock(t *testing.T) {
	var m Map[string]
	unlockA := m.Lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := m.Lock("b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different key should not block")
	}
}

func TestMap_UnlockIdempotent(t *testing.T) {
	var m Map[int]
	unlock := m.Lock(7)
	unlock()
	unlock()
	if m.Len() != 0 {
		t.Errorf("expected no entries, got %d", m.Len())
	}
}
