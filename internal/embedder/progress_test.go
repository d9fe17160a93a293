package embedder

import (
	"sync"
	"testing"
)

func TestProgressSnapshotReflectsLastPublish(t *testing.T) {
	p := NewProgress()

	if snap := p.Snapshot(); snap != (ProgressSnapshot{}) {
		t.Errorf("initial Snapshot() = %+v, want zero value", snap)
	}

	p.Publish(ProgressSnapshot{Stage: "embedding", Completed: 3, Total: 10})
	snap := p.Snapshot()
	if snap.Completed != 3 || snap.Total != 10 {
		t.Errorf("Snapshot() = %+v, want 3/10", snap)
	}
}

func TestProgressSubscribeAndUnsubscribe(t *testing.T) {
	p := NewProgress()

	var calls int
	unsubscribe := p.Subscribe(func(ProgressSnapshot) { calls++ })

	p.Publish(ProgressSnapshot{Completed: 1, Total: 2})
	if calls != 1 {
		t.Fatalf("subscriber called %d times, want 1", calls)
	}

	unsubscribe()
	p.Publish(ProgressSnapshot{Completed: 2, Total: 2})
	if calls != 1 {
		t.Errorf("subscriber called %d times after unsubscribe, want 1", calls)
	}
}

func TestProgressMultipleSubscribers(t *testing.T) {
	p := NewProgress()

	var a, b int
	p.Subscribe(func(ProgressSnapshot) { a++ })
	p.Subscribe(func(ProgressSnapshot) { b++ })

	p.Publish(ProgressSnapshot{Completed: 1, Total: 1})
	if a != 1 || b != 1 {
		t.Errorf("subscribers called %d/%d times, want 1/1", a, b)
	}
}

func TestProgressConcurrentPublish(t *testing.T) {
	p := NewProgress()

	var mu sync.Mutex
	calls := 0
	p.Subscribe(func(ProgressSnapshot) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			p.Publish(ProgressSnapshot{Completed: n, Total: 10})
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if calls != 10 {
		t.Errorf("subscriber called %d times, want 10", calls)
	}
}
