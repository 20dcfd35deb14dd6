package workers

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPool_RunsEverySubmittedTask(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()

	var count atomic.Int64
	ctx := context.Background()
	for i := 0; i < 50; i++ {
		if err := pool.Submit(ctx, func() { count.Add(1) }); err != nil {
			t.Fatalf("submit failed: %v", err)
		}
	}
	pool.Wait()

	if count.Load() != 50 {
		t.Errorf("expected 50 tasks run, got %d", count.Load())
	}
}

func TestPool_BoundsConcurrency(t *testing.T) {
	pool := NewPool(2)
	defer pool.Close()

	var running, peak atomic.Int64
	var wg sync.WaitGroup
	ctx := context.Background()
	for i := 0; i < 20; i++ {
		wg.Add(1)
		err := pool.Submit(ctx, func() {
			defer wg.Done()
			now := running.Add(1)
			for {
				p := peak.Load()
				if now <= p || peak.CompareAndSwap(p, now) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			running.Add(-1)
		})
		if err != nil {
			wg.Done()
			t.Fatalf("submit failed: %v", err)
		}
	}
	wg.Wait()

	if peak.Load() > 2 {
		t.Errorf("pool of 2 ran %d tasks at once", peak.Load())
	}
}

func TestPool_SubmitHonorsContext(t *testing.T) {
	pool := NewPool(1)
	defer pool.Close()

	release := make(chan struct{})
	ctx := context.Background()
	if err := pool.Submit(ctx, func() { <-release }); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	err := pool.Submit(cancelled, func() {})
	if err == nil {
		t.Error("expected context error when the pool is saturated")
	}
	close(release)
	pool.Wait()
}

func TestPool_ClampsSizeToOne(t *testing.T) {
	pool := NewPool(0)
	defer pool.Close()

	done := make(chan struct{})
	if err := pool.Submit(context.Background(), func() { close(done) }); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task never ran on a clamped pool")
	}
}
