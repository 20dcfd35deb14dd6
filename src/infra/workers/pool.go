package workers

import (
	"context"
	"sync"
)

// Pool runs submitted functions on a fixed number of goroutines. Every
// pipeline stage that fans out over files funnels through one of these so
// max_workers bounds the whole process.
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup
	once  sync.Once
}

// NewPool starts a pool with the given number of workers. Size is clamped
// to at least one.
func NewPool(size int) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{tasks: make(chan func())}
	for i := 0; i < size; i++ {
		go func() {
			for task := range p.tasks {
				task()
			}
		}()
	}
	return p
}

// Submit queues fn for execution. It blocks while all workers are busy and
// the queue is full, which is what keeps producers honest about the bound.
// Returns the context error if ctx is done before fn could be queued.
func (p *Pool) Submit(ctx context.Context, fn func()) error {
	p.wg.Add(1)
	wrapped := func() {
		defer p.wg.Done()
		fn()
	}
	select {
	case p.tasks <- wrapped:
		return nil
	case <-ctx.Done():
		p.wg.Done()
		return ctx.Err()
	}
}

// Wait blocks until every submitted task has finished.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Close stops the workers once all queued tasks drain. Submit must not be
// called after Close.
func (p *Pool) Close() {
	p.once.Do(func() {
		p.wg.Wait()
		close(p.tasks)
	})
}
