package deferred

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sourcegraph/conc/pool"
)

// DefaultMaxWorkers is used when NewPool is given a non-positive size.
const DefaultMaxWorkers = 4

// Pool runs tasks on at most a fixed number of goroutines. Submit blocks while
// every worker is busy.
type Pool struct {
	ctx     context.Context
	workers *pool.Pool
	mu      sync.RWMutex
	closed  bool
}

// NewPool creates a pool whose tasks receive ctx.
func NewPool(ctx context.Context, maxWorkers int) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	return &Pool{
		ctx:     ctx,
		workers: pool.New().WithMaxGoroutines(maxWorkers),
	}
}

// Submit schedules task. Tasks submitted after Close are dropped with a warning.
func (p *Pool) Submit(name string, task Task) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		slog.Warn("Dropping task submitted to closed pool", "task", name)
		return
	}

	p.workers.Go(func() {
		run(p.ctx, name, task)
	})
}

// Close stops accepting tasks and waits for running ones to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.workers.Wait()
}
