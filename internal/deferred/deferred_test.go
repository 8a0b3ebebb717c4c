package deferred

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestQueue_DrainRunsInOrder(t *testing.T) {
	q := NewQueue()
	var order []int
	for i := range 3 {
		q.Submit("task", func(_ context.Context) { order = append(order, i) })
	}
	assert.Equal(t, 3, q.Len())

	assert.Equal(t, 3, q.Drain(context.Background()))
	assert.Equal(t, []int{0, 1, 2}, order)
	assert.Zero(t, q.Len())
}

func TestQueue_NothingRunsBeforeDrain(t *testing.T) {
	q := NewQueue()
	ran := false
	q.Submit("task", func(_ context.Context) { ran = true })
	assert.False(t, ran)
	q.Drain(context.Background())
	assert.True(t, ran)
}

func TestQueue_TasksSubmittedWhileDraining(t *testing.T) {
	q := NewQueue()
	var ran []string
	q.Submit("first", func(_ context.Context) {
		ran = append(ran, "first")
		q.Submit("second", func(_ context.Context) { ran = append(ran, "second") })
	})

	assert.Equal(t, 2, q.Drain(context.Background()))
	assert.Equal(t, []string{"first", "second"}, ran)
}

func TestQueue_PanicDoesNotStopDrain(t *testing.T) {
	q := NewQueue()
	ran := false
	q.Submit("boom", func(_ context.Context) { panic("boom") })
	q.Submit("after", func(_ context.Context) { ran = true })

	assert.Equal(t, 2, q.Drain(context.Background()))
	assert.True(t, ran)
}

func TestQueue_CanceledContext(t *testing.T) {
	q := NewQueue()
	q.Submit("task", func(_ context.Context) {})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Zero(t, q.Drain(ctx))
	assert.Equal(t, 1, q.Len())
}

func TestPool_RunsAllTasks(t *testing.T) {
	p := NewPool(context.Background(), 2)
	var count atomic.Int32
	for range 10 {
		p.Submit("task", func(_ context.Context) { count.Add(1) })
	}
	p.Close()
	assert.Equal(t, int32(10), count.Load())
}

func TestPool_BoundsConcurrency(t *testing.T) {
	p := NewPool(context.Background(), 2)
	var running, peak atomic.Int32
	var mu sync.Mutex

	for range 6 {
		p.Submit("task", func(_ context.Context) {
			n := running.Add(1)
			mu.Lock()
			if n > peak.Load() {
				peak.Store(n)
			}
			mu.Unlock()
			time.Sleep(10 * time.Millisecond)
			running.Add(-1)
		})
	}
	p.Close()

	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestPool_PassesExecutorContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "pool")
	p := NewPool(ctx, 1)

	var got any
	p.Submit("task", func(ctx context.Context) { got = ctx.Value(key{}) })
	p.Close()
	assert.Equal(t, "pool", got)
}

func TestPool_SubmitAfterClose(t *testing.T) {
	p := NewPool(context.Background(), 1)
	p.Close()

	ran := false
	p.Submit("late", func(_ context.Context) { ran = true })
	p.Close()
	assert.False(t, ran)
}

func TestPool_PanicIsContained(t *testing.T) {
	p := NewPool(context.Background(), 1)
	ran := false
	p.Submit("boom", func(_ context.Context) { panic("boom") })
	p.Submit("after", func(_ context.Context) { ran = true })
	assert.NotPanics(t, p.Close)
	assert.True(t, ran)
}

var (
	_ Executor = (*Queue)(nil)
	_ Executor = (*Pool)(nil)
)
