package deferred

import (
	"context"
	"log/slog"
	"sync"
)

type queuedTask struct {
	task Task
	name string
}

// Queue holds tasks until Drain is called. It suits callers that finish
// responding first and then run follow-up work in the same process.
type Queue struct {
	tasks []queuedTask
	mu    sync.Mutex
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Submit appends task to the queue.
func (q *Queue) Submit(name string, task Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, queuedTask{name: name, task: task})
}

// Len returns the number of tasks waiting to run.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Drain runs every queued task in submission order, including tasks submitted
// while draining. It stops early if ctx is canceled, leaving the rest queued.
func (q *Queue) Drain(ctx context.Context) int {
	ran := 0
	for {
		if ctx.Err() != nil {
			slog.Warn("Stopped draining deferred queue", "remaining", q.Len(), "error", ctx.Err())
			return ran
		}

		q.mu.Lock()
		if len(q.tasks) == 0 {
			q.mu.Unlock()
			return ran
		}
		next := q.tasks[0]
		q.tasks = q.tasks[1:]
		q.mu.Unlock()

		run(ctx, next.name, next.task)
		ran++
	}
}
