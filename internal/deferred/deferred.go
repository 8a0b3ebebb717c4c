// Package deferred runs work after the triggering request has been answered.
//
// Two executors are provided. Queue collects tasks supplied by a caller that
// owns the request lifecycle and runs them when drained. Pool owns a bounded
// set of goroutines and starts tasks as soon as a slot is free. Neither reports
// task outcomes back to the submitter; tasks log their own failures.
package deferred

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// Task is a unit of deferred work. The context passed in belongs to the
// executor, not to the request that submitted the task.
type Task func(ctx context.Context)

// Executor accepts tasks for later execution.
type Executor interface {
	Submit(name string, task Task)
}

// run executes task and converts a panic into a logged error.
func run(ctx context.Context, name string, task Task) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Deferred task panicked",
				"task", name,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
		}
	}()
	task(ctx)
}
