// Package dispatch provides the shared worker pool every beacon component
// hands its asynchronous work to.
//
// A Pool runs a fixed number of workers (runtime.NumCPU()*8 by default, the
// work is network bound) that consume a buffered task queue. Tasks are plain
// functions:
//
//	pool := dispatch.New(dispatch.WithLogger(log))
//	_ = pool.Submit(func(ctx context.Context) error {
//	    return sink.Notify(ctx, env)
//	})
//
// Errors returned by a task and panics raised inside it are logged and never
// kill the worker.
//
// Schedule runs a task once after a delay and returns a *Scheduled handle
// that can be cancelled or awaited. Handles are tracked by the pool and
// finished ones are pruned by a background reaper.
//
// Shutdown is idempotent. It cancels scheduled tasks that have not fired,
// lets already queued tasks drain, and waits for running ones, logging a
// warning every grace window while they are still busy. Work submitted after
// Shutdown started is not dropped: it runs on its own goroutine. Calling
// Shutdown from inside a task with the task's context returns without
// waiting, so a component may close its own pool from a callback.
package dispatch
