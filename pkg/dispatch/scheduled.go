package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// State is the lifecycle position of a scheduled task.
type State int32

const (
	StatePending State = iota
	StateRunning
	StateDone
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Scheduled is a handle to a task registered with Pool.Schedule.
type Scheduled struct {
	state atomic.Int32
	timer *time.Timer
	done  chan struct{}
	once  sync.Once
	err   error
}

func newScheduled() *Scheduled {
	return &Scheduled{done: make(chan struct{})}
}

// State reports where the task is in its lifecycle.
func (s *Scheduled) State() State {
	return State(s.state.Load())
}

// Done is closed once the task finished or was cancelled.
func (s *Scheduled) Done() <-chan struct{} {
	return s.done
}

// Err returns the task's error after Done is closed: ErrCancelled for a
// cancelled task, nil while it is still pending or running.
func (s *Scheduled) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Wait blocks until the task finished or ctx ends.
func (s *Scheduled) Wait(ctx context.Context) error {
	select {
	case <-s.done:
		return s.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Cancel prevents a pending task from running. It reports whether the task
// was cancelled; false means it already started or finished.
func (s *Scheduled) Cancel() bool {
	if !s.state.CompareAndSwap(int32(StatePending), int32(StateCancelled)) {
		return false
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.finish(ErrCancelled)
	return true
}

func (s *Scheduled) start() bool {
	return s.state.CompareAndSwap(int32(StatePending), int32(StateRunning))
}

func (s *Scheduled) complete(err error) {
	s.state.Store(int32(StateDone))
	s.finish(err)
}

func (s *Scheduled) finish(err error) {
	s.once.Do(func() {
		s.err = err
		close(s.done)
	})
}

func (s *Scheduled) finished() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
