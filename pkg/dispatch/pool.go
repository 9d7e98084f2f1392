package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/beacon/pkg/logger"
)

// Task is a unit of work run by the pool.
type Task func(ctx context.Context) error

type poolKey struct{}

// Pool is a fixed-size worker pool with delayed tasks and graceful shutdown.
type Pool struct {
	opts   options
	logger *slog.Logger

	tasks   chan Task
	workers sync.WaitGroup
	taskCtx context.Context

	// stopMu orders Submit's sender registration against the stopping flag.
	// It is never held while a send blocks.
	stopMu   sync.RWMutex
	stopping atomic.Bool
	quit     chan struct{}
	// senders counts Submit calls that may still send on tasks.
	senders sync.WaitGroup
	// detached counts tasks submitted before shutdown that were moved to a
	// dedicated goroutine because the queue was closing.
	detached sync.WaitGroup

	schedMu   sync.Mutex
	scheduled map[*Scheduled]struct{}

	active   atomic.Int64
	stopReap chan struct{}
	once     sync.Once
	drained  chan struct{}
}

// New starts a pool.
func New(opts ...Option) *Pool {
	o := options{
		name:         "dispatch",
		workers:      DefaultWorkers(),
		queueSize:    defaultQueueSize,
		reapInterval: defaultReapInterval,
		graceWindow:  defaultGraceWindow,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	p := &Pool{
		opts:      o,
		logger:    o.logger.With(logger.Component(o.name)),
		tasks:     make(chan Task, o.queueSize),
		scheduled: make(map[*Scheduled]struct{}),
		stopReap:  make(chan struct{}),
		quit:      make(chan struct{}),
		drained:   make(chan struct{}),
	}
	p.taskCtx = context.WithValue(context.Background(), poolKey{}, p)

	p.workers.Add(o.workers)
	for range o.workers {
		go p.work()
	}
	go p.reap()

	return p
}

// Workers returns the number of workers.
func (p *Pool) Workers() int { return p.opts.workers }

// Active returns the number of tasks currently running.
func (p *Pool) Active() int { return int(p.active.Load()) }

// Scheduled returns the number of tracked delayed tasks that have not finished.
func (p *Pool) Scheduled() int {
	p.schedMu.Lock()
	defer p.schedMu.Unlock()
	n := 0
	for s := range p.scheduled {
		if !s.finished() {
			n++
		}
	}
	return n
}

// Tracked returns the number of scheduled handles held by the pool,
// including finished ones the reaper has not pruned yet.
func (p *Pool) Tracked() int {
	p.schedMu.Lock()
	defer p.schedMu.Unlock()
	return len(p.scheduled)
}

// IsShutdown reports whether Shutdown has been called.
func (p *Pool) IsShutdown() bool { return p.stopping.Load() }

// Submit queues task for the workers. It blocks while the queue is full.
// After Shutdown started the task runs on a dedicated goroutine instead; a
// Submit blocked when Shutdown starts does the same, and Shutdown waits for it.
func (p *Pool) Submit(task Task) error {
	if task == nil {
		return ErrNilTask
	}

	p.stopMu.RLock()
	if p.stopping.Load() {
		p.stopMu.RUnlock()
		p.logger.Warn("pool is shut down, running task on a dedicated goroutine")
		go p.run(task)
		return nil
	}
	p.senders.Add(1)
	p.stopMu.RUnlock()
	defer p.senders.Done()

	select {
	case p.tasks <- task:
		return nil
	case <-p.quit:
	}

	p.logger.Warn("pool is shutting down, running queued task on a dedicated goroutine")
	p.detached.Add(1)
	go func() {
		defer p.detached.Done()
		p.run(task)
	}()
	return nil
}

// Schedule runs task once after delay. It returns ErrPoolClosed after Shutdown.
func (p *Pool) Schedule(task Task, delay time.Duration) (*Scheduled, error) {
	if task == nil {
		return nil, ErrNilTask
	}

	s := newScheduled()

	p.schedMu.Lock()
	if p.stopping.Load() {
		p.schedMu.Unlock()
		return nil, ErrPoolClosed
	}
	p.scheduled[s] = struct{}{}
	s.timer = time.AfterFunc(max(delay, 0), func() {
		if !s.start() {
			return
		}
		_ = p.Submit(func(ctx context.Context) (err error) {
			defer func() { s.complete(err) }()
			return p.guard(ctx, task)
		})
	})
	p.schedMu.Unlock()

	return s, nil
}

// Shutdown stops the pool. It is safe to call more than once and from
// several goroutines; every call waits for the drain unless it is made with
// the context of one of the pool's own tasks.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.once.Do(func() {
		p.schedMu.Lock()
		p.stopMu.Lock()
		p.stopping.Store(true)
		close(p.quit)
		p.stopMu.Unlock()

		cancelled := 0
		var started []*Scheduled
		for s := range p.scheduled {
			if s.Cancel() {
				cancelled++
			} else if !s.finished() {
				started = append(started, s)
			}
		}
		p.schedMu.Unlock()
		close(p.stopReap)

		go p.drain(started)

		p.logger.Info("pool shutting down",
			slog.Int("cancelled_scheduled", cancelled),
			slog.Int("queued", len(p.tasks)),
			slog.Int("active", p.Active()))
	})

	if ctx.Value(poolKey{}) == p {
		return nil
	}

	ticker := time.NewTicker(p.opts.graceWindow)
	defer ticker.Stop()

	for {
		select {
		case <-p.drained:
			return nil
		case <-ticker.C:
			p.logger.Warn("still waiting for tasks to finish",
				slog.Int("active", p.Active()),
				slog.Int("queued", len(p.tasks)))
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// drain closes the queue once no Submit can send on it any more and waits
// for every task accepted before shutdown, including delayed tasks whose
// timer had already fired.
func (p *Pool) drain(started []*Scheduled) {
	p.senders.Wait()
	close(p.tasks)
	p.workers.Wait()
	p.detached.Wait()
	for _, s := range started {
		<-s.Done()
	}
	close(p.drained)
}

func (p *Pool) work() {
	defer p.workers.Done()
	for task := range p.tasks {
		p.run(task)
	}
}

func (p *Pool) run(task Task) {
	p.active.Add(1)
	defer p.active.Add(-1)

	start := time.Now()
	if err := p.guard(p.taskCtx, task); err != nil {
		p.logger.Error("task failed",
			logger.Error(err),
			slog.Duration("duration", time.Since(start)))
	}
}

// guard runs task and converts a panic into an error.
func (p *Pool) guard(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Join(ErrTaskPanicked, fmt.Errorf("%v", r))
		}
	}()
	return task(ctx)
}

func (p *Pool) reap() {
	ticker := time.NewTicker(p.opts.reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopReap:
			return
		case <-ticker.C:
			p.prune()
		}
	}
}

func (p *Pool) prune() {
	p.schedMu.Lock()
	defer p.schedMu.Unlock()
	for s := range p.scheduled {
		if s.finished() {
			delete(p.scheduled, s)
		}
	}
}
