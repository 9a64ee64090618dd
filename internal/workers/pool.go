// Package workers provides a bounded worker pool for parallel goal
// calculations. The bound caps CPU and memory pressure; correctness
// never depends on it.
package workers

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Task is a unit of work. The context carries the caller's deadline
// and cancellation; tasks are expected to honor it.
type Task interface {
	Execute(ctx context.Context) error
}

// TaskFunc adapts a function to the Task interface.
type TaskFunc func(ctx context.Context) error

func (f TaskFunc) Execute(ctx context.Context) error { return f(ctx) }

// Config configures the worker pool.
type Config struct {
	Name       string // pool name for logging
	NumWorkers int    // number of worker goroutines
	QueueSize  int    // size of the task queue
}

// DefaultConfig returns the defaults used for batch goal calculation.
func DefaultConfig(name string) *Config {
	return &Config{
		Name:       name,
		NumWorkers: 5,
		QueueSize:  256,
	}
}

// Stats contains running pool counters.
type Stats struct {
	TasksSubmitted int64 `json:"tasks_submitted"`
	TasksCompleted int64 `json:"tasks_completed"`
	TasksFailed    int64 `json:"tasks_failed"`
	PanicRecovered int64 `json:"panic_recovered"`
}

// Pool manages a fixed set of worker goroutines draining a task queue.
type Pool struct {
	logger *zap.Logger
	config *Config

	queue   chan submission
	wg      sync.WaitGroup
	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc

	// stateMu orders Stop against in-flight Submits: Submit holds a
	// read lock across its queue send, Stop takes the write lock
	// before closing the queue, so a send never races the close.
	stateMu sync.RWMutex

	submitted int64
	completed int64
	failed    int64
	panics    int64
}

type submission struct {
	ctx  context.Context
	task Task
	done chan error
}

// ErrPoolStopped is returned by Submit after Stop.
var ErrPoolStopped = &PoolError{Message: "pool is stopped"}

// PoolError represents a pool error.
type PoolError struct {
	Message string
}

func (e *PoolError) Error() string { return e.Message }

// NewPool creates a worker pool.
func NewPool(logger *zap.Logger, config *Config) *Pool {
	if config == nil {
		config = DefaultConfig("default")
	}
	if config.NumWorkers <= 0 {
		config.NumWorkers = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = config.NumWorkers
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		logger: logger,
		config: config,
		queue:  make(chan submission, config.QueueSize),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	if p.running.Swap(true) {
		return // already running
	}

	p.logger.Debug("starting worker pool",
		zap.String("name", p.config.Name),
		zap.Int("workers", p.config.NumWorkers),
	)

	for i := 0; i < p.config.NumWorkers; i++ {
		p.wg.Add(1)
		go p.run(i)
	}
}

func (p *Pool) run(id int) {
	defer p.wg.Done()
	logger := p.logger.With(zap.Int("worker_id", id))

	for {
		select {
		case <-p.ctx.Done():
			return
		case sub, ok := <-p.queue:
			if !ok {
				return
			}
			err := p.execute(sub, logger)
			if err != nil {
				atomic.AddInt64(&p.failed, 1)
			} else {
				atomic.AddInt64(&p.completed, 1)
			}
			sub.done <- err
		}
	}
}

// execute runs one task, converting a panic into an error so a bad
// goal never takes down the pool.
func (p *Pool) execute(sub submission, logger *zap.Logger) (err error) {
	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&p.panics, 1)
			logger.Error("worker recovered from panic", zap.Any("panic", r))
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()

	if err := sub.ctx.Err(); err != nil {
		// Deadline passed while queued.
		return err
	}
	return sub.task.Execute(sub.ctx)
}

// Submit enqueues a task and returns a channel that yields its error
// (or nil) exactly once. Blocks while the queue is full, bounded by
// ctx.
func (p *Pool) Submit(ctx context.Context, task Task) (<-chan error, error) {
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()

	if !p.running.Load() {
		return nil, ErrPoolStopped
	}

	sub := submission{ctx: ctx, task: task, done: make(chan error, 1)}
	select {
	case p.queue <- sub:
		atomic.AddInt64(&p.submitted, 1)
		return sub.done, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SubmitWait enqueues a task and blocks until it finishes or ctx ends.
func (p *Pool) SubmitWait(ctx context.Context, task Task) error {
	done, err := p.Submit(ctx, task)
	if err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SubmitFunc enqueues a function as a task.
func (p *Pool) SubmitFunc(ctx context.Context, fn func(ctx context.Context) error) (<-chan error, error) {
	return p.Submit(ctx, TaskFunc(fn))
}

// Stop shuts the pool down after draining in-flight tasks for up to
// timeout.
func (p *Pool) Stop(timeout time.Duration) error {
	p.stateMu.Lock()
	if !p.running.Swap(false) {
		p.stateMu.Unlock()
		return nil // already stopped
	}
	close(p.queue)
	p.stateMu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Debug("worker pool stopped", zap.String("name", p.config.Name))
		return nil
	case <-time.After(timeout):
		p.cancel()
		return &PoolError{Message: "shutdown timed out"}
	}
}

// IsRunning reports whether the pool accepts tasks.
func (p *Pool) IsRunning() bool {
	return p.running.Load()
}

// Stats returns current pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		TasksSubmitted: atomic.LoadInt64(&p.submitted),
		TasksCompleted: atomic.LoadInt64(&p.completed),
		TasksFailed:    atomic.LoadInt64(&p.failed),
		PanicRecovered: atomic.LoadInt64(&p.panics),
	}
}
