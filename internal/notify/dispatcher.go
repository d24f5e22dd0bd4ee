package notify

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	ErrQueueFull = errors.New("notification queue is full")
	ErrStopped   = errors.New("dispatcher is stopped")
)

// Func is a unit of background work. It runs at most once.
type Func func(ctx context.Context) error

// Observer is told about every finished task.
type Observer func(name string, err error, elapsed time.Duration)

// Task is a handle to submitted work. Err is valid once Done is closed.
type Task struct {
	ID   uint64
	Name string

	done chan struct{}
	err  error
}

func (t *Task) Done() <-chan struct{} {
	return t.done
}

func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the task finishes or ctx is done.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

type queued struct {
	task *Task
	fn   Func
}

// Dispatcher runs side effects such as emails and object deletes on a fixed
// pool of workers fed by a bounded queue. Submit never blocks; a full queue
// rejects the task.
type Dispatcher struct {
	queue       chan queued
	workers     int
	taskTimeout time.Duration
	observer    Observer
	logger      *zap.Logger

	mu      sync.RWMutex
	stopped bool
	started bool
	seq     atomic.Uint64
	wg      sync.WaitGroup
	baseCtx context.Context
}

type Option func(*Dispatcher)

func WithTaskTimeout(d time.Duration) Option {
	return func(ds *Dispatcher) { ds.taskTimeout = d }
}

func WithObserver(o Observer) Option {
	return func(ds *Dispatcher) { ds.observer = o }
}

func New(workers, queueSize int, logger *zap.Logger, opts ...Option) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}

	d := &Dispatcher{
		queue:       make(chan queued, queueSize),
		workers:     workers,
		taskTimeout: time.Minute,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start launches the workers. Tasks inherit values from ctx but not its
// cancellation, so Stop can drain the queue after ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started || d.stopped {
		return
	}
	d.started = true
	d.baseCtx = context.WithoutCancel(ctx)

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}

	d.logger.Info("notification dispatcher started",
		zap.Int("workers", d.workers),
		zap.Int("queue_size", cap(d.queue)),
	)
}

// Submit enqueues fn under name and returns its handle.
func (d *Dispatcher) Submit(name string, fn Func) (*Task, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.stopped {
		return nil, ErrStopped
	}

	task := &Task{
		ID:   d.seq.Add(1),
		Name: name,
		done: make(chan struct{}),
	}

	select {
	case d.queue <- queued{task: task, fn: fn}:
		d.logger.Debug("task queued",
			zap.Uint64("task_id", task.ID),
			zap.String("task", name),
		)
		return task, nil
	default:
		d.logger.Warn("notification queue is full, dropping task",
			zap.String("task", name),
		)
		return nil, ErrQueueFull
	}
}

// Stop rejects new tasks and waits for queued ones to finish.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if !started {
		// nobody will run what is left, release the waiters
		for q := range d.queue {
			q.task.err = ErrStopped
			close(q.task.done)
		}
		return
	}

	d.wg.Wait()
	d.logger.Info("notification dispatcher stopped")
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()

	for q := range d.queue {
		d.run(id, q)
	}
}

func (d *Dispatcher) run(worker int, q queued) {
	ctx, cancel := context.WithTimeout(d.baseCtx, d.taskTimeout)
	defer cancel()

	start := time.Now()
	err := safeCall(ctx, q.fn)
	elapsed := time.Since(start)

	q.task.err = err
	close(q.task.done)

	if d.observer != nil {
		d.observer(q.task.Name, err, elapsed)
	}

	if err != nil {
		d.logger.Error("task failed",
			zap.Int("worker", worker),
			zap.Uint64("task_id", q.task.ID),
			zap.String("task", q.task.Name),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return
	}

	d.logger.Debug("task finished",
		zap.Int("worker", worker),
		zap.Uint64("task_id", q.task.ID),
		zap.String("task", q.task.Name),
		zap.Duration("elapsed", elapsed),
	)
}

func safeCall(ctx context.Context, fn Func) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v\n%s", r, debug.Stack())
		}
	}()
	return fn(ctx)
}
