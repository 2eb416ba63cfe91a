// Package task provides a small async task runner. Work that the storefront
// used to express as fire-and-forget timers (trigger state resets, simulated
// provider acknowledgements) runs here as named tasks whose completion can
// be awaited and whose status can be looked up by ID.
package task

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Task statuses.
type Status string

const (
	StatusRunning Status = "running"
	StatusDone    Status = "done"
)

// DefaultRetention is how long a finished task stays queryable before it is
// evicted from the runner's registry.
const DefaultRetention = time.Minute

// Task is a handle to scheduled work. Completion is observable through
// Done, Wait or Status; Err is valid once the task is done.
type Task struct {
	ID        string
	Name      string
	StartedAt time.Time

	done chan struct{}
	mu   sync.Mutex
	err  error
}

// Done returns a channel closed when the task finishes.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Status reports whether the task is still running.
func (t *Task) Status() Status {
	select {
	case <-t.done:
		return StatusDone
	default:
		return StatusRunning
	}
}

// Err returns the task's error. Valid once Done is closed; nil before.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Wait blocks until the task finishes or ctx expires.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Task) finish(err error) {
	t.mu.Lock()
	t.err = err
	t.mu.Unlock()
	close(t.done)
}

// Runner schedules named background work and keeps finished tasks queryable
// for a retention interval.
type Runner struct {
	logger    *slog.Logger
	retention time.Duration

	baseCtx context.Context
	cancel  context.CancelFunc

	mu    sync.RWMutex
	tasks map[string]*Task
	wg    sync.WaitGroup
}

// NewRunner creates a task runner. A non-positive retention falls back to
// DefaultRetention.
func NewRunner(logger *slog.Logger, retention time.Duration) *Runner {
	if retention <= 0 {
		retention = DefaultRetention
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Runner{
		logger:    logger,
		retention: retention,
		baseCtx:   ctx,
		cancel:    cancel,
		tasks:     make(map[string]*Task),
	}
}

// Schedule runs fn after the given delay and returns immediately with the
// running task. A zero delay runs fn right away. The context passed to fn is
// canceled when the runner shuts down, not when the scheduling request ends.
func (r *Runner) Schedule(name string, delay time.Duration, fn func(context.Context) error) *Task {
	t := &Task{
		ID:        uuid.New().String(),
		Name:      name,
		StartedAt: time.Now().UTC(),
		done:      make(chan struct{}),
	}

	r.mu.Lock()
	r.tasks[t.ID] = t
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.evictAfter(t.ID)

		if delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-r.baseCtx.Done():
				t.finish(r.baseCtx.Err())
				return
			}
		}

		err := fn(r.baseCtx)
		t.finish(err)

		if err != nil {
			r.logger.Error("task failed",
				slog.String("task", t.Name),
				slog.String("task_id", t.ID),
				slog.String("error", err.Error()),
			)
		}
	}()

	return t
}

// Go runs fn immediately in the background.
func (r *Runner) Go(name string, fn func(context.Context) error) *Task {
	return r.Schedule(name, 0, fn)
}

// Get returns the task with the given ID while it is running or within the
// retention interval after it finished.
func (r *Runner) Get(id string) (*Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	return t, ok
}

// ActiveCount returns the number of tasks still running.
func (r *Runner) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int
	for _, t := range r.tasks {
		if t.Status() == StatusRunning {
			n++
		}
	}
	return n
}

// Shutdown cancels pending delays and waits for in-flight work to finish or
// ctx to expire.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) evictAfter(id string) {
	time.AfterFunc(r.retention, func() {
		r.mu.Lock()
		delete(r.tasks, id)
		r.mu.Unlock()
	})
}
