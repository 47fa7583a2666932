package analyzer

import (
	"context"
	"sync"

	"github.com/sells-group/siteintel/internal/model"
)

// Task is a handle on one background analysis run. The pipeline never
// cancels a started task; Wait and Drain exist so callers can block on
// completion (one-shot CLI runs, graceful shutdown).
type Task struct {
	Analysis *model.Analysis

	done chan struct{}
}

func newTask(a *model.Analysis) *Task {
	return &Task{Analysis: a, done: make(chan struct{})}
}

// Done returns a channel closed when the task reaches a terminal status.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes or ctx is cancelled. The task itself
// keeps running after a cancelled Wait.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Task) finish() {
	close(t.done)
}

// Registry tracks in-flight analysis tasks keyed by analysis ID.
type Registry struct {
	mu    sync.Mutex
	tasks map[string]*Task
}

// NewRegistry creates an empty task registry.
func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]*Task)}
}

func (r *Registry) add(t *Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[t.Analysis.ID] = t
}

func (r *Registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, id)
}

// Get returns the in-flight task for an analysis ID, or nil once the task
// has finished.
func (r *Registry) Get(id string) *Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tasks[id]
}

// Len returns the number of in-flight tasks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

// Drain waits until every task registered at the time of the call has
// finished, or until ctx is cancelled.
func (r *Registry) Drain(ctx context.Context) error {
	r.mu.Lock()
	pending := make([]*Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		pending = append(pending, t)
	}
	r.mu.Unlock()

	for _, t := range pending {
		if err := t.Wait(ctx); err != nil {
			return err
		}
	}
	return nil
}
