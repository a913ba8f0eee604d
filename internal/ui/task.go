package ui

import (
	"context"
	"sync"
)

// Task is a cancellable background job owned by a screen.
type Task struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Cancel asks the task to stop; it does not wait.
func (t *Task) Cancel() {
	t.cancel()
}

// Done is closed once the task function has returned.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait cancels the task and blocks until it has returned.
func (t *Task) Wait() {
	t.cancel()
	<-t.done
}

// TaskGroup owns every task a screen spawns. Close cancels and joins them all;
// Go after Close runs nothing.
type TaskGroup struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	tasks  []*Task
	closed bool
}

func NewTaskGroup(parent context.Context) *TaskGroup {
	ctx, cancel := context.WithCancel(parent)
	return &TaskGroup{ctx: ctx, cancel: cancel}
}

// Go runs fn on its own goroutine with a context cancelled by Close.
func (g *TaskGroup) Go(fn func(ctx context.Context)) *Task {
	g.mu.Lock()
	defer g.mu.Unlock()

	ctx, cancel := context.WithCancel(g.ctx)
	task := &Task{cancel: cancel, done: make(chan struct{})}
	if g.closed {
		cancel()
		close(task.done)
		return task
	}

	g.tasks = append(g.tasks, task)
	go func() {
		defer close(task.done)
		defer cancel()
		fn(ctx)
	}()
	return task
}

// Running reports how many tasks have not yet returned.
func (g *TaskGroup) Running() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	n := 0
	for _, t := range g.tasks {
		select {
		case <-t.done:
		default:
			n++
		}
	}
	return n
}

// Close cancels every task and waits for all of them to return.
func (g *TaskGroup) Close() {
	g.mu.Lock()
	g.closed = true
	tasks := g.tasks
	g.tasks = nil
	g.mu.Unlock()

	g.cancel()
	for _, t := range tasks {
		<-t.done
	}
}
