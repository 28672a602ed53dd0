// Package executor isolates blocking store calls from the request-serving
// goroutines. Handlers submit repository work to a bounded set of workers
// and wait for the result without tying up anything but themselves.
package executor

import (
	"context"
	"fmt"
	"sync"
)

type task struct {
	fn   func() error
	done chan error
}

// Executor runs submitted work on a fixed number of worker goroutines.
type Executor struct {
	tasks     chan task
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New starts an executor with the given number of workers. Sizing it to
// the connection pool keeps queued work from piling up behind
// connections that can never be acquired.
func New(workers int) *Executor {
	if workers <= 0 {
		workers = 8
	}
	e := &Executor{tasks: make(chan task)}
	for i := 0; i < workers; i++ {
		e.wg.Add(1)
		go e.worker()
	}
	return e
}

func (e *Executor) worker() {
	defer e.wg.Done()
	for t := range e.tasks {
		t.done <- run(t.fn)
	}
}

func run(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("executor task panicked: %v", p)
		}
	}()
	return fn()
}

// Do runs fn on a worker and returns its error. Submission blocks until
// a worker is free or ctx is done. If ctx is cancelled while fn is
// running, Do returns early but fn runs to completion on its worker, so
// resources it holds (pooled connections in particular) are still
// released when it finishes.
func (e *Executor) Do(ctx context.Context, fn func() error) error {
	t := task{fn: fn, done: make(chan error, 1)}

	select {
	case e.tasks <- t:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Call runs fn on a worker and returns its result. On any error the
// zero value is returned; an abandoned task's result is never read, so
// there is no data race with a still-running fn.
func Call[T any](ctx context.Context, e *Executor, fn func() (T, error)) (T, error) {
	var result T
	err := e.Do(ctx, func() error {
		var err error
		result, err = fn()
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// Close stops accepting work and waits for in-flight tasks to finish.
func (e *Executor) Close() {
	e.closeOnce.Do(func() { close(e.tasks) })
	e.wg.Wait()
}
