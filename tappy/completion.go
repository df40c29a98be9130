package tappy

import (
	"context"
	"sync"
)

// Completion is a one-shot result of an asynchronous operation. It resolves
// exactly once; later attempts to resolve it are ignored.
type Completion struct {
	once sync.Once
	done chan struct{}
	err  error
}

func newCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// completed returns a Completion that has already resolved with err.
func completed(err error) *Completion {
	c := newCompletion()
	c.complete(err)
	return c
}

// complete resolves c and reports whether this call was the one that did it.
func (c *Completion) complete(err error) bool {
	fired := false
	c.once.Do(func() {
		c.err = err
		close(c.done)
		fired = true
	})
	return fired
}

// Done is closed once the operation has finished.
func (c *Completion) Done() <-chan struct{} {
	return c.done
}

// Err returns the operation's error. It is nil until Done is closed.
func (c *Completion) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Wait blocks until the operation finishes or ctx ends.
func (c *Completion) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
