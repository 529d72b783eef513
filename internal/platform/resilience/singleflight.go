package resilience

import (
	"context"
	"fmt"
	"sync"
)

// SingleFlight deduplicates concurrent calls for the same key. Waiters share
// the leader's result, including its error.
type SingleFlight struct {
	mu    sync.Mutex
	calls map[string]*call
}

type call struct {
	done chan struct{}
	val  any
	err  error
	dups int
}

func (g *SingleFlight) Do(key string, fn func() (any, error)) (any, error, bool) {
	c, leader := g.join(key)
	if !leader {
		<-c.done
		return c.val, c.err, true
	}

	g.run(key, c, fn)
	return c.val, c.err, g.shared(c)
}

// DoContext is Do, except that each caller stops waiting once its own ctx
// ends. fn runs in its own goroutine and keeps going for the remaining
// waiters, so it must not depend on any single caller's context.
func (g *SingleFlight) DoContext(ctx context.Context, key string, fn func() (any, error)) (any, error, bool) {
	c, leader := g.join(key)
	if leader {
		go g.run(key, c, fn)
	}

	select {
	case <-c.done:
		return c.val, c.err, !leader || g.shared(c)
	case <-ctx.Done():
		return nil, ctx.Err(), !leader
	}
}

func (g *SingleFlight) join(key string) (*call, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.calls == nil {
		g.calls = make(map[string]*call)
	}
	if c, ok := g.calls[key]; ok {
		c.dups++
		return c, false
	}

	c := &call{done: make(chan struct{})}
	g.calls[key] = c
	return c, true
}

func (g *SingleFlight) shared(c *call) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return c.dups > 0
}

func (g *SingleFlight) run(key string, c *call, fn func() (any, error)) {
	defer func() {
		if r := recover(); r != nil {
			c.err = fmt.Errorf("singleflight %s panicked: %v", key, r)
		}

		g.mu.Lock()
		if g.calls[key] == c {
			delete(g.calls, key)
		}
		g.mu.Unlock()
		close(c.done)
	}()

	c.val, c.err = fn()
}
