package gltf

import (
	"context"
	"sync"
)

// future is one pending or settled resolution. done is closed exactly
// once, after value/err are written.
type future struct {
	done  chan struct{}
	value interface{}
	err   error
}

// resolveCache memoizes resource resolution by "type:index" key. The
// first requester of a key runs the resolver in its own goroutine's
// context, later requesters (including concurrent ones) block on the
// same future, so every JSON element is decoded at most once per
// parse.
type resolveCache struct {
	mu      sync.Mutex
	entries map[string]*future
}

func newResolveCache() *resolveCache {
	return &resolveCache{entries: make(map[string]*future)}
}

func (c *resolveCache) resolve(ctx context.Context, key string, fn func() (interface{}, error)) (interface{}, error) {
	c.mu.Lock()
	if f, ok := c.entries[key]; ok {
		c.mu.Unlock()
		select {
		case <-f.done:
			return f.value, f.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f := &future{done: make(chan struct{})}
	c.entries[key] = f
	c.mu.Unlock()

	f.value, f.err = fn()
	close(f.done)
	return f.value, f.err
}
