package gltf

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
)

func TestResolveCacheSingleFlight(t *testing.T) {
	cache := newResolveCache()
	ctx := context.Background()

	var calls int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := cache.resolve(ctx, "mesh:0", func() (interface{}, error) {
				atomic.AddInt32(&calls, 1)
				return 42, nil
			})
			if err != nil {
				t.Error(err)
			}
			if v.(int) != 42 {
				t.Errorf("got %v", v)
			}
		}()
	}
	wg.Wait()

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("resolver ran %d times, want 1", n)
	}
}

func TestResolveCacheKeysIndependent(t *testing.T) {
	cache := newResolveCache()
	ctx := context.Background()

	a, _ := cache.resolve(ctx, "texture:0", func() (interface{}, error) { return "a", nil })
	b, _ := cache.resolve(ctx, "texture:1", func() (interface{}, error) { return "b", nil })
	if a.(string) != "a" || b.(string) != "b" {
		t.Errorf("got %v %v", a, b)
	}
}

func TestResolveCacheMemoizesError(t *testing.T) {
	cache := newResolveCache()
	ctx := context.Background()

	wantErr := context.DeadlineExceeded
	if _, err := cache.resolve(ctx, "buffer:0", func() (interface{}, error) { return nil, wantErr }); err != wantErr {
		t.Fatalf("err = %v", err)
	}
	// second call must replay the settled error, not rerun the resolver
	_, err := cache.resolve(ctx, "buffer:0", func() (interface{}, error) {
		t.Error("resolver reran after error")
		return nil, nil
	})
	if err != wantErr {
		t.Errorf("replayed err = %v", err)
	}
}

func TestResolveCacheWaitRespectsContext(t *testing.T) {
	cache := newResolveCache()

	// a future that never settles
	cache.entries["mesh:7"] = &future{done: make(chan struct{})}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := cache.resolve(ctx, "mesh:7", func() (interface{}, error) { return nil, nil }); err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
