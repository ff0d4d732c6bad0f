package repodata_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"bsdata-go/internal/repodata"
	"bsdata-go/internal/testutil"
)

// countingBuild returns a BuildFunc that stamps snapshots with clock.Now.
func countingBuild(clock repodata.Clock, key string, calls *atomic.Int32) repodata.BuildFunc {
	return func() (*repodata.Snapshot, error) {
		calls.Add(1)
		return &repodata.Snapshot{Repository: key, BuiltAt: clock.Now()}, nil
	}
}

func TestCache_Get(t *testing.T) {
	t.Run("builds once and serves the cached snapshot", func(t *testing.T) {
		clock := testutil.FixedClock()
		cache := repodata.NewCache(time.Hour, clock)
		var calls atomic.Int32

		first, err := cache.Get(context.Background(), "wh40k", countingBuild(clock, "wh40k", &calls))
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		second, err := cache.Get(context.Background(), "wh40k", countingBuild(clock, "wh40k", &calls))
		if err != nil {
			t.Fatalf("second Get() error = %v", err)
		}

		if first != second {
			t.Error("second Get() returned a different snapshot")
		}
		if calls.Load() != 1 {
			t.Errorf("build called %d times, want 1", calls.Load())
		}
	})

	t.Run("rebuilds after the ttl", func(t *testing.T) {
		clock := testutil.FixedClock()
		cache := repodata.NewCache(time.Hour, clock)
		var calls atomic.Int32
		build := countingBuild(clock, "wh40k", &calls)

		snap, _ := cache.Get(context.Background(), "wh40k", build)
		clock.AdvanceBeforeExpiry(snap.BuiltAt, time.Hour)
		cache.Get(context.Background(), "wh40k", build)
		if calls.Load() != 1 {
			t.Fatalf("build called %d times before expiry, want 1", calls.Load())
		}

		clock.AdvanceToExpiry(snap.BuiltAt, time.Hour)
		cache.Get(context.Background(), "wh40k", build)
		if calls.Load() != 2 {
			t.Errorf("build called %d times after expiry, want 2", calls.Load())
		}
	})

	t.Run("zero ttl never expires", func(t *testing.T) {
		clock := testutil.FixedClock()
		cache := repodata.NewCache(0, clock)
		var calls atomic.Int32
		build := countingBuild(clock, "wh40k", &calls)

		cache.Get(context.Background(), "wh40k", build)
		clock.Advance(1000 * time.Hour)
		cache.Get(context.Background(), "wh40k", build)
		if calls.Load() != 1 {
			t.Errorf("build called %d times, want 1", calls.Load())
		}
	})

	t.Run("errors are not cached", func(t *testing.T) {
		clock := testutil.FixedClock()
		cache := repodata.NewCache(time.Hour, clock)
		boom := errors.New("boom")

		_, err := cache.Get(context.Background(), "wh40k", func() (*repodata.Snapshot, error) {
			return nil, boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("Get() error = %v, want %v", err, boom)
		}
		if _, ok := cache.Peek("wh40k"); ok {
			t.Error("failed build was cached")
		}

		var calls atomic.Int32
		if _, err := cache.Get(context.Background(), "wh40k", countingBuild(clock, "wh40k", &calls)); err != nil {
			t.Fatalf("Get() after failure error = %v", err)
		}
		if calls.Load() != 1 {
			t.Errorf("build called %d times, want 1", calls.Load())
		}
	})
}

func TestCache_ConcurrentGetSharesBuild(t *testing.T) {
	clock := testutil.FixedClock()
	cache := repodata.NewCache(time.Hour, clock)

	var calls atomic.Int32
	release := make(chan struct{})
	build := func() (*repodata.Snapshot, error) {
		calls.Add(1)
		<-release
		return &repodata.Snapshot{Repository: "wh40k", BuiltAt: clock.Now()}, nil
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*repodata.Snapshot, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := cache.Get(context.Background(), "wh40k", build)
			if err != nil {
				t.Errorf("Get() error = %v", err)
				return
			}
			results[i] = snap
		}()
	}

	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("build called %d times, want 1", calls.Load())
	}
	for i, snap := range results {
		if snap != results[0] {
			t.Errorf("caller %d got a different snapshot", i)
		}
	}
}

func TestCache_ContextCancelled(t *testing.T) {
	clock := testutil.FixedClock()
	cache := repodata.NewCache(time.Hour, clock)

	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	build := func() (*repodata.Snapshot, error) {
		calls.Add(1)
		close(started)
		<-release
		return &repodata.Snapshot{Repository: "wh40k", BuiltAt: clock.Now()}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	if _, err := cache.Get(ctx, "wh40k", build); !errors.Is(err, context.Canceled) {
		t.Fatalf("Get() error = %v, want context.Canceled", err)
	}

	// The abandoned build still completes and is shared with the next caller.
	close(release)
	snap, err := cache.Get(context.Background(), "wh40k", build)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if snap.Repository != "wh40k" {
		t.Errorf("Repository = %q, want %q", snap.Repository, "wh40k")
	}
	if calls.Load() != 1 {
		t.Errorf("build called %d times, want 1", calls.Load())
	}
}

func TestCache_InvalidateAndKeys(t *testing.T) {
	clock := testutil.FixedClock()
	cache := repodata.NewCache(time.Hour, clock)
	var calls atomic.Int32

	for _, key := range []string{"b", "a"} {
		if _, err := cache.Get(context.Background(), key, countingBuild(clock, key, &calls)); err != nil {
			t.Fatalf("Get(%q) error = %v", key, err)
		}
	}

	keys := cache.Keys()
	slices.Sort(keys)
	if !slices.Equal(keys, []string{"a", "b"}) {
		t.Errorf("Keys() = %v, want [a b]", keys)
	}

	cache.Invalidate("a")
	if _, ok := cache.Peek("a"); ok {
		t.Error("Peek() found invalidated snapshot")
	}
	if _, ok := cache.Peek("b"); !ok {
		t.Error("Peek() lost an unrelated snapshot")
	}

	cache.Get(context.Background(), "a", countingBuild(clock, "a", &calls))
	if calls.Load() != 3 {
		t.Errorf("build called %d times, want 3", calls.Load())
	}
}

func TestCache_PeekReturnsExpired(t *testing.T) {
	clock := testutil.FixedClock()
	cache := repodata.NewCache(time.Minute, clock)
	var calls atomic.Int32

	cache.Get(context.Background(), "wh40k", countingBuild(clock, "wh40k", &calls))
	clock.Advance(time.Hour)

	if _, ok := cache.Peek("wh40k"); !ok {
		t.Error("Peek() should return an expired snapshot")
	}
}

func TestSnapshot_File(t *testing.T) {
	snap := &repodata.Snapshot{Files: map[string][]byte{
		"index.bsi": []byte("index"),
		"orks.catz": []byte("orks"),
	}}

	tests := []struct {
		name   string
		want   string
		wantOK bool
	}{
		{name: "orks.catz", want: "orks", wantOK: true},
		{name: "orks.cat", want: "orks", wantOK: true},
		{name: "index.xml", want: "index", wantOK: true},
		{name: "eldar.catz", wantOK: false},
		{name: "README.md", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := snap.File(tt.name)
			if ok != tt.wantOK {
				t.Fatalf("File(%q) ok = %v, want %v", tt.name, ok, tt.wantOK)
			}
			if string(got) != tt.want {
				t.Errorf("File(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}
