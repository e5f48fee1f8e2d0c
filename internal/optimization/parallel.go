package optimization

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// LayoutIterator hands out start layouts, cycling through them forever when
// runForever is set.
type LayoutIterator struct {
	layouts    []string
	runForever bool
	i          int
}

// NewLayoutIterator returns an iterator over layouts.
func NewLayoutIterator(layouts []string, runForever bool) *LayoutIterator {
	return &LayoutIterator{layouts: append([]string(nil), layouts...), runForever: runForever}
}

// Next returns the next start layout.
func (it *LayoutIterator) Next() (string, bool) {
	if len(it.layouts) == 0 {
		return "", false
	}
	if it.i >= len(it.layouts) {
		if !it.runForever {
			return "", false
		}
		it.i = 0
	}
	l := it.layouts[it.i]
	it.i++
	return l, true
}

// RunFunc performs run number i from start.
type RunFunc func(ctx context.Context, i int, start string) error

// RunParallel executes run for every layout of it on at most workers
// goroutines. A failing or panicking run does not stop the others; all
// failures are returned together once the iterator is exhausted or ctx is done.
func RunParallel(ctx context.Context, it *LayoutIterator, workers int, run RunFunc) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var g errgroup.Group
	g.SetLimit(workers)

	var mu sync.Mutex
	var errs []error

	for i := 0; ctx.Err() == nil; i++ {
		start, ok := it.Next()
		if !ok {
			break
		}
		g.Go(func() error {
			fail := func(err error) {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			// A panicking run is a failed run; the others keep going.
			defer func() {
				if r := recover(); r != nil {
					fail(fmt.Errorf("run %d: panic: %v", i, r))
				}
			}()
			if err := run(ctx, i, start); err != nil {
				fail(fmt.Errorf("run %d: %w", i, err))
			}
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

// RunRNG returns the random source of run i. Runs of the same seed get
// independent but reproducible streams; seed 0 seeds from the clock.
func RunRNG(seed int64, i int) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(deriveSeed(seed, uint64(i))))
}

// deriveSeed mixes a parent seed with a stream id (SplitMix64 finalizer).
func deriveSeed(parent int64, stream uint64) int64 {
	x := uint64(parent) ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31
	return int64(x)
}
