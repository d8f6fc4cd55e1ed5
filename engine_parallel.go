package lattice

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
)

// CollectAll collects many objects using a two-phase pipeline:
//
//	Phase A (parallel): load and parse the backing modules via worker pool.
//	Phase B (serial):   build the graphs and attach docs.
//
// Parsing dominates collection cost and is safe to run concurrently; the
// graph phase shares memo tables and runs single-threaded. Results come
// back keyed by the requested name. Names with no documentable object are
// collected into one error; the successful results are still returned.
func (e *Engine) CollectAll(ctx context.Context, names []string) (map[string]*Object, error) {
	if len(names) == 0 {
		return map[string]*Object{}, nil
	}

	// ---- Phase A: parallel parse warm-up ----
	numWorkers := min(runtime.NumCPU(), len(names))
	workCh := make(chan string, len(names))
	for _, name := range names {
		workCh <- name
	}
	close(workCh)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range workCh {
				if ctx.Err() != nil {
					return
				}
				e.warm(name)
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// ---- Phase B: serial graph construction ----
	out := make(map[string]*Object, len(names))
	var errs []error
	for _, name := range names {
		obj, err := e.Collect(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[name] = obj
	}
	if len(errs) > 0 {
		return out, fmt.Errorf("lattice: collecting had %d error(s): %w", len(errs), errs[0])
	}
	return out, nil
}

// warm loads and parses the module backing a requested name, walking
// prefixes from the most specific. Cache entries (including negative ones)
// make the serial phase a pure graph walk.
func (e *Engine) warm(name string) {
	for path := name; ; {
		if _, err := e.cache.Get(path); err == nil {
			return
		}
		dot := strings.LastIndex(path, ".")
		if dot < 0 {
			return
		}
		path = path[:dot]
	}
}
