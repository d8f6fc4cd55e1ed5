package pysrc

import "sync"

// Cache memoizes loaded modules by dotted path. A hit is revalidated
// against the file's current mtime; a change triggers re-parse and
// replacement, firing the OnReplace hook so downstream memo tables can
// drop derived state.
//
// NotFound results are cached too: a module that did not exist at first
// lookup stays invisible for the lifetime of the Cache even if the file is
// created later. Drop exists for hosts that need to force a retry.
type Cache struct {
	loader Loader

	mu      sync.Mutex
	entries map[string]*entry

	// OnReplace is called (outside the lock) with the dotted path of any
	// module whose cache entry was replaced due to an mtime change.
	OnReplace func(path string)
}

type entry struct {
	src      *Source
	notFound bool
}

// NewCache creates a Cache over the given loader.
func NewCache(loader Loader) *Cache {
	return &Cache{
		loader:  loader,
		entries: make(map[string]*entry),
	}
}

// Get returns the cached module for a dotted path, loading it on first
// request. Returns ErrNotFound (wrapped) for paths with no loadable module;
// that outcome is cached.
func (c *Cache) Get(path string) (*Source, error) {
	c.mu.Lock()
	e, ok := c.entries[path]
	c.mu.Unlock()

	if ok {
		if e.notFound {
			return nil, errNotFoundFor(path)
		}
		mtime, err := c.loader.Stat(path)
		if err == nil && mtime.Equal(e.src.Mtime) {
			return e.src, nil
		}
		// Mtime changed (or the file vanished): re-parse and replace.
		src, err := c.loader.Load(path)
		c.mu.Lock()
		if err != nil {
			c.entries[path] = &entry{notFound: true}
		} else {
			c.entries[path] = &entry{src: src}
		}
		c.mu.Unlock()
		if c.OnReplace != nil {
			c.OnReplace(path)
		}
		if err != nil {
			return nil, err
		}
		return src, nil
	}

	src, err := c.loader.Load(path)
	c.mu.Lock()
	if err != nil {
		c.entries[path] = &entry{notFound: true}
	} else {
		c.entries[path] = &entry{src: src}
	}
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return src, nil
}

// Exists reports whether a loadable module exists at the dotted path,
// honoring the negative cache.
func (c *Cache) Exists(path string) bool {
	c.mu.Lock()
	e, ok := c.entries[path]
	c.mu.Unlock()
	if ok {
		return !e.notFound
	}
	return c.loader.Exists(path)
}

// Drop removes a cached entry (positive or negative) so the next Get goes
// back to the loader.
func (c *Cache) Drop(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}

func errNotFoundFor(path string) error {
	return &notFoundError{path: path}
}

// notFoundError wraps ErrNotFound with the offending path while keeping
// errors.Is(err, ErrNotFound) true for cached misses.
type notFoundError struct {
	path string
}

func (e *notFoundError) Error() string {
	return "pysrc: module not found: " + e.path
}

func (e *notFoundError) Unwrap() error {
	return ErrNotFound
}
