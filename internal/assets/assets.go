// Package assets resolves asset references and fetches their bytes.
package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Faultbox/glbview/internal/logger"
	"github.com/Faultbox/glbview/internal/progress"
)

// ErrNotFound is returned when the asset does not exist at its source.
var ErrNotFound = errors.New("asset not found")

// Ref is an asset reference such as "/model.glb". It is always slash separated
// and rooted at the source, whatever the source is.
type Ref string

// Clean normalises the reference to a rooted, slash-separated path.
// Parent segments cannot climb above the root.
func (r Ref) Clean() Ref {
	return Ref(path.Clean("/" + string(r)))
}

// Source opens assets by reference.
type Source interface {
	// Open returns the asset stream and its size in bytes (<= 0 if unknown).
	Open(ctx context.Context, ref Ref) (io.ReadCloser, int64, error)
}

// Manager fetches assets from a Source and keeps them in a Cache.
// Concurrent fetches of the same reference share one read.
type Manager struct {
	source Source
	cache  *Cache
	group  singleflight.Group

	mu       sync.Mutex
	inflight map[Ref]*progress.Tracker
}

// NewManager creates a manager over the given source.
func NewManager(source Source) *Manager {
	return &Manager{
		source:   source,
		cache:    NewCache(),
		inflight: make(map[Ref]*progress.Tracker),
	}
}

// Cache returns the manager's cache.
func (m *Manager) Cache() *Cache {
	return m.cache
}

// Preload reads the asset into the cache without reporting progress anywhere.
func (m *Manager) Preload(ctx context.Context, ref Ref) error {
	_, err := m.Fetch(ctx, ref, nil)
	return err
}

// Fetch returns the asset bytes, reading from the source on a cache miss.
// Byte progress is forwarded to tr when it is non-nil; tr is never completed
// here since decoding still follows.
func (m *Manager) Fetch(ctx context.Context, ref Ref, tr *progress.Tracker) ([]byte, error) {
	ref = ref.Clean()

	if data, ok := m.cache.Get(ref); ok {
		if tr != nil {
			tr.Report(int64(len(data)), int64(len(data)))
		}
		logger.Debug("asset cache hit", zap.String("ref", string(ref)), zap.Int("bytes", len(data)))
		return data, nil
	}

	shared := m.trackerFor(ref)
	if tr != nil {
		stop := forward(shared, tr)
		defer stop()
	}

	ch := m.group.DoChan(string(ref), func() (interface{}, error) {
		defer m.release(ref)
		return m.read(ctx, ref, shared)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		data := res.Val.([]byte)
		if tr != nil {
			tr.Report(int64(len(data)), int64(len(data)))
		}
		return data, nil
	}
}

func (m *Manager) read(ctx context.Context, ref Ref, tr *progress.Tracker) ([]byte, error) {
	rc, size, err := m.source.Open(ctx, ref)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	logger.Debug("fetching asset", zap.String("ref", string(ref)), zap.Int64("size", size))

	data, err := io.ReadAll(progress.NewReader(rc, size, tr))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", ref, err)
	}

	m.cache.Set(ref, data)
	logger.Info("asset fetched", zap.String("ref", string(ref)), zap.Int("bytes", len(data)))
	return data, nil
}

// trackerFor returns the shared byte tracker of an in-flight read, creating it if needed.
func (m *Manager) trackerFor(ref Ref) *progress.Tracker {
	m.mu.Lock()
	defer m.mu.Unlock()

	tr, ok := m.inflight[ref]
	if !ok {
		tr = progress.New()
		m.inflight[ref] = tr
	}
	return tr
}

func (m *Manager) release(ref Ref) {
	m.mu.Lock()
	delete(m.inflight, ref)
	m.mu.Unlock()
}

// forward copies percentages from src into dst until stop is called.
func forward(src, dst *progress.Tracker) (stop func()) {
	ch := src.Subscribe()
	done := make(chan struct{})
	exited := make(chan struct{})

	go func() {
		defer close(exited)
		for {
			select {
			case <-done:
				return
			case p := <-ch:
				dst.Report(int64(p), 100)
			}
		}
	}()

	return func() {
		close(done)
		<-exited
		src.Unsubscribe(ch)
	}
}

// Cache is a simple in-memory cache for loaded assets.
type Cache struct {
	data map[Ref][]byte
	mu   sync.RWMutex

	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[Ref][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key Ref) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key Ref, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[Ref][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}
