package index

import (
	"sync/atomic"
	"time"

	"github.com/vyrodovalexey/avadispatch/internal/endpoint"
	"github.com/vyrodovalexey/avadispatch/internal/observability"
)

// Recorder receives index build events.
type Recorder interface {
	RecordIndexBuild(version uint64, endpoints int, d time.Duration)
}

// Cache holds the tree for the latest collection version seen. Reads are
// lock-free; a version change rebuilds on the next Get.
type Cache struct {
	tree     atomic.Pointer[Tree]
	logger   observability.Logger
	recorder Recorder
}

// Option is a functional option for the cache.
type Option func(*Cache)

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(recorder Recorder) Option {
	return func(c *Cache) {
		c.recorder = recorder
	}
}

// NewCache creates an empty index cache.
func NewCache(opts ...Option) *Cache {
	c := &Cache{
		logger: observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the tree for coll, building it when the cached tree belongs
// to another version. Concurrent callers may build the same version twice;
// the builds are identical.
func (c *Cache) Get(coll *endpoint.Collection) *Tree {
	version := uint64(0)
	if coll != nil {
		version = coll.Version
	}

	current := c.tree.Load()
	if current != nil && current.version == version {
		return current
	}

	start := time.Now()
	built := Build(coll)
	elapsed := time.Since(start)

	for {
		current = c.tree.Load()
		if current != nil && current.version >= version {
			break
		}
		if c.tree.CompareAndSwap(current, built) {
			break
		}
	}

	c.logger.Info("candidate index built",
		observability.Uint64("version", version),
		observability.Int("endpoints", built.Len()),
		observability.Int("keys", len(built.keys)),
		observability.Duration("duration", elapsed),
	)
	if c.recorder != nil {
		c.recorder.RecordIndexBuild(version, built.Len(), elapsed)
	}

	return built
}

// Version returns the version of the cached tree, or 0 when none is built.
func (c *Cache) Version() uint64 {
	if t := c.tree.Load(); t != nil {
		return t.version
	}
	return 0
}
