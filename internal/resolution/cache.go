package resolution

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/vyrodovalexey/avadispatch/internal/endpoint"
	"github.com/vyrodovalexey/avadispatch/internal/observability"
)

// Recorder receives cache lookup outcomes.
type Recorder interface {
	RecordCacheLookup(hit bool)
}

// Cache resolves and memoizes endpoint constraints per collection version.
type Cache struct {
	providers  []Provider
	generation atomic.Pointer[generation]
	logger     observability.Logger
	recorder   Recorder
}

type generation struct {
	version uint64
	entries sync.Map // endpoint ID -> *Resolution
}

// Option is a functional option for the cache.
type Option func(*Cache)

// WithProviders adds providers to the chain.
func WithProviders(providers ...Provider) Option {
	return func(c *Cache) {
		c.providers = append(c.providers, providers...)
	}
}

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

// NewCache creates a cache whose chain holds DefaultProvider plus any
// providers passed through options.
func NewCache(opts ...Option) *Cache {
	c := &Cache{
		providers: []Provider{DefaultProvider{}},
		logger:    observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	sort.SliceStable(c.providers, func(i, j int) bool {
		return c.providers[i].Order() < c.providers[j].Order()
	})

	return c
}

// Resolve returns the realized constraints of d for the collection at
// version. Provider and factory errors are returned unmodified.
func (c *Cache) Resolve(version uint64, d *endpoint.Descriptor) (*Resolution, error) {
	if len(d.Constraints) == 0 {
		return emptyResolution, nil
	}

	gen := c.current(version)
	if gen != nil {
		if cached, ok := gen.entries.Load(d.ID); ok {
			c.record(true)
			return cached.(*Resolution), nil
		}
	}
	c.record(false)

	res, err := c.compute(d)
	if err != nil {
		return nil, err
	}

	if gen != nil && res.Reusable {
		gen.entries.Store(d.ID, res)
	}

	return res, nil
}

// Version returns the collection version of the current generation.
func (c *Cache) Version() uint64 {
	if gen := c.generation.Load(); gen != nil {
		return gen.version
	}
	return 0
}

// current returns the generation for version, swapping in a new one when
// version is newer. A stale version yields nil: results for it are computed
// but never stored.
func (c *Cache) current(version uint64) *generation {
	for {
		gen := c.generation.Load()
		if gen != nil && gen.version == version {
			return gen
		}
		if gen != nil && gen.version > version {
			return nil
		}

		next := &generation{version: version}
		if c.generation.CompareAndSwap(gen, next) {
			c.logger.Debug("constraint cache generation swapped",
				observability.Uint64("version", version),
			)
			return next
		}
	}
}

func (c *Cache) compute(d *endpoint.Descriptor) (*Resolution, error) {
	ctx := &ProviderContext{
		Endpoint: d,
		Items:    make([]*Item, len(d.Constraints)),
	}
	for i, md := range d.Constraints {
		ctx.Items[i] = &Item{metadata: md, slot: i, ctx: ctx}
	}

	for _, p := range c.providers {
		ctx.current = providerName(p)
		err := p.Provide(ctx)
		if ctx.violation != nil {
			err = ctx.violation
		}
		if err != nil {
			c.logger.Error("constraint provider failed",
				observability.String("provider", ctx.current),
				observability.String("endpoint", d.ID),
				observability.Error(err),
			)
			return nil, err
		}
	}

	return newResolution(ctx.Items), nil
}

func (c *Cache) record(hit bool) {
	if c.recorder != nil {
		c.recorder.RecordCacheLookup(hit)
	}
}
