package resolution

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avadispatch/internal/constraint"
	"github.com/vyrodovalexey/avadispatch/internal/endpoint"
	"github.com/vyrodovalexey/avadispatch/internal/util"
)

func staged(stage int) constraint.Constraint {
	return constraint.Func{Order: stage, Fn: func(*constraint.Context) bool { return true }}
}

type unstaged struct{ name string }

func (unstaged) Accept(*constraint.Context) bool { return true }

type countingFactory struct {
	calls    atomic.Int32
	result   constraint.Constraint
	err      error
	reusable bool
}

func (f *countingFactory) Create() (constraint.Constraint, error) {
	f.calls.Add(1)
	return f.result, f.err
}

func (f *countingFactory) IsReusable() bool { return f.reusable }

type lookupRecorder struct {
	hits, misses atomic.Int32
}

func (r *lookupRecorder) RecordCacheLookup(hit bool) {
	if hit {
		r.hits.Add(1)
	} else {
		r.misses.Add(1)
	}
}

func TestCache_GroupsByStage(t *testing.T) {
	t.Parallel()

	a, b, c, d := staged(100), unstaged{"b"}, staged(-5), staged(100)
	ep := &endpoint.Descriptor{ID: "e", Constraints: []constraint.Metadata{
		constraint.Direct(a), constraint.Direct(b), constraint.Direct(c), constraint.Direct(d),
	}}

	res, err := NewCache().Resolve(1, ep)
	require.NoError(t, err)

	assert.Equal(t, []int{-5, 0, 100}, res.Stages())
	assert.Len(t, res.At(100), 2)
	assert.Len(t, res.At(0), 1)
	assert.Equal(t, b, res.At(0)[0])
	assert.Nil(t, res.At(7))
	assert.Len(t, res.Constraints, 4)
	assert.True(t, res.Reusable)
	assert.False(t, res.Empty())
}

func TestCache_NoConstraints(t *testing.T) {
	t.Parallel()

	res, err := NewCache().Resolve(1, &endpoint.Descriptor{ID: "e"})
	require.NoError(t, err)
	assert.True(t, res.Empty())
	assert.Empty(t, res.Stages())
}

func TestCache_FactoryRealizedOncePerVersion(t *testing.T) {
	t.Parallel()

	factory := &countingFactory{result: staged(1), reusable: true}
	ep := &endpoint.Descriptor{ID: "e", Constraints: []constraint.Metadata{constraint.FromFactory(factory)}}
	rec := &lookupRecorder{}
	cache := NewCache(WithRecorder(rec))

	first, err := cache.Resolve(1, ep)
	require.NoError(t, err)
	second, err := cache.Resolve(1, ep)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), factory.calls.Load())
	assert.Equal(t, int32(1), rec.hits.Load())
	assert.Equal(t, int32(1), rec.misses.Load())

	_, err = cache.Resolve(2, ep)
	require.NoError(t, err)
	assert.Equal(t, int32(2), factory.calls.Load())
	assert.Equal(t, uint64(2), cache.Version())
}

func TestCache_StaleVersionNotStored(t *testing.T) {
	t.Parallel()

	factory := &countingFactory{result: staged(1), reusable: true}
	ep := &endpoint.Descriptor{ID: "e", Constraints: []constraint.Metadata{constraint.FromFactory(factory)}}
	cache := NewCache()

	_, err := cache.Resolve(5, ep)
	require.NoError(t, err)

	_, err = cache.Resolve(4, ep)
	require.NoError(t, err)
	_, err = cache.Resolve(4, ep)
	require.NoError(t, err)

	assert.Equal(t, int32(3), factory.calls.Load())
	assert.Equal(t, uint64(5), cache.Version())

	_, err = cache.Resolve(5, ep)
	require.NoError(t, err)
	assert.Equal(t, int32(3), factory.calls.Load())
}

func TestCache_NonReusableNotCached(t *testing.T) {
	t.Parallel()

	factory := &countingFactory{result: staged(1), reusable: false}
	ep := &endpoint.Descriptor{ID: "e", Constraints: []constraint.Metadata{
		constraint.Direct(staged(0)),
		constraint.FromFactory(factory),
	}}
	cache := NewCache()

	for i := 0; i < 3; i++ {
		res, err := cache.Resolve(1, ep)
		require.NoError(t, err)
		assert.False(t, res.Reusable)
	}
	assert.Equal(t, int32(3), factory.calls.Load())
}

func TestCache_FactoryReturningNil(t *testing.T) {
	t.Parallel()

	factory := &countingFactory{reusable: true}
	ep := &endpoint.Descriptor{ID: "e", Constraints: []constraint.Metadata{constraint.FromFactory(factory)}}

	res, err := NewCache().Resolve(1, ep)
	require.NoError(t, err)
	assert.True(t, res.Empty())
}

func TestCache_FactoryErrorPropagatesUnmodified(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	factory := &countingFactory{err: boom}
	ep := &endpoint.Descriptor{ID: "e", Constraints: []constraint.Metadata{constraint.FromFactory(factory)}}

	_, err := NewCache().Resolve(1, ep)
	assert.Same(t, boom, err)
}

func TestCache_ProviderErrorPropagatesUnmodified(t *testing.T) {
	t.Parallel()

	boom := errors.New("provider failed")
	cache := NewCache(WithProviders(ProviderFunc{
		ProviderName: "failing",
		Fn:           func(*ProviderContext) error { return boom },
	}))
	ep := &endpoint.Descriptor{ID: "e", Constraints: []constraint.Metadata{constraint.Direct(staged(0))}}

	_, err := cache.Resolve(1, ep)
	assert.Same(t, boom, err)
}

func TestCache_ProviderOverwriteIsContractViolation(t *testing.T) {
	t.Parallel()

	overwrite := ProviderFunc{
		ProviderName:  "overwriter",
		ProviderOrder: 10,
		Fn: func(ctx *ProviderContext) error {
			return ctx.Items[0].Set(staged(3), true)
		},
	}
	cache := NewCache(WithProviders(overwrite))
	ep := &endpoint.Descriptor{ID: "home-index", Constraints: []constraint.Metadata{constraint.Direct(staged(0))}}

	_, err := cache.Resolve(1, ep)
	require.Error(t, err)
	assert.ErrorIs(t, err, util.ErrProviderContract)

	var contractErr *util.ProviderContractError
	require.ErrorAs(t, err, &contractErr)
	assert.Equal(t, "overwriter", contractErr.Provider)
	assert.Equal(t, "home-index", contractErr.Endpoint)
	assert.Equal(t, 0, contractErr.Slot)
	assert.Contains(t, contractErr.Message, "default")
}

func TestCache_IgnoredSetErrorStillViolatesContract(t *testing.T) {
	t.Parallel()

	careless := ProviderFunc{
		ProviderName:  "careless",
		ProviderOrder: 10,
		Fn: func(ctx *ProviderContext) error {
			_ = ctx.Items[0].Set(unstaged{name: "late"}, true)
			return nil
		},
	}
	original := unstaged{name: "original"}
	cache := NewCache(WithProviders(careless))
	ep := &endpoint.Descriptor{ID: "home-index", Constraints: []constraint.Metadata{constraint.Direct(original)}}

	res, err := cache.Resolve(1, ep)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, util.ErrProviderContract)

	var contractErr *util.ProviderContractError
	require.ErrorAs(t, err, &contractErr)
	assert.Equal(t, "careless", contractErr.Provider)
	assert.Equal(t, 0, contractErr.Slot)

	_, err = cache.Resolve(1, ep)
	assert.ErrorIs(t, err, util.ErrProviderContract, "a failed resolution must not be cached")
}

func TestCache_ProvidersRunInOrderAndSeeEarlierResults(t *testing.T) {
	t.Parallel()

	var order []string
	early := ProviderFunc{
		ProviderName:  "early",
		ProviderOrder: -2000,
		Fn: func(ctx *ProviderContext) error {
			order = append(order, "early")
			md := ctx.Items[0].Metadata()
			if md.Kind() == constraint.KindOpaque && md.Value() == "admin-only" {
				return ctx.Items[0].Set(staged(50), true)
			}
			return nil
		},
	}
	late := ProviderFunc{
		ProviderName:  "late",
		ProviderOrder: 500,
		Fn: func(ctx *ProviderContext) error {
			order = append(order, "late")
			assert.True(t, ctx.Items[0].Populated())
			assert.Equal(t, "early", ctx.Items[0].Owner())
			assert.True(t, ctx.Items[1].Populated())
			assert.Equal(t, "default", ctx.Items[1].Owner())
			return nil
		},
	}

	cache := NewCache(WithProviders(late, early))
	ep := &endpoint.Descriptor{ID: "e", Constraints: []constraint.Metadata{
		constraint.Opaque("admin-only"),
		constraint.Direct(staged(0)),
	}}

	res, err := cache.Resolve(1, ep)
	require.NoError(t, err)
	assert.Equal(t, []string{"early", "late"}, order)
	assert.Equal(t, []int{0, 50}, res.Stages())
}

func TestCache_UnhandledOpaqueMetadataIgnored(t *testing.T) {
	t.Parallel()

	ep := &endpoint.Descriptor{ID: "e", Constraints: []constraint.Metadata{constraint.Opaque(42)}}
	res, err := NewCache().Resolve(1, ep)
	require.NoError(t, err)
	assert.True(t, res.Empty())
}

func TestCache_ConcurrentResolve(t *testing.T) {
	t.Parallel()

	factory := &countingFactory{result: staged(1), reusable: true}
	ep := &endpoint.Descriptor{ID: "e", Constraints: []constraint.Metadata{constraint.FromFactory(factory)}}
	cache := NewCache()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(version uint64) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				res, err := cache.Resolve(version, ep)
				assert.NoError(t, err)
				assert.Equal(t, []int{1}, res.Stages())
			}
		}(uint64(i%4 + 1))
	}
	wg.Wait()
}
