package selector

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vyrodovalexey/avadispatch/internal/constraint"
	"github.com/vyrodovalexey/avadispatch/internal/endpoint"
	"github.com/vyrodovalexey/avadispatch/internal/observability"
	"github.com/vyrodovalexey/avadispatch/internal/routevalue"
	"github.com/vyrodovalexey/avadispatch/internal/util"
)

type dispatchRecorder struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *dispatchRecorder) RecordDispatch(outcome string, _ int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func homeIndex(id string, cs ...constraint.Metadata) *endpoint.Descriptor {
	return &endpoint.Descriptor{
		ID:          id,
		DisplayName: "Home.Index " + id,
		RouteValues: []routevalue.Entry{
			{Key: "controller", Value: routevalue.String("Home")},
			{Key: "action", Value: routevalue.String("Index")},
		},
		Constraints: cs,
	}
}

func homeIndexValues() routevalue.Values {
	return routevalue.NewValues(map[string]string{"controller": "home", "action": "index"})
}

func TestSelector_ScenarioA_Ambiguous(t *testing.T) {
	t.Parallel()

	rec := &dispatchRecorder{}
	s := New(endpoint.NewStatic(homeIndex("one"), homeIndex("two")), WithRecorder(rec))

	winner, err := s.Select(httptest.NewRequest(http.MethodGet, "/", nil), homeIndexValues())
	assert.Nil(t, winner)
	require.ErrorIs(t, err, util.ErrAmbiguousMatch)
	assert.True(t, strings.HasSuffix(err.Error(), "\n\nHome.Index one\nHome.Index two"))
	assert.Equal(t, []string{observability.OutcomeAmbiguous}, rec.outcomes)
}

func TestSelector_ScenarioB_DeclaredMethodWins(t *testing.T) {
	t.Parallel()

	post := constraint.NewHTTPMethod([]string{http.MethodPost}, constraint.WithMethodStage(0))
	s := New(endpoint.NewStatic(homeIndex("post", constraint.Direct(post)), homeIndex("any")))

	winner, err := s.Select(httptest.NewRequest(http.MethodPost, "/", nil), homeIndexValues())
	require.NoError(t, err)
	require.NotNil(t, winner)
	assert.Equal(t, "post", winner.ID)

	winner, err = s.Select(httptest.NewRequest(http.MethodGet, "/", nil), homeIndexValues())
	require.NoError(t, err)
	require.NotNil(t, winner)
	assert.Equal(t, "any", winner.ID)
}

func TestSelector_ScenarioC_AllRejectedIsNoMatch(t *testing.T) {
	t.Parallel()

	rec := &dispatchRecorder{}
	put := constraint.Direct(constraint.NewHTTPMethod([]string{http.MethodPut}, constraint.WithMethodStage(0)))
	del := constraint.Direct(constraint.NewHTTPMethod([]string{http.MethodDelete}, constraint.WithMethodStage(0)))
	s := New(endpoint.NewStatic(homeIndex("put", put), homeIndex("delete", del)), WithRecorder(rec))

	res, err := s.Dispatch(httptest.NewRequest(http.MethodGet, "/", nil), homeIndexValues())
	require.NoError(t, err)
	assert.Nil(t, res.Endpoint)
	assert.Equal(t, 2, res.Candidates)
	assert.Equal(t, observability.OutcomeNoMatch, res.Outcome)
	assert.Equal(t, []string{observability.OutcomeNoMatch}, rec.outcomes)
}

func TestSelector_ScenarioD_AttributeRoutedExcluded(t *testing.T) {
	t.Parallel()

	attr := homeIndex("attr")
	attr.AttributeRouted = true
	s := New(endpoint.NewStatic(attr))

	winner, err := s.Select(httptest.NewRequest(http.MethodGet, "/", nil), homeIndexValues())
	require.NoError(t, err)
	assert.Nil(t, winner)
	assert.Empty(t, s.Candidates(homeIndexValues()))
}

func TestSelector_ProviderErrorsPropagate(t *testing.T) {
	t.Parallel()

	boom := errors.New("factory failed")
	failing := constraint.FromFactory(constraint.FactoryFunc(func() (constraint.Constraint, error) {
		return nil, boom
	}))
	rec := &dispatchRecorder{}
	s := New(endpoint.NewStatic(homeIndex("broken", failing)), WithRecorder(rec))

	_, err := s.Select(httptest.NewRequest(http.MethodGet, "/", nil), homeIndexValues())
	assert.Same(t, boom, err)
	assert.Equal(t, []string{observability.OutcomeError}, rec.outcomes)
}

func TestSelector_ExpressionConstraint(t *testing.T) {
	t.Parallel()

	tenant := constraint.FromFactory(constraint.NewExpressionFactory(`headers["x-tenant"] == "acme"`, 0))
	s := New(endpoint.NewStatic(homeIndex("acme", tenant), homeIndex("default")))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Tenant", "acme")
	winner, err := s.Select(req, homeIndexValues())
	require.NoError(t, err)
	assert.Equal(t, "acme", winner.ID)

	winner, err = s.Select(httptest.NewRequest(http.MethodGet, "/", nil), homeIndexValues())
	require.NoError(t, err)
	assert.Equal(t, "default", winner.ID)
}

func TestSelector_Idempotent(t *testing.T) {
	t.Parallel()

	get := constraint.Direct(constraint.NewHTTPMethod([]string{http.MethodGet}))
	s := New(endpoint.NewStatic(
		homeIndex("get", get),
		homeIndex("fallback"),
	))

	for i := 0; i < 5; i++ {
		winner, err := s.Select(httptest.NewRequest(http.MethodGet, "/", nil), homeIndexValues())
		require.NoError(t, err)
		assert.Equal(t, "get", winner.ID)
	}
}

func TestSelector_FollowsStoreVersions(t *testing.T) {
	t.Parallel()

	store := endpoint.NewStore()
	s := New(store)

	winner, err := s.Select(httptest.NewRequest(http.MethodGet, "/", nil), homeIndexValues())
	require.NoError(t, err)
	assert.Nil(t, winner)

	_, err = store.Publish([]*endpoint.Descriptor{homeIndex("v1")})
	require.NoError(t, err)
	winner, err = s.Select(httptest.NewRequest(http.MethodGet, "/", nil), homeIndexValues())
	require.NoError(t, err)
	assert.Equal(t, "v1", winner.ID)

	_, err = store.Publish([]*endpoint.Descriptor{homeIndex("v2")})
	require.NoError(t, err)
	res, err := s.Dispatch(httptest.NewRequest(http.MethodGet, "/", nil), homeIndexValues())
	require.NoError(t, err)
	assert.Equal(t, "v2", res.Endpoint.ID)
	assert.Equal(t, uint64(2), res.Version)
}

func TestSelector_Concurrent(t *testing.T) {
	t.Parallel()

	store := endpoint.NewStore()
	_, err := store.Publish([]*endpoint.Descriptor{homeIndex("a")})
	require.NoError(t, err)
	s := New(store)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				winner, err := s.Select(httptest.NewRequest(http.MethodGet, "/", nil), homeIndexValues())
				assert.NoError(t, err)
				if assert.NotNil(t, winner) {
					assert.Contains(t, []string{"a", "b"}, winner.ID)
				}
			}
		}()
	}

	for i := 0; i < 50; i++ {
		id := "a"
		if i%2 == 1 {
			id = "b"
		}
		_, err := store.Publish([]*endpoint.Descriptor{homeIndex(id)})
		require.NoError(t, err)
	}
	wg.Wait()
}
