package selector

import (
	"net/http"
	"time"

	"github.com/vyrodovalexey/avadispatch/internal/endpoint"
	"github.com/vyrodovalexey/avadispatch/internal/index"
	"github.com/vyrodovalexey/avadispatch/internal/observability"
	"github.com/vyrodovalexey/avadispatch/internal/resolution"
	"github.com/vyrodovalexey/avadispatch/internal/routevalue"
)

// Recorder receives dispatch outcomes.
type Recorder interface {
	RecordDispatch(outcome string, candidates int, duration time.Duration)
}

// Result describes one dispatch.
type Result struct {
	// Endpoint is the winner, or nil on no match.
	Endpoint *endpoint.Descriptor

	// Candidates is the number of endpoints returned by the index.
	Candidates int

	// Version is the collection version the dispatch ran against.
	Version uint64

	// Outcome is one of the observability.Outcome* values.
	Outcome string
}

// Selector coordinates the candidate index, the constraint resolution cache
// and SelectBestCandidate. It is safe for concurrent use.
type Selector struct {
	source   endpoint.Source
	index    *index.Cache
	resolver *resolution.Cache
	logger   observability.Logger
	recorder Recorder
}

// Option is a functional option for the selector.
type Option func(*Selector)

// WithIndexCache sets the candidate index cache.
func WithIndexCache(cache *index.Cache) Option {
	return func(s *Selector) {
		s.index = cache
	}
}

// WithResolutionCache sets the constraint resolution cache.
func WithResolutionCache(cache *resolution.Cache) Option {
	return func(s *Selector) {
		s.resolver = cache
	}
}

// WithLogger sets the logger.
func WithLogger(logger observability.Logger) Option {
	return func(s *Selector) {
		s.logger = logger
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(recorder Recorder) Option {
	return func(s *Selector) {
		s.recorder = recorder
	}
}

// New creates a selector over source.
func New(source endpoint.Source, opts ...Option) *Selector {
	s := &Selector{
		source: source,
		logger: observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.index == nil {
		s.index = index.NewCache(index.WithLogger(s.logger))
	}
	if s.resolver == nil {
		s.resolver = resolution.NewCache(resolution.WithLogger(s.logger))
	}
	return s
}

// Select returns the endpoint that should handle req, or nil when no
// endpoint matches.
func (s *Selector) Select(req *http.Request, values routevalue.Values) (*endpoint.Descriptor, error) {
	res, err := s.Dispatch(req, values)
	if err != nil {
		return nil, err
	}
	return res.Endpoint, nil
}

// Candidates returns the endpoints whose route values are compatible with
// values, in registration order, before any constraint is evaluated.
func (s *Selector) Candidates(values routevalue.Values) []*endpoint.Descriptor {
	return s.index.Get(s.source.Collection()).Select(values)
}

// Dispatch runs a full selection and reports how it went. Errors from
// constraint providers and factories are returned unmodified; ambiguity is
// returned as a *util.AmbiguousMatchError.
func (s *Selector) Dispatch(req *http.Request, values routevalue.Values) (*Result, error) {
	start := time.Now()
	coll := s.source.Collection()
	tree := s.index.Get(coll)

	found := tree.Select(values)
	result := &Result{Candidates: len(found), Version: tree.Version()}

	candidates := make([]Candidate, len(found))
	for i, d := range found {
		res, err := s.resolver.Resolve(tree.Version(), d)
		if err != nil {
			s.finish(result, observability.OutcomeError, start)
			s.logger.Error("failed to resolve endpoint constraints",
				observability.String("endpoint", d.ID),
				observability.Error(err),
			)
			return nil, err
		}
		candidates[i] = Candidate{Endpoint: d, Resolution: res}
	}

	winner, err := SelectBestCandidate(req, values, candidates)
	if err != nil {
		s.finish(result, observability.OutcomeAmbiguous, start)
		s.logger.Warn("ambiguous endpoint match",
			observability.String("route_values", values.String()),
			observability.Error(err),
		)
		return nil, err
	}

	result.Endpoint = winner
	if winner == nil {
		s.finish(result, observability.OutcomeNoMatch, start)
		s.logger.Debug("no endpoint matched",
			observability.String("route_values", values.String()),
			observability.Int("candidates", result.Candidates),
		)
		return result, nil
	}

	s.finish(result, observability.OutcomeMatched, start)
	s.logger.Debug("endpoint selected",
		observability.String("endpoint", winner.ID),
		observability.Int("candidates", result.Candidates),
	)
	return result, nil
}

func (s *Selector) finish(result *Result, outcome string, start time.Time) {
	result.Outcome = outcome
	if s.recorder != nil {
		s.recorder.RecordDispatch(outcome, result.Candidates, time.Since(start))
	}
}
