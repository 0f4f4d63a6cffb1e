package selector

import (
	"net/http"
	"sort"

	"github.com/vyrodovalexey/avadispatch/internal/constraint"
	"github.com/vyrodovalexey/avadispatch/internal/endpoint"
	"github.com/vyrodovalexey/avadispatch/internal/resolution"
	"github.com/vyrodovalexey/avadispatch/internal/routevalue"
	"github.com/vyrodovalexey/avadispatch/internal/util"
)

// Candidate is an endpoint together with its resolved constraints.
type Candidate struct {
	Endpoint   *endpoint.Descriptor
	Resolution *resolution.Resolution
}

// SelectBestCandidate narrows candidates, given in registration order, to a
// single winner.
//
// Stages declared by any candidate are visited in ascending order. At each
// stage the candidates declaring constraints there are kept if all of their
// constraints at that stage accept. When none of them pass, the candidates
// that declare nothing at that stage are kept instead.
func SelectBestCandidate(
	req *http.Request,
	values routevalue.Values,
	candidates []Candidate,
) (*endpoint.Descriptor, error) {
	switch {
	case len(candidates) == 0:
		return nil, nil
	case len(candidates) == 1 && candidates[0].Resolution.Empty():
		return candidates[0].Endpoint, nil
	}

	ctx := &constraint.Context{
		Request:     req,
		RouteValues: values,
		Candidates:  make([]constraint.Candidate, len(candidates)),
	}
	for i, c := range candidates {
		ctx.Candidates[i] = constraint.Candidate{
			ID:          c.Endpoint.ID,
			DisplayName: c.Endpoint.Name(),
		}
		if c.Resolution != nil {
			ctx.Candidates[i].Constraints = c.Resolution.Constraints
		}
	}

	working := make([]int, len(candidates))
	for i := range candidates {
		working[i] = i
	}

	for _, stage := range stages(candidates) {
		var passed, silent []int
		for _, i := range working {
			cs := candidates[i].Resolution.At(stage)
			if len(cs) == 0 {
				silent = append(silent, i)
				continue
			}
			ctx.Current = &ctx.Candidates[i]
			if acceptAll(cs, ctx) {
				passed = append(passed, i)
			}
		}
		ctx.Current = nil

		if len(passed) > 0 {
			working = passed
		} else {
			working = silent
		}
		if len(working) == 0 {
			return nil, nil
		}
	}

	if len(working) == 1 {
		return candidates[working[0]].Endpoint, nil
	}

	names := make([]string, len(working))
	for j, i := range working {
		names[j] = candidates[i].Endpoint.Name()
	}
	return nil, util.NewAmbiguousMatchError(names)
}

func acceptAll(cs []constraint.Constraint, ctx *constraint.Context) bool {
	for _, c := range cs {
		if !c.Accept(ctx) {
			return false
		}
	}
	return true
}

// stages returns the union of stages declared by candidates, ascending.
func stages(candidates []Candidate) []int {
	seen := make(map[int]struct{})
	var out []int
	for _, c := range candidates {
		for _, s := range c.Resolution.Stages() {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	sort.Ints(out)
	return out
}
