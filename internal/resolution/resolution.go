package resolution

import (
	"sort"

	"github.com/vyrodovalexey/avadispatch/internal/constraint"
)

// StageGroup holds the constraints an endpoint declares at one stage.
type StageGroup struct {
	Stage       int
	Constraints []constraint.Constraint
}

// Resolution is the realized constraint set of one endpoint.
type Resolution struct {
	// Groups are ordered by ascending stage.
	Groups []StageGroup

	// Constraints lists every realized constraint in declaration order.
	Constraints []constraint.Constraint

	// Reusable reports whether the resolution may be cached.
	Reusable bool
}

var emptyResolution = &Resolution{Reusable: true}

// Empty reports whether the endpoint has no constraints.
func (r *Resolution) Empty() bool {
	return r == nil || len(r.Constraints) == 0
}

// At returns the constraints declared at stage.
func (r *Resolution) At(stage int) []constraint.Constraint {
	if r == nil {
		return nil
	}
	i := sort.Search(len(r.Groups), func(i int) bool {
		return r.Groups[i].Stage >= stage
	})
	if i < len(r.Groups) && r.Groups[i].Stage == stage {
		return r.Groups[i].Constraints
	}
	return nil
}

// Stages returns the declared stages in ascending order.
func (r *Resolution) Stages() []int {
	if r == nil {
		return nil
	}
	stages := make([]int, len(r.Groups))
	for i, g := range r.Groups {
		stages[i] = g.Stage
	}
	return stages
}

func newResolution(items []*Item) *Resolution {
	res := &Resolution{Reusable: true}
	byStage := make(map[int][]constraint.Constraint)

	for _, item := range items {
		if !item.Populated() {
			continue
		}
		c := item.Constraint()
		if !item.Reusable() {
			res.Reusable = false
		}
		res.Constraints = append(res.Constraints, c)
		stage := constraint.StageOf(c)
		byStage[stage] = append(byStage[stage], c)
	}

	for stage, cs := range byStage {
		res.Groups = append(res.Groups, StageGroup{Stage: stage, Constraints: cs})
	}
	sort.Slice(res.Groups, func(i, j int) bool {
		return res.Groups[i].Stage < res.Groups[j].Stage
	})

	return res
}
