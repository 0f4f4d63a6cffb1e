package constraint

import (
	"net/http"

	"github.com/vyrodovalexey/avadispatch/internal/routevalue"
)

// Constraint accepts or rejects a request for one candidate endpoint.
type Constraint interface {
	Accept(ctx *Context) bool
}

// Staged is implemented by constraints that run at an explicit stage.
// Lower stages run first.
type Staged interface {
	Stage() int
}

// StageOf returns the stage of c, or 0 when c does not implement Staged.
func StageOf(c Constraint) int {
	if s, ok := c.(Staged); ok {
		return s.Stage()
	}
	return 0
}

// Factory produces a constraint when an endpoint's constraints are resolved.
// A nil constraint with a nil error means the metadata contributes nothing.
type Factory interface {
	Create() (Constraint, error)
}

// ReusableFactory is implemented by factories whose product may be shared
// across requests. Factories that do not implement it are reusable.
type ReusableFactory interface {
	Factory
	IsReusable() bool
}

// IsReusable reports whether constraints from f may be memoized.
func IsReusable(f Factory) bool {
	if rf, ok := f.(ReusableFactory); ok {
		return rf.IsReusable()
	}
	return true
}

// Kind tags the variant held by Metadata.
type Kind int

const (
	// KindNone is empty metadata.
	KindNone Kind = iota
	// KindDirect holds a ready constraint.
	KindDirect
	// KindFactory holds a factory that must be realized.
	KindFactory
	// KindOpaque holds an arbitrary value only custom providers understand.
	KindOpaque
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindDirect:
		return "direct"
	case KindFactory:
		return "factory"
	case KindOpaque:
		return "opaque"
	default:
		return "none"
	}
}

// Metadata is one constraint declaration on an endpoint.
type Metadata struct {
	kind       Kind
	constraint Constraint
	factory    Factory
	value      any
}

// Direct declares a ready constraint.
func Direct(c Constraint) Metadata {
	return Metadata{kind: KindDirect, constraint: c}
}

// FromFactory declares a constraint produced by f.
func FromFactory(f Factory) Metadata {
	return Metadata{kind: KindFactory, factory: f}
}

// Opaque declares provider-specific metadata.
func Opaque(v any) Metadata {
	return Metadata{kind: KindOpaque, value: v}
}

// Kind returns the metadata variant.
func (m Metadata) Kind() Kind { return m.kind }

// Constraint returns the direct constraint, if any.
func (m Metadata) Constraint() Constraint { return m.constraint }

// Factory returns the factory, if any.
func (m Metadata) Factory() Factory { return m.factory }

// Value returns the opaque value, if any.
func (m Metadata) Value() any { return m.value }

// Candidate is an endpoint as seen by constraints during evaluation.
type Candidate struct {
	ID          string
	DisplayName string
	Constraints []Constraint
}

// Context carries the request being dispatched to constraints.
type Context struct {
	// Request is the inbound HTTP request.
	Request *http.Request

	// RouteValues are the route values extracted for the request.
	RouteValues routevalue.Values

	// Candidates lists every candidate in registration order.
	Candidates []Candidate

	// Current is the candidate whose constraints are being evaluated.
	Current *Candidate
}

// Func adapts a function into a staged constraint.
type Func struct {
	Order int
	Fn    func(ctx *Context) bool
}

// Accept implements Constraint.
func (f Func) Accept(ctx *Context) bool {
	return f.Fn(ctx)
}

// Stage implements Staged.
func (f Func) Stage() int {
	return f.Order
}

// FactoryFunc adapts a function into a Factory.
type FactoryFunc func() (Constraint, error)

// Create implements Factory.
func (f FactoryFunc) Create() (Constraint, error) {
	return f()
}
