package endpoint

import (
	"github.com/vyrodovalexey/avadispatch/internal/constraint"
	"github.com/vyrodovalexey/avadispatch/internal/routevalue"
)

// Descriptor describes one dispatch target and its matching criteria.
// Descriptors must not be modified after they are published.
type Descriptor struct {
	// ID is the stable identity of the endpoint.
	ID string

	// DisplayName is used in diagnostics.
	DisplayName string

	// RouteValues are the expected route values, in declaration order.
	// A key that is absent does not constrain the request; a key mapped to
	// routevalue.Null (or "") requires the request value to be absent or
	// empty.
	RouteValues []routevalue.Entry

	// AttributeRouted marks endpoints matched only by explicit path
	// templates. They are never selected by route values.
	AttributeRouted bool

	// Constraints declares the endpoint's constraints in order.
	Constraints []constraint.Metadata
}

// Name returns the display name, falling back to the ID.
func (d *Descriptor) Name() string {
	if d.DisplayName != "" {
		return d.DisplayName
	}
	return d.ID
}

// RouteValue returns the expected value for key and whether the endpoint
// constrains that key.
func (d *Descriptor) RouteValue(key string) (routevalue.Value, bool) {
	folded := routevalue.Fold(key)
	for _, e := range d.RouteValues {
		if routevalue.Fold(e.Key) == folded {
			return e.Value, true
		}
	}
	return routevalue.Null, false
}

// Accepts reports whether the endpoint's route values are compatible with
// the request's. It is the linear reference for the candidate index.
func (d *Descriptor) Accepts(values routevalue.Values) bool {
	for _, e := range d.RouteValues {
		actual, ok := values.Get(e.Key)
		if e.Value.IsEmpty() {
			if ok && !actual.IsEmpty() {
				return false
			}
			continue
		}
		if !ok || actual.IsNull() || !actual.Equal(e.Value) {
			return false
		}
	}
	return true
}
