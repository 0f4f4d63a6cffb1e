// Package catalog turns the configured endpoint catalog into endpoint
// descriptors.
package catalog

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/vyrodovalexey/avadispatch/internal/config"
	"github.com/vyrodovalexey/avadispatch/internal/constraint"
	"github.com/vyrodovalexey/avadispatch/internal/endpoint"
	"github.com/vyrodovalexey/avadispatch/internal/routevalue"
	"github.com/vyrodovalexey/avadispatch/internal/util"
)

// endpointNamespace seeds IDs of endpoints configured without a name.
var endpointNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/vyrodovalexey/avadispatch/endpoint"))

// Build creates one descriptor per configured endpoint, in file order.
// Endpoints without a name get a name-based UUID derived from their
// position and display name, so rebuilding the same catalog yields the
// same IDs.
func Build(endpoints []config.EndpointConfig) ([]*endpoint.Descriptor, error) {
	out := make([]*endpoint.Descriptor, 0, len(endpoints))

	for i := range endpoints {
		d, err := buildEndpoint(&endpoints[i], i)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}

	return out, nil
}

func buildEndpoint(ep *config.EndpointConfig, position int) (*endpoint.Descriptor, error) {
	path := fmt.Sprintf("endpoints[%d]", position)
	d := &endpoint.Descriptor{
		ID:              ep.Name,
		DisplayName:     ep.DisplayName,
		AttributeRouted: ep.AttributeRouted,
		RouteValues:     make([]routevalue.Entry, len(ep.RouteValues)),
		Constraints:     make([]constraint.Metadata, 0, len(ep.Constraints)),
	}
	if d.ID == "" {
		d.ID = generatedID(position, ep.DisplayName)
	}
	copy(d.RouteValues, ep.RouteValues)

	for j := range ep.Constraints {
		md, err := buildConstraint(&ep.Constraints[j])
		if err != nil {
			return nil, util.NewConfigErrorWithCause(
				fmt.Sprintf("%s.constraints[%d]", path, j), "invalid constraint", err)
		}
		d.Constraints = append(d.Constraints, md)
	}

	return d, nil
}

func buildConstraint(c *config.ConstraintConfig) (constraint.Metadata, error) {
	switch c.Kind {
	case config.ConstraintKindMethod:
		var opts []constraint.MethodOption
		if c.Stage != nil {
			opts = append(opts, constraint.WithMethodStage(*c.Stage))
		}
		if c.Preflight {
			opts = append(opts, constraint.WithPreflight())
		}
		return constraint.Direct(constraint.NewHTTPMethod(c.Methods, opts...)), nil

	case config.ConstraintKindConsumes:
		stage := constraint.ConsumesStage
		if c.Stage != nil {
			stage = *c.Stage
		}
		return constraint.Direct(constraint.NewConsumesAtStage(c.MediaTypes, stage)), nil

	case config.ConstraintKindHeader:
		h, err := constraint.NewHeader(stringMatch(c), stageOr(c, 0))
		if err != nil {
			return constraint.Metadata{}, err
		}
		return constraint.Direct(h), nil

	case config.ConstraintKindQuery:
		q, err := constraint.NewQuery(stringMatch(c), stageOr(c, 0))
		if err != nil {
			return constraint.Metadata{}, err
		}
		return constraint.Direct(q), nil

	case config.ConstraintKindExpression:
		if err := constraint.CompileExpression(c.Expression); err != nil {
			return constraint.Metadata{}, err
		}
		return constraint.FromFactory(constraint.NewExpressionFactory(c.Expression, stageOr(c, 0))), nil

	default:
		return constraint.Metadata{}, fmt.Errorf("unknown constraint kind %q", c.Kind)
	}
}

func generatedID(position int, displayName string) string {
	return uuid.NewSHA1(endpointNamespace, []byte(fmt.Sprintf("%d/%s", position, displayName))).String()
}

func stringMatch(c *config.ConstraintConfig) constraint.StringMatch {
	return constraint.StringMatch{
		Name:    c.Name,
		Exact:   c.Exact,
		Prefix:  c.Prefix,
		Regex:   c.Regex,
		Present: c.Present,
		Absent:  c.Absent,
	}
}

func stageOr(c *config.ConstraintConfig, fallback int) int {
	if c.Stage != nil {
		return *c.Stage
	}
	return fallback
}
