package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/avadispatch/internal/observability"
	"github.com/vyrodovalexey/avadispatch/internal/routevalue"
	"github.com/vyrodovalexey/avadispatch/internal/selector"
	"github.com/vyrodovalexey/avadispatch/internal/util"
)

// DispatchSpanName is the span wrapping each selection.
const DispatchSpanName = "dispatch.select"

var routeParams = []string{"controller", "action", "id"}

// RouteValues extracts the route values of a request handled by one of the
// dispatch routes.
func RouteValues(c *gin.Context) routevalue.Values {
	var values routevalue.Values
	for _, name := range routeParams {
		if v := c.Param(name); v != "" {
			values.Set(name, routevalue.String(v))
		}
	}
	if area, ok := c.GetQuery("area"); ok {
		values.Set("area", routevalue.String(area))
	}
	return values
}

func (s *Server) handleDispatch(c *gin.Context) {
	values := RouteValues(c)

	req := c.Request
	var span trace.Span
	if s.tracer != nil {
		var ctx context.Context
		ctx, span = s.tracer.StartSpan(req.Context(), DispatchSpanName,
			trace.WithAttributes(attribute.String("dispatch.route_values", values.String())))
		defer span.End()
		req = req.WithContext(ctx)
	}

	result, err := s.dispatcher.Dispatch(req, values)
	if span != nil {
		annotateSpan(span, result, err)
	}

	var ambiguous *util.AmbiguousMatchError
	switch {
	case errors.As(err, &ambiguous):
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     "Ambiguous Match",
			"message":   err.Error(),
			"endpoints": ambiguous.Names,
		})
	case err != nil:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal Server Error",
			"message": err.Error(),
		})
	case result == nil || result.Endpoint == nil:
		c.JSON(http.StatusNotFound, gin.H{
			"error":       "Not Found",
			"message":     "No endpoint matched the request",
			"routeValues": values.Map(),
		})
	default:
		c.JSON(http.StatusOK, gin.H{
			"endpoint":    result.Endpoint.ID,
			"displayName": result.Endpoint.Name(),
			"routeValues": values.Map(),
		})
	}
}

func annotateSpan(span trace.Span, result *selector.Result, err error) {
	var ambiguous *util.AmbiguousMatchError
	switch {
	case errors.As(err, &ambiguous):
		span.SetAttributes(
			attribute.String("dispatch.outcome", observability.OutcomeAmbiguous),
			attribute.StringSlice("dispatch.ambiguous", ambiguous.Names),
		)
		span.SetStatus(codes.Error, "ambiguous match")
	case err != nil:
		span.SetAttributes(attribute.String("dispatch.outcome", observability.OutcomeError))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	default:
		span.SetAttributes(
			attribute.String("dispatch.outcome", result.Outcome),
			attribute.Int("dispatch.candidates", result.Candidates),
			attribute.Int64("dispatch.version", int64(result.Version)),
		)
		if result.Endpoint != nil {
			span.SetAttributes(attribute.String("dispatch.endpoint", result.Endpoint.ID))
		}
	}
}
