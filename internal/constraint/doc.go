// Package constraint defines the predicates used to disambiguate endpoints
// whose route values all match a request.
//
// A Constraint accepts or rejects a request. Constraints that implement
// Staged are evaluated at their stage; all others run at stage 0. Endpoints
// declare constraints through Metadata, which is either a ready constraint
// or a Factory realized once by the resolution cache.
//
// Built-in constraints:
//
//   - HTTPMethod (stage 100) matches the request method, with optional CORS
//     preflight support.
//   - Consumes (stage 200) matches the request Content-Type.
//   - Header and Query match a single header or query parameter.
//   - ExpressionFactory compiles a CEL expression into a constraint.
//   - Func adapts a plain function.
package constraint
