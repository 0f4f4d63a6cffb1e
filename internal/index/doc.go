// Package index implements the candidate index: a decision tree over route
// values that returns, in registration order, the endpoints whose expected
// route values are compatible with a request's.
//
// Each level of the tree branches on one route-value key. A node has one
// child per concrete expected value, one for the explicit null class and a
// catch-all child for endpoints that do not constrain the key. A query
// follows the branch for the request's value together with the catch-all.
//
// Attribute-routed endpoints are never inserted.
package index
