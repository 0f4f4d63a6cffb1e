// Package routevalue models the route values a request carries into
// endpoint selection.
//
// A route value is either a string or an explicit null. Keys and string
// values compare case-insensitively using full Unicode case folding, so
// "Controller"="HOME" and "controller"="home" describe the same assignment.
//
// A request that does not carry a key and a request that carries the key
// with a null or empty value are treated alike by endpoint selection: both
// satisfy an endpoint that expects null and neither satisfies an endpoint
// that expects a concrete value.
package routevalue
