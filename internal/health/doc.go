// Package health provides liveness and readiness endpoints for the
// dispatcher.
//
// Liveness reports that the process is up. Readiness runs every
// registered check and reports unhealthy until an endpoint collection has
// been published, and again once the dispatcher starts draining.
//
//	checker := health.NewChecker(version)
//	checker.RegisterCheck("endpoints", health.CollectionCheck(store))
//
//	engine.GET("/healthz", checker.LivenessHandler())
//	engine.GET("/readyz", checker.ReadinessHandler())
package health
