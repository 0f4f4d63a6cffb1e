// Package endpoint holds endpoint descriptors and the versioned, immutable
// collections they are published in.
//
// A Store publishes collections atomically: readers always observe one fully
// built Collection, and every publish produces a new, strictly greater
// version. Derived structures (candidate index, constraint resolution cache)
// key their state on Collection.Version and rebuild lazily when it changes.
package endpoint
