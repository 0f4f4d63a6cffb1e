package endpoint

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Collection is an immutable, versioned set of descriptors. Slice order is
// registration order.
type Collection struct {
	Version uint64
	Items   []*Descriptor
}

// Len returns the number of descriptors.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Items)
}

// Source provides the current endpoint collection.
type Source interface {
	Collection() *Collection
}

// Store is a Source whose collection can be replaced atomically.
type Store struct {
	current atomic.Pointer[Collection]
	mu      sync.Mutex
}

// NewStore creates a store holding an empty collection at version 0.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(&Collection{})
	return s
}

// Collection returns the current collection. It never returns nil.
func (s *Store) Collection() *Collection {
	return s.current.Load()
}

// Publish replaces the collection with descriptors and returns the new
// version. Descriptors must have unique, non-empty IDs.
func (s *Store) Publish(descriptors []*Descriptor) (uint64, error) {
	seen := make(map[string]struct{}, len(descriptors))
	for i, d := range descriptors {
		if d == nil {
			return 0, fmt.Errorf("descriptor %d is nil", i)
		}
		if d.ID == "" {
			return 0, fmt.Errorf("descriptor %d has an empty id", i)
		}
		if _, dup := seen[d.ID]; dup {
			return 0, fmt.Errorf("duplicate endpoint id: %s", d.ID)
		}
		seen[d.ID] = struct{}{}
	}

	items := make([]*Descriptor, len(descriptors))
	copy(items, descriptors)

	s.mu.Lock()
	defer s.mu.Unlock()

	next := &Collection{
		Version: s.current.Load().Version + 1,
		Items:   items,
	}
	s.current.Store(next)
	return next.Version, nil
}

// Static is a Source that always returns the same collection.
type Static struct {
	c *Collection
}

// NewStatic wraps descriptors in a version-1 collection.
func NewStatic(descriptors ...*Descriptor) *Static {
	return &Static{c: &Collection{Version: 1, Items: descriptors}}
}

// Collection implements Source.
func (s *Static) Collection() *Collection {
	return s.c
}
