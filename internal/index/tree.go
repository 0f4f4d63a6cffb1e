package index

import (
	"sort"

	"github.com/vyrodovalexey/avadispatch/internal/endpoint"
	"github.com/vyrodovalexey/avadispatch/internal/routevalue"
)

// Tree is an immutable candidate index built from one collection version.
type Tree struct {
	version uint64
	root    *node
	size    int
	keys    []string
}

type node struct {
	// key is the folded route-value key this node branches on; leaves have
	// no key.
	key      string
	branches map[string]*node
	null     *node
	any      *node
	items    []entry
}

type entry struct {
	order int
	desc  *endpoint.Descriptor
}

type pending struct {
	entry
	expected map[string]expectation
}

// expectation is an endpoint's requirement for one key.
type expectation struct {
	null  bool
	value string
}

type keyStats struct {
	key         string
	values      map[expectation]struct{}
	constrained int
}

// Build indexes every endpoint in c that is not attribute-routed.
func Build(c *endpoint.Collection) *Tree {
	t := &Tree{}
	if c == nil {
		return t
	}
	t.version = c.Version

	stats := make(map[string]*keyStats)
	items := make([]pending, 0, len(c.Items))

	for i, d := range c.Items {
		if d == nil || d.AttributeRouted {
			continue
		}
		expected, ok := expectations(d)
		if !ok {
			// Conflicting values for the same key can never match.
			continue
		}
		items = append(items, pending{entry: entry{order: i, desc: d}, expected: expected})

		for key, exp := range expected {
			ks := stats[key]
			if ks == nil {
				ks = &keyStats{key: key, values: make(map[expectation]struct{})}
				stats[key] = ks
			}
			ks.values[exp] = struct{}{}
			ks.constrained++
		}
	}

	t.keys = orderKeys(stats)
	t.size = len(items)
	t.root = build(items, t.keys)
	return t
}

func expectations(d *endpoint.Descriptor) (map[string]expectation, bool) {
	out := make(map[string]expectation, len(d.RouteValues))
	for _, rv := range d.RouteValues {
		var exp expectation
		if rv.Value.IsEmpty() {
			exp.null = true
		} else {
			exp.value = routevalue.Fold(rv.Value.Str())
		}

		key := routevalue.Fold(rv.Key)
		if prev, seen := out[key]; seen && prev != exp {
			return nil, false
		}
		out[key] = exp
	}
	return out, true
}

// orderKeys puts the most discriminating keys first: more distinct expected
// values, then more constraining endpoints, then key name.
func orderKeys(stats map[string]*keyStats) []string {
	all := make([]*keyStats, 0, len(stats))
	for _, ks := range stats {
		all = append(all, ks)
	}
	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if len(a.values) != len(b.values) {
			return len(a.values) > len(b.values)
		}
		if a.constrained != b.constrained {
			return a.constrained > b.constrained
		}
		return a.key < b.key
	})

	keys := make([]string, len(all))
	for i, ks := range all {
		keys[i] = ks.key
	}
	return keys
}

func build(items []pending, keys []string) *node {
	if len(items) == 0 {
		return nil
	}

	for len(keys) > 0 && !constrains(items, keys[0]) {
		keys = keys[1:]
	}
	if len(keys) == 0 {
		leaf := &node{items: make([]entry, len(items))}
		for i, p := range items {
			leaf.items[i] = p.entry
		}
		sort.Slice(leaf.items, func(i, j int) bool {
			return leaf.items[i].order < leaf.items[j].order
		})
		return leaf
	}

	key := keys[0]
	byValue := make(map[string][]pending)
	var null, anyValue []pending

	for _, p := range items {
		exp, ok := p.expected[key]
		switch {
		case !ok:
			anyValue = append(anyValue, p)
		case exp.null:
			null = append(null, p)
		default:
			byValue[exp.value] = append(byValue[exp.value], p)
		}
	}

	n := &node{
		key:  key,
		null: build(null, keys[1:]),
		any:  build(anyValue, keys[1:]),
	}
	if len(byValue) > 0 {
		n.branches = make(map[string]*node, len(byValue))
		for value, group := range byValue {
			n.branches[value] = build(group, keys[1:])
		}
	}
	return n
}

func constrains(items []pending, key string) bool {
	for _, p := range items {
		if _, ok := p.expected[key]; ok {
			return true
		}
	}
	return false
}

// Version returns the collection version the tree was built from.
func (t *Tree) Version() uint64 {
	return t.version
}

// Len returns the number of indexed endpoints.
func (t *Tree) Len() int {
	return t.size
}

// Keys returns the folded route-value keys in branching order.
func (t *Tree) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Select returns the endpoints compatible with values in registration order.
// A key the request omits, or supplies as null or empty, only matches
// endpoints that expect null for it or do not constrain it.
func (t *Tree) Select(values routevalue.Values) []*endpoint.Descriptor {
	if t.root == nil {
		return nil
	}

	var found []entry
	collect(t.root, values, &found)
	if len(found) == 0 {
		return nil
	}

	sort.Slice(found, func(i, j int) bool {
		return found[i].order < found[j].order
	})

	out := make([]*endpoint.Descriptor, len(found))
	for i, e := range found {
		out[i] = e.desc
	}
	return out
}

func collect(n *node, values routevalue.Values, found *[]entry) {
	if n == nil {
		return
	}
	if n.key == "" {
		*found = append(*found, n.items...)
		return
	}

	v, ok := values.GetFolded(n.key)
	if !ok || v.IsEmpty() {
		collect(n.null, values, found)
	} else {
		collect(n.branches[routevalue.Fold(v.Str())], values, found)
	}
	collect(n.any, values, found)
}
