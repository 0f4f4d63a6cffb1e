package routevalue

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Value is a single route value: a string or an explicit null.
type Value struct {
	str   string
	valid bool
}

// Null is the explicit null route value.
var Null = Value{}

// String returns a non-null route value.
func String(s string) Value {
	return Value{str: s, valid: true}
}

// IsNull reports whether the value is the explicit null.
func (v Value) IsNull() bool {
	return !v.valid
}

// IsEmpty reports whether the value is null or the empty string.
func (v Value) IsEmpty() bool {
	return !v.valid || v.str == ""
}

// Str returns the string form of the value; null yields "".
func (v Value) Str() string {
	return v.str
}

// Equal compares two values case-insensitively. Null only equals null.
func (v Value) Equal(other Value) bool {
	if v.valid != other.valid {
		return false
	}
	return Fold(v.str) == Fold(other.str)
}

// String implements fmt.Stringer.
func (v Value) String() string {
	if !v.valid {
		return "<null>"
	}
	return v.str
}

// MarshalYAML renders null as a YAML null.
func (v Value) MarshalYAML() (interface{}, error) {
	if !v.valid {
		return nil, nil
	}
	return v.str, nil
}

// UnmarshalYAML decodes a YAML scalar; a YAML null becomes Null.
func (v *Value) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s *string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == nil {
		*v = Null
		return nil
	}
	*v = String(*s)
	return nil
}

// Fold returns the case-folded form used for every key and value comparison.
// cases.Caser is stateful, so each call gets its own.
func Fold(s string) string {
	if isLowerASCII(s) {
		return s
	}
	return cases.Fold().String(s)
}

func isLowerASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x80 || ('A' <= c && c <= 'Z') {
			return false
		}
	}
	return true
}

// Entry is one key/value pair in an ordered route-value mapping.
type Entry struct {
	Key   string
	Value Value
}

// Values is the set of route values extracted for a request. Lookups are
// case-insensitive. The zero value is an empty set.
type Values struct {
	entries []Entry
	index   map[string]int
}

// NewValues builds a Values set from a plain string map.
func NewValues(m map[string]string) Values {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var vs Values
	for _, k := range keys {
		vs.Set(k, String(m[k]))
	}
	return vs
}

// Set assigns a value to key, replacing any value stored under a key that
// folds to the same form.
func (vs *Values) Set(key string, value Value) {
	folded := Fold(key)
	if vs.index == nil {
		vs.index = make(map[string]int)
	}
	if i, ok := vs.index[folded]; ok {
		vs.entries[i].Value = value
		return
	}
	vs.index[folded] = len(vs.entries)
	vs.entries = append(vs.entries, Entry{Key: key, Value: value})
}

// Get returns the value stored for key and whether the key is present.
func (vs Values) Get(key string) (Value, bool) {
	return vs.getFolded(Fold(key))
}

// GetFolded looks up an already folded key.
func (vs Values) GetFolded(folded string) (Value, bool) {
	return vs.getFolded(folded)
}

func (vs Values) getFolded(folded string) (Value, bool) {
	i, ok := vs.index[folded]
	if !ok {
		return Null, false
	}
	return vs.entries[i].Value, true
}

// Len returns the number of keys.
func (vs Values) Len() int {
	return len(vs.entries)
}

// Entries returns the entries in insertion order.
func (vs Values) Entries() []Entry {
	out := make([]Entry, len(vs.entries))
	copy(out, vs.entries)
	return out
}

// Map returns the values as a plain map; null values map to "".
func (vs Values) Map() map[string]string {
	out := make(map[string]string, len(vs.entries))
	for _, e := range vs.entries {
		out[e.Key] = e.Value.Str()
	}
	return out
}

// String implements fmt.Stringer.
func (vs Values) String() string {
	parts := make([]string, 0, len(vs.entries))
	for _, e := range vs.entries {
		parts = append(parts, e.Key+"="+e.Value.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
