package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Metadata is a nested, JSON-compatible metadata tree.
// Top-level keys are sections such as "NWBFile", "Devices" or "TimeSeries".
type Metadata map[string]any

// NormaliseMetadata converts any JSON-compatible tree into plain JSON values
// (map[string]any, []any, float64, string, bool, nil).
// Values coming from TOML or YAML decoders (int64, time types, typed maps) are
// normalised so that equality checks behave the same for every source.
func NormaliseMetadata(v any) (Metadata, error) {
	if v == nil {
		return Metadata{}, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding metadata: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decoding metadata: %w", err)
	}
	if m == nil {
		m = map[string]any{}
	}
	return Metadata(m), nil
}

// Clone returns a deep copy of the tree.
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies a metadata value.
func CloneValue(v any) any {
	switch t := v.(type) {
	case Metadata:
		return t.Clone()
	case map[string]any:
		return map[string]any(Metadata(t).Clone())
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = CloneValue(t[i])
		}
		return out
	default:
		return v
	}
}

// Section returns the named top-level section as a tree.
// Returns an empty tree when the section is absent or not a mapping.
func (m Metadata) Section(name string) Metadata {
	if sub, ok := AsMap(m[name]); ok {
		return sub
	}
	return Metadata{}
}

// Lookup walks a dotted path. The second result reports whether the path exists.
func (m Metadata) Lookup(path string) (any, bool) {
	var cur any = map[string]any(m)
	for _, seg := range SplitPath(path) {
		node, ok := AsMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = node[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// String returns the string at path, or def if it is absent or not a string.
func (m Metadata) String(path, def string) string {
	v, ok := m.Lookup(path)
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}

// Keys returns the sorted top-level keys.
func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AsMap reports whether v is a mapping node and returns it as Metadata.
func AsMap(v any) (Metadata, bool) {
	switch t := v.(type) {
	case Metadata:
		return t, true
	case map[string]any:
		return Metadata(t), true
	default:
		return nil, false
	}
}

// JoinPath joins path segments with dots.
func JoinPath(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

// SplitPath splits a dotted path into segments.
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}
