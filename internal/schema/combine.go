package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const definitionsPrefix = "#/definitions/"

// Combine builds one Draft 7 object schema whose properties are the given
// parts. Each part's definitions are hoisted into the combined document under
// "<property>.<definition>" and its $refs are rewritten to match, so every
// reference still resolves from the new root.
func Combine(title string, parts map[string]*Schema, required ...string) (*Schema, error) {
	props := make(map[string]*Schema, len(parts))
	defs := make(map[string]*Schema)

	names := make([]string, 0, len(parts))
	for name := range parts {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		part, err := copySchema(parts[name])
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidSchema, name, err)
		}
		part.Schema = ""

		prefix := name + "."
		partDefs := part.Definitions
		part.Definitions = nil

		rewrite := func(s *Schema, _ string) error {
			if strings.HasPrefix(s.Ref, definitionsPrefix) {
				s.Ref = definitionsPrefix + escapePointer(prefix+strings.TrimPrefix(s.Ref, definitionsPrefix))
			}
			return nil
		}
		if err := walk(part, "#", rewrite); err != nil {
			return nil, err
		}
		for defName, def := range partDefs {
			if err := walk(def, "#", rewrite); err != nil {
				return nil, err
			}
			defs[prefix+defName] = def
		}
		props[name] = part
	}

	out := Object(title, props, required...)
	if len(defs) > 0 {
		out.Definitions = defs
	}
	return out, nil
}

// copySchema deep-copies s through its JSON form.
func copySchema(s *Schema) (*Schema, error) {
	if s == nil {
		return &Schema{}, nil
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var out Schema
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func escapePointer(s string) string {
	return strings.NewReplacer("~", "~0", "/", "~1").Replace(s)
}
