package schema

import (
	"encoding/json"
	"fmt"
	"sort"
)

// draft7Types are the simple types of the Draft 7 meta-schema.
var draft7Types = map[string]bool{
	"array":   true,
	"boolean": true,
	"integer": true,
	"null":    true,
	"number":  true,
	"object":  true,
	"string":  true,
}

// Check reports whether s is a legal Draft 7 schema document.
//
// The document must declare the Draft 7 meta-schema, survive a JSON round trip
// through the schema type, use only Draft 7 simple types, carry unique
// "required" entries, resolve every $ref, and have defaults that validate.
func Check(s *Schema) error {
	if s == nil {
		return fmt.Errorf("%w: nil schema", ErrInvalidSchema)
	}
	if s.Schema != Draft7 {
		return fmt.Errorf("%w: $schema is %q, want %q", ErrInvalidSchema, s.Schema, Draft7)
	}

	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("%w: encoding: %w", ErrInvalidSchema, err)
	}
	var decoded Schema
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("%w: decoding: %w", ErrInvalidSchema, err)
	}

	if err := walk(&decoded, "#", checkKeywords); err != nil {
		return err
	}

	_, err = resolve(&decoded)
	return err
}

// MustCheck panics if s is not a legal Draft 7 schema.
// Used when plugin schemas are built at package initialisation.
func MustCheck(s *Schema) *Schema {
	if err := Check(s); err != nil {
		panic(err)
	}
	return s
}

func checkKeywords(s *Schema, path string) error {
	types := s.Types
	if s.Type != "" {
		types = append([]string{s.Type}, types...)
	}
	for _, t := range types {
		if !draft7Types[t] {
			return fmt.Errorf("%w: %s: unknown type %q", ErrInvalidSchema, path, t)
		}
	}

	seen := make(map[string]bool, len(s.Required))
	for _, r := range s.Required {
		if seen[r] {
			return fmt.Errorf("%w: %s: duplicate required property %q", ErrInvalidSchema, path, r)
		}
		seen[r] = true
	}

	if s.Minimum != nil && s.Maximum != nil && *s.Minimum > *s.Maximum {
		return fmt.Errorf("%w: %s: minimum exceeds maximum", ErrInvalidSchema, path)
	}
	if s.MinItems != nil && *s.MinItems < 0 {
		return fmt.Errorf("%w: %s: negative minItems", ErrInvalidSchema, path)
	}
	return nil
}

// walk visits s and every subschema reachable through Draft 7 keywords.
func walk(s *Schema, path string, visit func(*Schema, string) error) error {
	if s == nil {
		return nil
	}
	if err := visit(s, path); err != nil {
		return err
	}

	for _, name := range sortedKeys(s.Properties) {
		if err := walk(s.Properties[name], path+"/properties/"+name, visit); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(s.Definitions) {
		if err := walk(s.Definitions[name], path+"/definitions/"+name, visit); err != nil {
			return err
		}
	}
	for _, name := range sortedKeys(s.PatternProperties) {
		if err := walk(s.PatternProperties[name], path+"/patternProperties/"+name, visit); err != nil {
			return err
		}
	}

	single := []struct {
		key string
		sub *Schema
	}{
		{"items", s.Items},
		{"additionalProperties", s.AdditionalProperties},
		{"propertyNames", s.PropertyNames},
		{"contains", s.Contains},
		{"not", s.Not},
		{"if", s.If},
		{"then", s.Then},
		{"else", s.Else},
	}
	for _, kw := range single {
		if err := walk(kw.sub, path+"/"+kw.key, visit); err != nil {
			return err
		}
	}

	lists := []struct {
		key  string
		subs []*Schema
	}{
		{"allOf", s.AllOf},
		{"anyOf", s.AnyOf},
		{"oneOf", s.OneOf},
	}
	for _, kw := range lists {
		for i, sub := range kw.subs {
			if err := walk(sub, fmt.Sprintf("%s/%s/%d", path, kw.key, i), visit); err != nil {
				return err
			}
		}
	}
	return nil
}

func sortedKeys(m map[string]*Schema) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
