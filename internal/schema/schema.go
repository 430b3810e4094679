// Package schema provides JSON Schema (Draft 7) helpers shared by every data
// interface: schema construction, legality checks, instance validation with
// default filling, and decoding of validated values into typed structs.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/mitchellh/mapstructure"
)

// Draft7 is the meta-schema URI every plugin schema declares.
const Draft7 = "http://json-schema.org/draft-07/schema#"

// Schema is the JSON Schema document type used across the repository.
type Schema = jsonschema.Schema

// ErrInvalidSchema indicates a schema is not a legal Draft 7 document.
var ErrInvalidSchema = errors.New("invalid schema")

// ErrInvalidInstance indicates a value failed validation against a schema.
var ErrInvalidInstance = errors.New("instance does not match schema")

// Object returns a Draft 7 object schema with the given properties.
// Unknown properties are rejected.
func Object(title string, properties map[string]*Schema, required ...string) *Schema {
	return &Schema{
		Schema:               Draft7,
		Title:                title,
		Type:                 "object",
		Properties:           properties,
		Required:             required,
		AdditionalProperties: False(),
	}
}

// False returns the schema that matches nothing.
func False() *Schema {
	return &Schema{Not: &Schema{}}
}

// String returns a string property schema.
func String(description string) *Schema {
	return &Schema{Type: "string", Description: description}
}

// Bool returns a boolean property schema with a default.
func Bool(description string, def bool) *Schema {
	return &Schema{Type: "boolean", Description: description, Default: Default(def)}
}

// Number returns a number property schema.
func Number(description string) *Schema {
	return &Schema{Type: "number", Description: description}
}

// Ref returns a schema referencing a definition of the enclosing document.
func Ref(definition string) *Schema {
	return &Schema{Ref: "#/definitions/" + definition}
}

// Default encodes a default value.
func Default(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("schema default %v: %v", v, err))
	}
	return raw
}

// Float returns a pointer to f, for Minimum/Maximum keywords.
func Float(f float64) *float64 {
	return &f
}

// Int returns a pointer to i, for length keywords.
func Int(i int) *int {
	return &i
}

// Validate checks instance against s after filling declared defaults.
// It returns the normalised, default-filled value.
// A nil instance validates as an empty object when s describes an object.
func Validate(s *Schema, instance any) (any, error) {
	resolved, err := resolve(s)
	if err != nil {
		return nil, err
	}

	value, err := normalise(instance)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInstance, err)
	}
	if value == nil && s.Type == "object" {
		value = map[string]any{}
	}

	if obj, ok := value.(map[string]any); ok {
		if err := resolved.ApplyDefaults(&obj); err != nil {
			return nil, fmt.Errorf("%w: applying defaults: %w", ErrInvalidInstance, err)
		}
		value = obj
	}

	if err := resolved.Validate(value); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInstance, err)
	}
	return value, nil
}

// Decode validates instance against s and decodes the default-filled result
// into out, which must be a pointer to a struct tagged with json names.
func Decode(s *Schema, instance any, out any) error {
	value, err := Validate(s, instance)
	if err != nil {
		return err
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}
	if err := decoder.Decode(value); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidInstance, err)
	}
	return nil
}

// resolve prepares s for validation. The $schema keyword is checked by Check
// and stripped here so resolution only depends on the vocabulary in use.
func resolve(s *Schema) (*jsonschema.Resolved, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil schema", ErrInvalidSchema)
	}
	root := *s
	root.Schema = ""
	resolved, err := root.Resolve(&jsonschema.ResolveOptions{ValidateDefaults: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	return resolved, nil
}

// normalise converts decoder output (TOML, YAML, Go literals) into plain JSON values.
func normalise(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
