package services

import (
	"github.com/custodia-labs/neuroconv/internal/core/ports/driven"
	"github.com/custodia-labs/neuroconv/internal/schema"
)

// SourceSchema returns the combined source schema of a plugin table: one
// required property per plugin name holding that plugin's source schema.
func SourceSchema(plugins driven.PluginTable) (*schema.Schema, error) {
	parts := make(map[string]*schema.Schema, len(plugins))
	for name, class := range plugins {
		parts[name] = class.SourceSchema()
	}
	return schema.Combine("Source data", parts, sortedNames(plugins)...)
}

// ConversionOptionsSchema returns the combined conversion options schema of a
// plugin table. Every plugin entry is optional.
func ConversionOptionsSchema(plugins driven.PluginTable) (*schema.Schema, error) {
	parts := make(map[string]*schema.Schema, len(plugins))
	for name, class := range plugins {
		parts[name] = class.ConversionOptionsSchema()
	}
	return schema.Combine("Conversion options", parts)
}
