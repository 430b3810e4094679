package driving

import (
	"github.com/custodia-labs/neuroconv/internal/core/ports/driven"
	"github.com/custodia-labs/neuroconv/internal/schema"
)

// Binding ties a plugin name used in a run to a registered kind.
type Binding struct {
	Name string
	Kind string
}

// Catalog lists the data interface kinds available to the application.
type Catalog interface {
	// Kinds returns every registered kind, sorted.
	Kinds() []string

	// Get returns the class registered under kind.
	Get(kind string) (driven.InterfaceClass, error)

	// Table builds a plugin table from name/kind bindings.
	Table(bindings []Binding) (driven.PluginTable, error)

	// SourceSchema returns the combined source schema of a plugin table.
	SourceSchema(table driven.PluginTable) (*schema.Schema, error)

	// ConversionOptionsSchema returns the combined options schema of a plugin table.
	ConversionOptionsSchema(table driven.PluginTable) (*schema.Schema, error)
}
