// Package datainterfaces holds the catalog of data interface classes shipped
// with the application and the code that registers them.
package datainterfaces

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/neuroconv/internal/core/domain"
	"github.com/custodia-labs/neuroconv/internal/core/ports/driven"
	"github.com/custodia-labs/neuroconv/internal/core/ports/driving"
	"github.com/custodia-labs/neuroconv/internal/core/services"
	"github.com/custodia-labs/neuroconv/internal/schema"
)

// Ensure Catalog implements the interface.
var _ driving.Catalog = (*Catalog)(nil)

// Catalog maps interface kinds to their classes.
// Run files refer to classes by kind; the catalog turns those references into
// the plugin table handed to the converter.
type Catalog struct {
	classes map[string]driven.InterfaceClass
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		classes: make(map[string]driven.InterfaceClass),
	}
}

// Register adds a class under its kind, replacing any class already
// registered under that kind.
func (c *Catalog) Register(class driven.InterfaceClass) {
	c.classes[class.Kind()] = class
}

// Get returns the class registered under kind.
func (c *Catalog) Get(kind string) (driven.InterfaceClass, error) {
	class, ok := c.classes[kind]
	if !ok {
		return nil, fmt.Errorf("%w: kind %q (known: %v)", domain.ErrUnknownPlugin, kind, c.Kinds())
	}
	return class, nil
}

// Has returns true if a class is registered under kind.
func (c *Catalog) Has(kind string) bool {
	_, ok := c.classes[kind]
	return ok
}

// Kinds returns all registered kinds, sorted.
func (c *Catalog) Kinds() []string {
	kinds := make([]string, 0, len(c.classes))
	for kind := range c.classes {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Table builds a plugin table from bindings. The same kind may be bound
// under several names.
func (c *Catalog) Table(bindings []driving.Binding) (driven.PluginTable, error) {
	table := make(driven.PluginTable, len(bindings))
	for _, b := range bindings {
		if b.Name == "" {
			return nil, fmt.Errorf("%w: interface of kind %q has no name", domain.ErrConfiguration, b.Kind)
		}
		if _, dup := table[b.Name]; dup {
			return nil, fmt.Errorf("%w: interface name %q used twice", domain.ErrConfiguration, b.Name)
		}
		class, err := c.Get(b.Kind)
		if err != nil {
			return nil, &domain.PluginError{Plugin: b.Name, Err: err}
		}
		table[b.Name] = class
	}
	return table, nil
}

// SourceSchema returns the combined source schema of table.
func (c *Catalog) SourceSchema(table driven.PluginTable) (*schema.Schema, error) {
	return services.SourceSchema(table)
}

// ConversionOptionsSchema returns the combined options schema of table.
func (c *Catalog) ConversionOptionsSchema(table driven.PluginTable) (*schema.Schema, error) {
	return services.ConversionOptionsSchema(table)
}
