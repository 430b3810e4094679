package driven

import (
	"context"

	"github.com/custodia-labs/neuroconv/internal/core/domain"
	"github.com/custodia-labs/neuroconv/internal/schema"
)

// InterfaceClass describes a kind of data interface before it is bound to a
// source. Classes are registered by kind and looked up by the converter.
type InterfaceClass interface {
	// Kind returns the registry key of the class.
	Kind() string

	// Description returns a one-line human readable summary.
	Description() string

	// SourceSchema returns the Draft 7 schema for the constructor configuration.
	SourceSchema() *schema.Schema

	// ConversionOptionsSchema returns the Draft 7 schema for conversion options.
	// It does not depend on the bound configuration.
	ConversionOptionsSchema() *schema.Schema

	// OptionDimensions declares which options are independent and which interact.
	OptionDimensions() domain.OptionDimensions

	// New binds the class to a source. The configuration has already been
	// validated against SourceSchema and carries its defaults.
	// Returns domain.ErrSourceUnavailable if the source cannot be opened.
	New(config any) (DataInterface, error)
}

// DataInterface is a data interface bound to a single source.
type DataInterface interface {
	// Kind returns the kind of the class that created this instance.
	Kind() string

	// Metadata returns the metadata proposal derived from the source.
	// Each call returns a fresh tree the caller may modify.
	Metadata() domain.Metadata

	// ConversionOptionsSchema returns the Draft 7 schema for conversion options.
	ConversionOptionsSchema() *schema.Schema

	// RunConversion writes the source's content into target.
	//
	// metadata is the merged metadata tree relevant to this interface.
	// options have been validated and default-filled by the caller.
	// Writing the same content twice is a no-op at the target; writing
	// different content under an existing name returns
	// domain.ErrTargetExistsConflict.
	RunConversion(ctx context.Context, target DocumentWriter, metadata domain.Metadata, options map[string]any) error
}

// PluginTable maps a plugin name, as used in source data, to its class.
type PluginTable map[string]InterfaceClass
