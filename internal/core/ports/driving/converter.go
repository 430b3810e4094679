package driving

import (
	"context"

	"github.com/custodia-labs/neuroconv/internal/core/domain"
	"github.com/custodia-labs/neuroconv/internal/core/ports/driven"
)

// Converter orchestrates conversion runs over a plugin table.
type Converter interface {
	// Run instantiates every plugin, merges metadata, validates options and
	// writes all plugins into the shared target in source order.
	Run(ctx context.Context, req ConversionRequest) (*ConversionResult, error)

	// Metadata instantiates every plugin and returns the merged metadata
	// without writing anything.
	Metadata(ctx context.Context, sourceData domain.SourceData, plugins driven.PluginTable, override domain.Metadata) (domain.Metadata, error)
}

// ConversionRequest describes one conversion run.
type ConversionRequest struct {
	// SourceData is the ordered plugin configuration.
	SourceData domain.SourceData

	// Plugins maps each plugin name to its class.
	Plugins driven.PluginTable

	// Metadata is the user override tree. It wins over every proposal.
	Metadata domain.Metadata

	// Options holds per-plugin conversion options.
	Options domain.ConversionOptions

	// Target is the shared output.
	Target domain.TargetDescriptor
}

// ConversionResult reports a completed run.
type ConversionResult struct {
	// RunID uniquely identifies this run in logs.
	RunID string

	// Target echoes the descriptor the run wrote to.
	Target domain.TargetDescriptor

	// Plugins lists the plugins written, in order.
	Plugins []string

	// Metadata is the merged metadata used for the run.
	Metadata domain.Metadata

	// Document is the live document for in-memory runs; nil otherwise.
	Document *domain.Document
}
