package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/neuroconv/internal/core/domain"
	"github.com/custodia-labs/neuroconv/internal/core/ports/driven"
	"github.com/custodia-labs/neuroconv/internal/core/ports/driving"
	"github.com/custodia-labs/neuroconv/internal/logger"
	"github.com/custodia-labs/neuroconv/internal/schema"
)

// Ensure Converter implements the interface.
var _ driving.Converter = (*Converter)(nil)

// Converter drives several data interfaces into one shared target.
// A Converter holds no per-run state; concurrent runs against distinct targets
// are safe.
type Converter struct {
	opener driven.TargetOpener
}

// NewConverter creates a converter that opens targets through opener.
func NewConverter(opener driven.TargetOpener) *Converter {
	return &Converter{opener: opener}
}

// Run performs one conversion.
//
// Plugins are instantiated and their metadata merged before the target is
// opened, so configuration, metadata and option errors never touch the target.
// Any failure after opening aborts the target: nothing of the run persists.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (c *Converter) Run(ctx context.Context, req driving.ConversionRequest) (*driving.ConversionResult, error) {
	if c.opener == nil {
		return nil, fmt.Errorf("open target: target opener not configured")
	}
	if err := req.Target.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger.Section("Conversion " + runID)
	logger.Info("Target: %s (%s)", describeTarget(req.Target), req.Target.Mode)

	// 1. Instantiate every plugin
	ifaces, err := Instantiate(req.SourceData, req.Plugins)
	if err != nil {
		return nil, err
	}

	// 2. Merge metadata and apply the caller override
	merged, err := MergeMetadata(ifaces, req.Metadata)
	if err != nil {
		return nil, err
	}

	// 3. Validate and default-fill options
	options, err := resolveOptions(ifaces, req.Options)
	if err != nil {
		return nil, err
	}

	session, err := SessionFromMetadata(merged)
	if err != nil {
		return nil, err
	}

	// 4. Open the shared target
	target, err := c.opener.Open(ctx, req.Target)
	if err != nil {
		return nil, fmt.Errorf("open target: %w", err)
	}
	finalized := false
	defer func() {
		if finalized {
			return
		}
		if abortErr := target.Abort(); abortErr != nil {
			logger.Warn("Aborting target: %v", abortErr)
		}
	}()

	if err := target.SetSession(ctx, session); err != nil {
		return nil, fmt.Errorf("write session: %w", err)
	}

	// 5. Write each plugin in registry order
	proposals := ifaces.Proposals()
	for i, name := range ifaces.Names() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		iface, _ := ifaces.Get(name)
		done := logger.Timed(fmt.Sprintf("[%d/%d] %s (%s)", i+1, ifaces.Len(), name, iface.Kind()))

		subtree := PluginMetadata(merged, proposals[i])
		if err := iface.RunConversion(ctx, target, subtree, options[name]); err != nil {
			return nil, attachPlugin(name, err)
		}
		done()
	}

	result := &driving.ConversionResult{
		RunID:    runID,
		Target:   req.Target,
		Plugins:  ifaces.Names(),
		Metadata: merged,
	}
	if req.Target.Mode == domain.ModeInMemory {
		doc, err := target.Document(ctx)
		if err != nil {
			return nil, fmt.Errorf("read target: %w", err)
		}
		result.Document = doc
	}

	// 6. Finalize
	if err := target.Finalize(ctx); err != nil {
		return nil, fmt.Errorf("finalize target: %w", err)
	}
	finalized = true
	if req.Target.Document != nil {
		result.Document = req.Target.Document
	}

	logger.Info("Conversion %s complete (%d plugins)", runID, ifaces.Len())
	return result, nil
}

// Metadata previews the merged metadata of a run without opening a target.
func (c *Converter) Metadata(
	_ context.Context,
	sourceData domain.SourceData,
	plugins driven.PluginTable,
	override domain.Metadata,
) (domain.Metadata, error) {
	ifaces, err := Instantiate(sourceData, plugins)
	if err != nil {
		return nil, err
	}
	return MergeMetadata(ifaces, override)
}

// resolveOptions validates each plugin's options against its own schema and
// fills declared defaults. Options for plugins outside the run are rejected.
func resolveOptions(ifaces *Interfaces, opts domain.ConversionOptions) (map[string]map[string]any, error) {
	for _, name := range sortedNames(opts) {
		if _, ok := ifaces.Get(name); !ok {
			return nil, &domain.PluginError{
				Plugin: name,
				Path:   "conversion_options",
				Err:    fmt.Errorf("%w: plugin is not part of this run", domain.ErrConversionOptions),
			}
		}
	}

	out := make(map[string]map[string]any, ifaces.Len())
	for _, name := range ifaces.Names() {
		iface, _ := ifaces.Get(name)

		var raw any
		if o, ok := opts[name]; ok && o != nil {
			raw = o
		}
		value, err := schema.Validate(iface.ConversionOptionsSchema(), raw)
		if err != nil {
			return nil, &domain.PluginError{
				Plugin: name,
				Path:   "conversion_options",
				Err:    fmt.Errorf("%w: %w", domain.ErrConversionOptions, err),
			}
		}
		resolved, ok := value.(map[string]any)
		if !ok {
			return nil, &domain.PluginError{
				Plugin: name,
				Path:   "conversion_options",
				Err:    fmt.Errorf("%w: options must be an object", domain.ErrConversionOptions),
			}
		}
		out[name] = resolved
	}
	return out, nil
}

// attachPlugin wraps err with the plugin name unless it already carries one.
func attachPlugin(name string, err error) error {
	var pe *domain.PluginError
	if errors.As(err, &pe) && pe.Plugin == name {
		return err
	}
	return &domain.PluginError{Plugin: name, Err: err}
}

func describeTarget(t domain.TargetDescriptor) string {
	if t.Mode == domain.ModeInMemory {
		return "memory"
	}
	return t.Path
}
