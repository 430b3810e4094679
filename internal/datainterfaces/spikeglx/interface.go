package spikeglx

import (
	"context"
	"fmt"

	"github.com/custodia-labs/neuroconv/internal/core/domain"
	"github.com/custodia-labs/neuroconv/internal/core/ports/driven"
	"github.com/custodia-labs/neuroconv/internal/logger"
	"github.com/custodia-labs/neuroconv/internal/schema"
)

// Kind is the registry key of the NIDQ class.
const Kind = "spikeglx-nidq"

// Ensure the class and interface implement the ports.
var (
	_ driven.InterfaceClass = Class{}
	_ driven.DataInterface  = (*Interface)(nil)
)

// Class is the SpikeGLX NIDQ interface class.
type Class struct{}

// Kind returns the registry key.
func (Class) Kind() string { return Kind }

// Description returns a one-line summary.
func (Class) Description() string {
	return "SpikeGLX NIDQ board recording (.nidq.bin + .nidq.meta)"
}

// SourceSchema returns the constructor schema.
func (Class) SourceSchema() *schema.Schema { return SourceSchema() }

// ConversionOptionsSchema returns the options schema.
func (Class) ConversionOptionsSchema() *schema.Schema { return ConversionOptionsSchema() }

// OptionDimensions returns the option interaction declaration.
func (Class) OptionDimensions() domain.OptionDimensions { return OptionDimensions() }

// New loads the recording named by config.
func (Class) New(config any) (driven.DataInterface, error) {
	var cfg SourceConfig
	if err := schema.Decode(SourceSchema(), config, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	if cfg.Verbose {
		logger.Info("Loading NIDQ recording %s", cfg.FilePath)
	}
	return NewInterface(Kind, cfg.ESKey, FileLoader(cfg.FilePath))
}

// Interface is a NIDQ interface bound to one recording.
type Interface struct {
	kind      string
	esKey     string
	recording *Recording
}

// NewInterface loads a recording through load and binds it.
// kind is reported by the interface so that classes sharing this write path
// keep their own identity.
func NewInterface(kind, esKey string, load LoaderFunc) (*Interface, error) {
	if load == nil {
		return nil, fmt.Errorf("%w: no recording loader", domain.ErrSourceUnavailable)
	}
	if esKey == "" {
		esKey = DefaultESKey
	}
	rec, err := load()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return &Interface{kind: kind, esKey: esKey, recording: rec}, nil
}

// Kind returns the kind of the creating class.
func (i *Interface) Kind() string { return i.kind }

// Recording returns the bound recording.
func (i *Interface) Recording() *Recording { return i.recording }

// ConversionOptionsSchema returns the options schema.
func (i *Interface) ConversionOptionsSchema() *schema.Schema { return ConversionOptionsSchema() }

// Metadata proposes the session start time, the NIDQ board device and the
// time series description. Header fields that are absent are omitted.
func (i *Interface) Metadata() domain.Metadata {
	md := domain.Metadata{}
	meta := i.recording.Meta

	if start := meta[metaFileCreateTime]; start != "" {
		md["NWBFile"] = map[string]any{"session_start_time": start}
	}

	description := "A NIDQ board used in conjunction with SpikeGLX."
	if product := meta[metaProductName]; product != "" {
		description += " Model: " + product + "."
	}
	md["Devices"] = []any{
		map[string]any{
			"name":         "NIDQBoard",
			"description":  description,
			"manufacturer": "National Instruments",
		},
	}

	md["TimeSeries"] = map[string]any{
		i.esKey: map[string]any{
			"name":        i.esKey,
			"description": "Raw acquisition traces from the NIDQ (.nidq.bin) channels.",
		},
	}
	return md
}

// RunConversion writes the devices and the recording into target.
func (i *Interface) RunConversion(
	ctx context.Context,
	target driven.DocumentWriter,
	metadata domain.Metadata,
	options map[string]any,
) error {
	var opts ConversionOptions
	if err := schema.Decode(ConversionOptionsSchema(), options, &opts); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConversionOptions, err)
	}
	return WriteRecording(ctx, target, i.recording, i.esKey, metadata, opts)
}
