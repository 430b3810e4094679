package spikeglx

import (
	"github.com/custodia-labs/neuroconv/internal/core/domain"
	"github.com/custodia-labs/neuroconv/internal/schema"
)

const (
	// DefaultESKey names the written time series when es_key is not set.
	DefaultESKey = "ElectricalSeriesNIDQ"

	// StubFrames is the number of frames written with stub_test.
	StubFrames = 100

	// DefaultChunkFrames is the number of frames per stored chunk with chunk_data.
	DefaultChunkFrames = 10000
)

// SourceConfig is the constructor configuration of the NIDQ interface.
type SourceConfig struct {
	FilePath string `json:"file_path"`
	ESKey    string `json:"es_key"`
	Verbose  bool   `json:"verbose"`
}

// ConversionOptions are the options of RunConversion.
type ConversionOptions struct {
	StubTest          bool    `json:"stub_test"`
	ChunkData         bool    `json:"chunk_data"`
	StartingTime      float64 `json:"starting_time"`
	ModuleName        string  `json:"module_name"`
	ModuleDescription string  `json:"module_description"`
}

// SourceSchema returns the Draft 7 schema of SourceConfig.
func SourceSchema() *schema.Schema {
	s := schema.Object("SpikeGLX NIDQ source", map[string]*schema.Schema{
		"file_path": {
			Type:        "string",
			Description: "Path to the .nidq.bin file. The .nidq.meta header must sit beside it.",
			Pattern:     `\.nidq\.bin$`,
		},
		"es_key": {
			Type:        "string",
			Description: "Name of the written time series.",
			MinLength:   schema.Int(1),
			Default:     schema.Default(DefaultESKey),
		},
		"verbose": schema.Bool("Log progress while loading.", true),
	}, "file_path")
	return s
}

// ConversionOptionsSchema returns the Draft 7 schema of ConversionOptions.
// Shared by every class built on the NIDQ write path.
func ConversionOptionsSchema() *schema.Schema {
	return schema.Object("SpikeGLX NIDQ conversion options", map[string]*schema.Schema{
		"stub_test":     schema.Bool("Write only the first frames, for quick tests.", false),
		"chunk_data":    schema.Bool("Store samples in fixed-size chunks instead of one block.", true),
		"starting_time": {Type: "number", Description: "Start of the series in seconds.", Default: schema.Default(0.0)},
		"module_name": {
			Type:        "string",
			Description: "Write into this processing module instead of acquisition.",
			MinLength:   schema.Int(1),
		},
		"module_description": schema.String("Description of the processing module."),
	})
}

// OptionDimensions declares how the conversion options interact.
// Truncation changes the frame count that chunking splits, and the module
// description only applies with a module name.
func OptionDimensions() domain.OptionDimensions {
	return domain.OptionDimensions{
		Independent: []string{"starting_time"},
		Joint: [][]string{
			{"stub_test", "chunk_data"},
			{"module_name", "module_description"},
		},
	}
}
