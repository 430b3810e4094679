package timeintervals

import (
	"github.com/custodia-labs/neuroconv/internal/core/domain"
	"github.com/custodia-labs/neuroconv/internal/schema"
)

// DefaultTag is the metadata key and table name used when no tag is given.
const DefaultTag = "trials"

// ReadOptions controls parsing of the delimited file.
type ReadOptions struct {
	Delimiter string `json:"delimiter"`
	Comment   string `json:"comment"`
}

// SourceConfig is the constructor configuration.
type SourceConfig struct {
	FilePath   string      `json:"file_path"`
	ReadKwargs ReadOptions `json:"read_kwargs"`
	Verbose    bool        `json:"verbose"`
}

// ConversionOptions are the per-run options.
type ConversionOptions struct {
	Tag                string            `json:"tag"`
	ColumnNameMapping  map[string]string `json:"column_name_mapping"`
	ColumnDescriptions map[string]string `json:"column_descriptions"`
}

// SourceSchema returns the Draft 7 schema of SourceConfig.
func SourceSchema() *schema.Schema {
	s := schema.Object("Time intervals source", map[string]*schema.Schema{
		"file_path": {
			Type:        "string",
			Description: "Path to a comma or tab separated file with a header row.",
			MinLength:   schema.Int(1),
		},
		"read_kwargs": schema.Ref("read_kwargs"),
		"verbose":     schema.Bool("Print progress while loading.", true),
	}, "file_path")
	s.Definitions = map[string]*schema.Schema{
		"read_kwargs": {
			Type:        "object",
			Description: "Parsing options. The delimiter defaults to tab for .tsv files and comma otherwise.",
			Properties: map[string]*schema.Schema{
				"delimiter": {Type: "string", MinLength: schema.Int(1), MaxLength: schema.Int(1)},
				"comment":   {Type: "string", MinLength: schema.Int(1), MaxLength: schema.Int(1)},
			},
			AdditionalProperties: schema.False(),
		},
	}
	return s
}

// ConversionOptionsSchema returns the Draft 7 schema of ConversionOptions.
func ConversionOptionsSchema() *schema.Schema {
	return schema.Object("Time intervals conversion options", map[string]*schema.Schema{
		"tag": {
			Type:        "string",
			Description: "Metadata key under TimeIntervals and default table name.",
			MinLength:   schema.Int(1),
			Default:     schema.Default(DefaultTag),
		},
		"column_name_mapping": {
			Type:                 "object",
			Description:          "Renames file columns, e.g. {\"begin\": \"start_time\"}.",
			AdditionalProperties: &schema.Schema{Type: "string", MinLength: schema.Int(1)},
		},
		"column_descriptions": {
			Type:                 "object",
			Description:          "Descriptions keyed by column name after renaming.",
			AdditionalProperties: &schema.Schema{Type: "string"},
		},
	})
}

// OptionDimensions declares every option independent.
func OptionDimensions() domain.OptionDimensions {
	return domain.OptionDimensions{
		Independent: []string{"tag", "column_name_mapping", "column_descriptions"},
	}
}
