// Package timeintervals implements a data interface that reads a table of
// intervals from delimited text and writes it as a time-interval table.
package timeintervals

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/custodia-labs/neuroconv/internal/core/domain"
	"github.com/custodia-labs/neuroconv/internal/core/ports/driven"
	"github.com/custodia-labs/neuroconv/internal/logger"
	"github.com/custodia-labs/neuroconv/internal/schema"
)

// Kind is the registry key of the class.
const Kind = "csv-time-intervals"

const (
	startColumn = "start_time"
	stopColumn  = "stop_time"
)

var defaultColumnDescriptions = map[string]string{
	startColumn: "Start time of epoch, in seconds.",
	stopColumn:  "Stop time of epoch, in seconds.",
}

// Ensure Class implements the interface.
var _ driven.InterfaceClass = Class{}

// Class constructs time-interval interfaces.
type Class struct{}

// Kind returns the registry key.
func (Class) Kind() string { return Kind }

// Description returns a one-line summary.
func (Class) Description() string {
	return "Time intervals (trials, epochs) from a CSV or TSV table"
}

// SourceSchema returns the constructor schema.
func (Class) SourceSchema() *schema.Schema { return SourceSchema() }

// ConversionOptionsSchema returns the options schema.
func (Class) ConversionOptionsSchema() *schema.Schema { return ConversionOptionsSchema() }

// OptionDimensions returns the option declaration.
func (Class) OptionDimensions() domain.OptionDimensions { return OptionDimensions() }

// New validates config and parses the table.
func (Class) New(config any) (driven.DataInterface, error) {
	var cfg SourceConfig
	if err := schema.Decode(SourceSchema(), config, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}

	table, err := ReadFile(cfg.FilePath, cfg.ReadKwargs)
	if err != nil {
		return nil, err
	}
	if cfg.Verbose {
		logger.Debug("Loaded %d intervals with %d columns from %s",
			table.NumRows(), len(table.Columns), filepath.Base(cfg.FilePath))
	}
	return &Interface{fileName: filepath.Base(cfg.FilePath), table: table}, nil
}

// Interface is a loaded interval table.
type Interface struct {
	fileName string
	table    *Table
}

// Ensure Interface implements the interface.
var _ driven.DataInterface = (*Interface)(nil)

// Kind returns the registry key.
func (i *Interface) Kind() string { return Kind }

// Table returns the parsed table.
func (i *Interface) Table() *Table { return i.table }

// ConversionOptionsSchema returns the options schema.
func (i *Interface) ConversionOptionsSchema() *schema.Schema { return ConversionOptionsSchema() }

// Metadata proposes the default table name and description.
func (i *Interface) Metadata() domain.Metadata {
	return domain.Metadata{
		"TimeIntervals": map[string]any{
			DefaultTag: map[string]any{
				"table_name":        DefaultTag,
				"table_description": "Intervals imported from " + i.fileName + ".",
			},
		},
	}
}

// RunConversion writes the table under the name found in metadata for the tag.
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

	intervals, err := BuildIntervals(i.table, metadata, opts)
	if err != nil {
		return err
	}

	if err := target.AddTimeIntervals(ctx, intervals); err != nil {
		if errors.Is(err, domain.ErrTargetExistsConflict) {
			return fmt.Errorf("time intervals %s: %w", intervals.Name, err)
		}
		return fmt.Errorf("%w: time intervals %s: %w", domain.ErrWrite, intervals.Name, err)
	}
	return nil
}

// BuildIntervals renames and orders the table columns into an interval table.
// start_time and stop_time come first, the remaining columns keep file order.
func BuildIntervals(table *Table, metadata domain.Metadata, opts ConversionOptions) (domain.TimeIntervals, error) {
	tag := opts.Tag
	if tag == "" {
		tag = DefaultTag
	}

	for _, from := range sortedKeys(opts.ColumnNameMapping) {
		if _, ok := table.Column(from); !ok {
			return domain.TimeIntervals{}, fmt.Errorf("%w: column_name_mapping: no column %q", domain.ErrConversionOptions, from)
		}
	}

	columns := make([]Column, 0, len(table.Columns))
	seen := make(map[string]bool, len(table.Columns))
	for _, c := range table.Columns {
		if to, ok := opts.ColumnNameMapping[c.Name]; ok {
			c.Name = to
		}
		if seen[c.Name] {
			return domain.TimeIntervals{}, fmt.Errorf("%w: column_name_mapping: duplicate column %q", domain.ErrConversionOptions, c.Name)
		}
		seen[c.Name] = true
		columns = append(columns, c)
	}

	for _, name := range sortedKeys(opts.ColumnDescriptions) {
		if !seen[name] {
			return domain.TimeIntervals{}, fmt.Errorf("%w: column_descriptions: no column %q", domain.ErrConversionOptions, name)
		}
	}

	ordered := make([]domain.IntervalColumn, 0, len(columns))
	for _, required := range []string{startColumn, stopColumn} {
		c, ok := findColumn(columns, required)
		if !ok {
			return domain.TimeIntervals{}, fmt.Errorf("%w: table has no %s column", domain.ErrConversionOptions, required)
		}
		if !c.Numeric {
			return domain.TimeIntervals{}, fmt.Errorf("%w: column %s is not numeric (check column_name_mapping)", domain.ErrConversionOptions, required)
		}
		ordered = append(ordered, intervalColumn(c, opts.ColumnDescriptions))
	}
	for _, c := range columns {
		if c.Name == startColumn || c.Name == stopColumn {
			continue
		}
		ordered = append(ordered, intervalColumn(c, opts.ColumnDescriptions))
	}

	section := "TimeIntervals." + tag
	return domain.TimeIntervals{
		Name:        metadata.String(section+".table_name", tag),
		Description: metadata.String(section+".table_description", ""),
		Columns:     ordered,
	}, nil
}

func intervalColumn(c Column, descriptions map[string]string) domain.IntervalColumn {
	description, ok := descriptions[c.Name]
	if !ok {
		description = defaultColumnDescriptions[c.Name]
	}
	return domain.IntervalColumn{
		Name:        c.Name,
		Description: description,
		Values:      append([]any(nil), c.Values...),
	}
}

func findColumn(columns []Column, name string) (Column, bool) {
	for _, c := range columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
