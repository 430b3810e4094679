package timeintervals

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/neuroconv/internal/core/domain"
)

// Column is one parsed column. Values hold float64 cells when every cell
// parses as a finite number, and string cells otherwise.
type Column struct {
	Name    string
	Numeric bool
	Values  []any
}

// Table is a parsed delimited text file.
type Table struct {
	Columns []Column
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// Column returns the named column.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// DefaultDelimiter returns the delimiter implied by the file extension:
// tab for .tsv and .tab files, comma otherwise.
func DefaultDelimiter(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".tab":
		return "\t"
	default:
		return ","
	}
}

// ReadFile parses the delimited file at path.
func ReadFile(path string, opts ReadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	defer f.Close()

	if opts.Delimiter == "" {
		opts.Delimiter = DefaultDelimiter(path)
	}
	table, err := Read(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return table, nil
}

// Read parses delimited text. The first record is the header.
func Read(r io.Reader, opts ReadOptions) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	if opts.Delimiter != "" {
		d, err := singleRune(opts.Delimiter)
		if err != nil {
			return nil, fmt.Errorf("%w: delimiter: %w", domain.ErrSourceUnavailable, err)
		}
		reader.Comma = d
	}
	if opts.Comment != "" {
		c, err := singleRune(opts.Comment)
		if err != nil {
			return nil, fmt.Errorf("%w: comment: %w", domain.ErrSourceUnavailable, err)
		}
		reader.Comment = c
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: missing header row", domain.ErrSourceUnavailable)
	}

	header := records[0]
	seen := make(map[string]bool, len(header))
	table := &Table{Columns: make([]Column, len(header))}
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("%w: column %d has no name", domain.ErrSourceUnavailable, i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate column %q", domain.ErrSourceUnavailable, name)
		}
		seen[name] = true
		table.Columns[i] = Column{Name: name}
	}

	rows := records[1:]
	for i := range table.Columns {
		table.Columns[i] = inferColumn(table.Columns[i].Name, rows, i)
	}
	return table, nil
}

func inferColumn(name string, rows [][]string, idx int) Column {
	numbers := make([]any, len(rows))
	numeric := true
	for r, row := range rows {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			numeric = false
			break
		}
		numbers[r] = v
	}
	if numeric {
		return Column{Name: name, Numeric: true, Values: numbers}
	}

	cells := make([]any, len(rows))
	for r, row := range rows {
		cells[r] = row[idx]
	}
	return Column{Name: name, Values: cells}
}

func singleRune(s string) (rune, error) {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size != len(s) {
		return 0, errors.New("must be a single character")
	}
	return r, nil
}
