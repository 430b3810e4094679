package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Domain errors represent conversion failures.
// Every failure of a run wraps exactly one of the conversion sentinels so callers
// can branch with errors.Is.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Conversion Errors.

	// ErrConfiguration indicates raw plugin configuration failed its source schema.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrUnknownPlugin indicates a source data name has no registered plugin.
	ErrUnknownPlugin = errors.New("unknown plugin")

	// ErrSourceUnavailable indicates the underlying source could not be opened or read.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrMetadataConflict indicates plugins proposed divergent metadata values
	// that no caller override resolved.
	ErrMetadataConflict = errors.New("metadata conflict")

	// ErrConversionOptions indicates conversion options failed their schema.
	ErrConversionOptions = errors.New("invalid conversion options")

	// ErrTargetExistsConflict indicates the target already holds incompatible content.
	ErrTargetExistsConflict = errors.New("target exists conflict")

	// ErrWrite indicates an I/O failure while writing into the target.
	ErrWrite = errors.New("write failed")
)

// PluginError attaches the offending plugin name, and optionally the failing
// path inside its configuration or options, to an underlying error.
type PluginError struct {
	Plugin string
	Path   string
	Err    error
}

func (e *PluginError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("plugin %q: %s: %v", e.Plugin, e.Path, e.Err)
	}
	return fmt.Sprintf("plugin %q: %v", e.Plugin, e.Err)
}

// Unwrap returns the underlying error.
func (e *PluginError) Unwrap() error {
	return e.Err
}

// PluginName returns the name of the plugin an error is attributed to.
// Returns empty string and false if no plugin is attached.
func PluginName(err error) (string, bool) {
	var pe *PluginError
	if errors.As(err, &pe) {
		return pe.Plugin, true
	}
	return "", false
}

// MetadataConflict describes one unresolved metadata path.
type MetadataConflict struct {
	// Path is the dotted path of the conflicting key, e.g. "NWBFile.session_start_time".
	Path string
	// Plugins lists the plugins that proposed values, in registry order.
	Plugins []string
	// Values lists the proposed values, aligned with Plugins.
	Values []any
}

// MetadataConflictError reports every conflict left after the caller override.
type MetadataConflictError struct {
	Conflicts []MetadataConflict
}

func (e *MetadataConflictError) Error() string {
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		parts = append(parts, fmt.Sprintf("%s (proposed by %s)", c.Path, strings.Join(c.Plugins, ", ")))
	}
	sort.Strings(parts)
	return fmt.Sprintf("%v: %s", ErrMetadataConflict, strings.Join(parts, "; "))
}

// Unwrap returns ErrMetadataConflict.
func (e *MetadataConflictError) Unwrap() error {
	return ErrMetadataConflict
}

// Paths returns the conflicting paths.
func (e *MetadataConflictError) Paths() []string {
	paths := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		paths = append(paths, c.Path)
	}
	return paths
}
