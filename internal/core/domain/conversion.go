package domain

import (
	"fmt"
	"strings"
)

// SourceEntry is one plugin's raw configuration within a run.
type SourceEntry struct {
	// Name identifies the plugin within the run and keys the plugin table.
	Name string
	// Config is the raw, JSON-compatible configuration for the plugin.
	Config any
}

// SourceData is the ordered mapping of plugin name to raw configuration.
// Order is significant: it is the instantiation, merge and write order.
type SourceData []SourceEntry

// Names returns the plugin names in order.
func (s SourceData) Names() []string {
	names := make([]string, len(s))
	for i := range s {
		names[i] = s[i].Name
	}
	return names
}

// Get returns the configuration for a plugin name.
func (s SourceData) Get(name string) (any, bool) {
	for i := range s {
		if s[i].Name == name {
			return s[i].Config, true
		}
	}
	return nil, false
}

// ConversionOptions maps plugin name to that plugin's options.
// Absent plugins run with their schema defaults.
type ConversionOptions map[string]map[string]any

// Mode selects how the shared target is opened.
type Mode string

const (
	// ModeCreate builds a fresh target, replacing any existing one on success.
	ModeCreate Mode = "create"
	// ModeOverwrite builds a fresh target, replacing any existing one on success.
	ModeOverwrite Mode = "overwrite"
	// ModeAppend adds to an existing target; incompatible content is a conflict.
	ModeAppend Mode = "append"
	// ModeInMemory never persists; the run returns a live document.
	ModeInMemory Mode = "in-memory"
)

// AllModes returns every supported mode.
func AllModes() []Mode {
	return []Mode{ModeCreate, ModeOverwrite, ModeAppend, ModeInMemory}
}

// ParseMode parses a mode flag. Empty input yields ModeCreate.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return ModeCreate, nil
	case ModeCreate:
		return ModeCreate, nil
	case ModeOverwrite:
		return ModeOverwrite, nil
	case ModeAppend:
		return ModeAppend, nil
	case ModeInMemory, "memory":
		return ModeInMemory, nil
	default:
		return "", fmt.Errorf("%w: unknown target mode %q", ErrInvalidInput, s)
	}
}

// Persisted reports whether the mode writes to disk.
func (m Mode) Persisted() bool {
	return m != ModeInMemory
}

// TargetDescriptor identifies the shared output target of a run.
type TargetDescriptor struct {
	// Path is the file path of a persisted target. Ignored for ModeInMemory.
	Path string
	// Mode selects create, overwrite, append or in-memory handling.
	Mode Mode
	// Document optionally carries a live in-memory document to append into.
	// Only used with ModeInMemory.
	Document *Document
}

// Validate checks the descriptor is usable for its mode.
func (t TargetDescriptor) Validate() error {
	switch t.Mode {
	case ModeCreate, ModeOverwrite, ModeAppend:
		if t.Path == "" {
			return fmt.Errorf("%w: target path required for mode %q", ErrInvalidInput, t.Mode)
		}
	case ModeInMemory:
	default:
		return fmt.Errorf("%w: unknown target mode %q", ErrInvalidInput, t.Mode)
	}
	return nil
}
