package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrConfiguration", ErrConfiguration},
		{"ErrUnknownPlugin", ErrUnknownPlugin},
		{"ErrSourceUnavailable", ErrSourceUnavailable},
		{"ErrMetadataConflict", ErrMetadataConflict},
		{"ErrConversionOptions", ErrConversionOptions},
		{"ErrTargetExistsConflict", ErrTargetExistsConflict},
		{"ErrWrite", ErrWrite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrors_Distinct(t *testing.T) {
	taxonomy := []error{
		ErrConfiguration, ErrUnknownPlugin, ErrSourceUnavailable, ErrMetadataConflict,
		ErrConversionOptions, ErrTargetExistsConflict, ErrWrite,
	}
	for i, a := range taxonomy {
		for j, b := range taxonomy {
			if i == j {
				continue
			}
			assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
		}
	}
}

func TestPluginError_WrapsSentinel(t *testing.T) {
	err := &PluginError{Plugin: "Recording", Path: "/file_path", Err: fmt.Errorf("%w: missing", ErrConfiguration)}

	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.False(t, errors.Is(err, ErrWrite))
	assert.Equal(t, `plugin "Recording": /file_path: invalid configuration: missing`, err.Error())
}

func TestPluginError_NoPath(t *testing.T) {
	err := &PluginError{Plugin: "Trials", Err: ErrWrite}
	assert.Equal(t, `plugin "Trials": write failed`, err.Error())
}

func TestPluginName(t *testing.T) {
	wrapped := fmt.Errorf("run: %w", &PluginError{Plugin: "Sync", Err: ErrSourceUnavailable})

	name, ok := PluginName(wrapped)
	assert.True(t, ok)
	assert.Equal(t, "Sync", name)

	_, ok = PluginName(ErrWrite)
	assert.False(t, ok)
}

func TestMetadataConflictError(t *testing.T) {
	err := &MetadataConflictError{Conflicts: []MetadataConflict{
		{Path: "NWBFile.session_start_time", Plugins: []string{"A", "B"}, Values: []any{"x", "y"}},
	}}

	assert.True(t, errors.Is(err, ErrMetadataConflict))
	assert.Contains(t, err.Error(), "NWBFile.session_start_time")
	assert.Contains(t, err.Error(), "A, B")
	assert.Equal(t, []string{"NWBFile.session_start_time"}, err.Paths())

	var target *MetadataConflictError
	assert.True(t, errors.As(fmt.Errorf("merge: %w", err), &target))
}
