package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/neuroconv/internal/core/domain"
	"github.com/custodia-labs/neuroconv/internal/core/ports/driven"
)

func TestInstantiate_Order(t *testing.T) {
	a := newFakeClass("fake-a", domain.Metadata{"NWBFile": map[string]any{"lab": "x"}})
	b := newFakeClass("fake-b", nil)
	plugins := driven.PluginTable{"Second": b, "First": a}

	ifaces, err := Instantiate(domain.SourceData{
		{Name: "Second", Config: map[string]any{"series": "s2"}},
		{Name: "First", Config: map[string]any{"series": "s1"}},
	}, plugins)
	require.NoError(t, err)

	assert.Equal(t, []string{"Second", "First"}, ifaces.Names())
	assert.Equal(t, 2, ifaces.Len())

	first, ok := ifaces.Get("First")
	require.True(t, ok)
	assert.Equal(t, "fake-a", first.Kind())
	assert.Equal(t, int16(1), first.(*fakeInterface).value, "default filled")

	proposals := ifaces.Proposals()
	require.Len(t, proposals, 2)
	assert.Equal(t, "Second", proposals[0].Plugin)
	assert.Equal(t, domain.Metadata{}, proposals[0].Metadata)
	assert.Equal(t, "x", proposals[1].Metadata.String("NWBFile.lab", ""))
}

func TestInstantiate_UnknownBeforeAnyConstruction(t *testing.T) {
	known := newFakeClass("fake", nil)
	plugins := driven.PluginTable{"Recording": known}

	_, err := Instantiate(domain.SourceData{
		{Name: "Recording", Config: map[string]any{"series": "s"}},
		{Name: "Behavior", Config: nil},
		{Name: "Video", Config: nil},
	}, plugins)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownPlugin)
	assert.Contains(t, err.Error(), "Behavior")
	assert.Contains(t, err.Error(), "Video")
	assert.Contains(t, err.Error(), "Recording", "known names are listed")
	assert.Equal(t, int32(0), known.created.Load())
}

func TestInstantiate_DuplicateAndEmptyNames(t *testing.T) {
	plugins := driven.PluginTable{"A": newFakeClass("fake", nil)}

	_, err := Instantiate(domain.SourceData{
		{Name: "A", Config: map[string]any{"series": "a"}},
		{Name: "A", Config: map[string]any{"series": "b"}},
	}, plugins)
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	_, err = Instantiate(domain.SourceData{{Name: ""}}, plugins)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestInstantiate_ConfigurationError(t *testing.T) {
	first := newFakeClass("fake", nil)
	second := newFakeClass("fake", nil)
	plugins := driven.PluginTable{"A": first, "B": second}

	_, err := Instantiate(domain.SourceData{
		{Name: "A", Config: map[string]any{"series": "a"}},
		{Name: "B", Config: map[string]any{"series": 7}},
	}, plugins)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	var pe *domain.PluginError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "B", pe.Plugin)
	assert.Equal(t, "source_data", pe.Path)
	assert.Equal(t, int32(1), first.created.Load())
	assert.Equal(t, int32(0), second.created.Load())
}

func TestInstantiate_FailFast(t *testing.T) {
	broken := newFakeClass("fake", nil)
	broken.newErr = domain.ErrSourceUnavailable
	after := newFakeClass("fake", nil)
	plugins := driven.PluginTable{"Broken": broken, "After": after}

	_, err := Instantiate(domain.SourceData{
		{Name: "Broken", Config: map[string]any{"series": "a"}},
		{Name: "After", Config: map[string]any{"series": "b"}},
	}, plugins)

	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
	name, ok := domain.PluginName(err)
	require.True(t, ok)
	assert.Equal(t, "Broken", name)
	assert.Equal(t, int32(0), after.created.Load())
}

func TestInstantiate_Empty(t *testing.T) {
	ifaces, err := Instantiate(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, ifaces.Len())
}
