package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/neuroconv/internal/adapters/driven/config/file"
	"github.com/custodia-labs/neuroconv/internal/core/domain"
)

func TestMetadata_YAML(t *testing.T) {
	setupTestServices(t)
	_, runPath := writeTestRun(t)

	out, err := execute(t, "metadata", runPath)
	require.NoError(t, err)

	var md map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &md))
	nwb, ok := md["NWBFile"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "cli test session", nwb["session_description"])
	assert.Equal(t, "2020-11-03T10:35:10", nwb["session_start_time"])
	assert.Contains(t, md, "TimeIntervals")
}

func TestMetadata_JSON(t *testing.T) {
	setupTestServices(t)
	_, runPath := writeTestRun(t)

	out, err := execute(t, "metadata", runPath, "--json")
	require.NoError(t, err)

	var md map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &md))
	assert.Contains(t, md, "Devices")
}

func TestSchema_Kind(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "schema", "csv-time-intervals")
	require.NoError(t, err)

	var s map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, "http://json-schema.org/draft-07/schema#", s["$schema"])
	assert.Equal(t, []any{"file_path"}, s["required"])
}

func TestSchema_Options(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "schema", "spikeglx-nidq", "--options")
	require.NoError(t, err)

	var s map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	props, ok := s["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "stub_test")
	assert.Contains(t, props, "chunk_data")
}

func TestSchema_Run(t *testing.T) {
	setupTestServices(t)
	_, runPath := writeTestRun(t)

	out, err := execute(t, "schema", "--run", runPath)
	require.NoError(t, err)

	var s map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	props, ok := s["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "Sync")
	assert.Contains(t, props, "Trials")
}

func TestSchema_Errors(t *testing.T) {
	setupTestServices(t)

	_, err := execute(t, "schema")
	assert.Error(t, err)

	_, err = execute(t, "schema", "openephys")
	assert.ErrorIs(t, err, domain.ErrUnknownPlugin)
}

func TestInterfaces_ListsKinds(t *testing.T) {
	setupTestServices(t)

	out, err := execute(t, "interfaces")
	require.NoError(t, err)

	assert.Contains(t, out, "csv-time-intervals")
	assert.Contains(t, out, "mock-spikeglx-nidq")
	assert.Contains(t, out, "spikeglx-nidq")
	assert.Contains(t, out, "Joint options: stub_test x chunk_data")
}

func TestInit_WritesLoadableRunFile(t *testing.T) {
	setupTestServices(t)
	path := filepath.Join(t.TempDir(), "run.yaml")

	out, err := execute(t, "init", path,
		"--interface", "Recording=spikeglx-nidq",
		"--interface", "Trials=csv-time-intervals")
	require.NoError(t, err)
	assert.Contains(t, out, "with 2 interface(s)")

	rf, err := file.LoadRunFile(path)
	require.NoError(t, err)
	require.Len(t, rf.Interfaces, 2)
	assert.Equal(t, "Recording", rf.Interfaces[0].Name)
	assert.Equal(t, "spikeglx-nidq", rf.Interfaces[0].Kind)
	assert.Contains(t, rf.Interfaces[0].Source, "file_path")
	assert.Equal(t, "session.db", rf.Output.Path)

	resetFlags()
	_, err = execute(t, "init", path, "--interface", "Trials=csv-time-intervals")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestInit_Errors(t *testing.T) {
	setupTestServices(t)
	dir := t.TempDir()

	_, err := execute(t, "init", filepath.Join(dir, "run.toml"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	resetFlags()
	_, err = execute(t, "init", filepath.Join(dir, "run.toml"), "--interface", "Recording")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	resetFlags()
	_, err = execute(t, "init", filepath.Join(dir, "run.toml"), "--interface", "Recording=openephys")
	assert.ErrorIs(t, err, domain.ErrUnknownPlugin)

	resetFlags()
	_, err = execute(t, "init", filepath.Join(dir, "run.ini"), "--interface", "Trials=csv-time-intervals")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
