package timeintervals

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/neuroconv/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/neuroconv/internal/core/domain"
	"github.com/custodia-labs/neuroconv/internal/schema"
)

const trialsCSV = `start_time,stop_time,condition,reward
0.0,1.5,left,1
2.0,3.5,right,0
4.0,5.5,left,1
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRead_InfersColumnTypes(t *testing.T) {
	table, err := Read(strings.NewReader(trialsCSV), ReadOptions{})
	require.NoError(t, err)

	require.Len(t, table.Columns, 4)
	assert.Equal(t, 3, table.NumRows())

	start, ok := table.Column("start_time")
	require.True(t, ok)
	assert.True(t, start.Numeric)
	assert.Equal(t, []any{0.0, 2.0, 4.0}, start.Values)

	condition, _ := table.Column("condition")
	assert.False(t, condition.Numeric)
	assert.Equal(t, []any{"left", "right", "left"}, condition.Values)

	reward, _ := table.Column("reward")
	assert.True(t, reward.Numeric)
}

func TestRead_MixedColumnIsString(t *testing.T) {
	table, err := Read(strings.NewReader("start_time,stop_time,note\n0,1,3\n1,2,NaN\n"), ReadOptions{})
	require.NoError(t, err)

	note, _ := table.Column("note")
	assert.False(t, note.Numeric)
	assert.Equal(t, []any{"3", "NaN"}, note.Values)
}

func TestRead_DelimiterAndComment(t *testing.T) {
	input := "# exported by rig 2\nstart_time;stop_time\n0;1\n# pause\n2;3\n"
	table, err := Read(strings.NewReader(input), ReadOptions{Delimiter: ";", Comment: "#"})
	require.NoError(t, err)

	assert.Equal(t, 2, table.NumRows())
	stop, _ := table.Column("stop_time")
	assert.Equal(t, []any{1.0, 3.0}, stop.Values)
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  ReadOptions
	}{
		{"empty", "", ReadOptions{}},
		{"duplicate column", "a,a\n1,2\n", ReadOptions{}},
		{"blank column name", "a,\n1,2\n", ReadOptions{}},
		{"ragged rows", "a,b\n1\n", ReadOptions{}},
		{"long delimiter", "a,b\n", ReadOptions{Delimiter: "::"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input), tt.opts)
			assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
		})
	}
}

func TestDefaultDelimiter(t *testing.T) {
	assert.Equal(t, "\t", DefaultDelimiter("trials.tsv"))
	assert.Equal(t, "\t", DefaultDelimiter("TRIALS.TAB"))
	assert.Equal(t, ",", DefaultDelimiter("trials.csv"))
	assert.Equal(t, ",", DefaultDelimiter("trials"))
}

func TestSchemas_AreDraft7(t *testing.T) {
	require.NoError(t, schema.Check(SourceSchema()))
	require.NoError(t, schema.Check(ConversionOptionsSchema()))
}

func TestClass_New(t *testing.T) {
	path := writeFile(t, "trials.tsv", strings.ReplaceAll(trialsCSV, ",", "\t"))

	iface, err := Class{}.New(map[string]any{"file_path": path})
	require.NoError(t, err)
	assert.Equal(t, Kind, iface.Kind())
	assert.Equal(t, 3, iface.(*Interface).Table().NumRows())

	md := iface.Metadata()
	assert.Equal(t, "trials", md.String("TimeIntervals.trials.table_name", ""))
	assert.Equal(t, "Intervals imported from trials.tsv.", md.String("TimeIntervals.trials.table_description", ""))
	assert.Equal(t, []string{"TimeIntervals"}, md.Keys())
}

func TestClass_NewErrors(t *testing.T) {
	tests := []struct {
		name   string
		config any
		want   error
	}{
		{"missing file_path", map[string]any{}, domain.ErrConfiguration},
		{"unknown read option", map[string]any{
			"file_path":   "x.csv",
			"read_kwargs": map[string]any{"sheet": 1},
		}, domain.ErrConfiguration},
		{"missing file", map[string]any{"file_path": filepath.Join(t.TempDir(), "gone.csv")}, domain.ErrSourceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Class{}.New(tt.config)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func convert(t *testing.T, iface *Interface, metadata domain.Metadata, options map[string]any) (*domain.Document, error) {
	t.Helper()
	doc := domain.NewDocument()
	target := memory.NewTarget(doc)
	if err := iface.RunConversion(context.Background(), target, metadata, options); err != nil {
		require.NoError(t, target.Abort())
		return nil, err
	}
	require.NoError(t, target.Finalize(context.Background()))
	return doc, nil
}

func loadTrials(t *testing.T, content string) *Interface {
	t.Helper()
	iface, err := Class{}.New(map[string]any{"file_path": writeFile(t, "trials.csv", content), "verbose": false})
	require.NoError(t, err)
	return iface.(*Interface)
}

func TestRunConversion_Default(t *testing.T) {
	iface := loadTrials(t, trialsCSV)

	doc, err := convert(t, iface, iface.Metadata(), nil)
	require.NoError(t, err)

	table, ok := doc.Intervals["trials"]
	require.True(t, ok)
	assert.Equal(t, "Intervals imported from trials.csv.", table.Description)
	assert.Equal(t, 3, table.NumRows())

	names := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		names[i] = c.Name
	}
	assert.Equal(t, []string{"start_time", "stop_time", "condition", "reward"}, names)
	assert.Equal(t, "Start time of epoch, in seconds.", table.Columns[0].Description)
}

func TestRunConversion_OptionMatrix(t *testing.T) {
	iface := loadTrials(t, "begin,end,condition\n0,1,a\n2,3,b\n")
	mapping := map[string]any{"begin": "start_time", "end": "stop_time"}

	cases := OptionDimensions().Matrix(map[string][]any{
		"tag":                 {"epochs"},
		"column_name_mapping": {mapping},
		"column_descriptions": {map[string]any{"condition": "Cue side."}},
	})
	require.Len(t, cases, 4)

	for _, opts := range cases {
		if _, mapped := opts["column_name_mapping"]; !mapped {
			// Without the mapping the table has no start_time column.
			_, err := convert(t, iface, iface.Metadata(), opts)
			assert.ErrorIs(t, err, domain.ErrConversionOptions)
			continue
		}
		doc, err := convert(t, iface, iface.Metadata(), opts)
		require.NoError(t, err)
		table := doc.Intervals["trials"]
		assert.Equal(t, []any{0.0, 2.0}, table.Columns[0].Values)
	}
}

func TestRunConversion_TagAndDescriptions(t *testing.T) {
	iface := loadTrials(t, trialsCSV)
	metadata := domain.Metadata{
		"TimeIntervals": map[string]any{
			"epochs": map[string]any{"table_name": "epochs", "table_description": "Behavioural epochs."},
		},
	}

	doc, err := convert(t, iface, metadata, map[string]any{
		"tag":                 "epochs",
		"column_descriptions": map[string]any{"condition": "Cue side.", "start_time": "Onset."},
	})
	require.NoError(t, err)

	table, ok := doc.Intervals["epochs"]
	require.True(t, ok)
	assert.Equal(t, "Behavioural epochs.", table.Description)

	start, _ := table.Column("start_time")
	assert.Equal(t, "Onset.", start.Description)
	condition, _ := table.Column("condition")
	assert.Equal(t, "Cue side.", condition.Description)
}

func TestRunConversion_InvalidOptions(t *testing.T) {
	iface := loadTrials(t, trialsCSV)

	tests := []struct {
		name    string
		options map[string]any
	}{
		{"unknown option", map[string]any{"stub_test": true}},
		{"mapping unknown column", map[string]any{"column_name_mapping": map[string]any{"onset": "start_time"}}},
		{"mapping duplicate", map[string]any{"column_name_mapping": map[string]any{"condition": "reward"}}},
		{"description unknown column", map[string]any{"column_descriptions": map[string]any{"onset": "x"}}},
		{"empty tag", map[string]any{"tag": ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := convert(t, iface, iface.Metadata(), tt.options)
			assert.ErrorIs(t, err, domain.ErrConversionOptions)
		})
	}
}

func TestRunConversion_NonNumericTimes(t *testing.T) {
	iface := loadTrials(t, "start_time,stop_time\nsoon,later\n")

	_, err := convert(t, iface, iface.Metadata(), nil)
	assert.ErrorIs(t, err, domain.ErrConversionOptions)
	assert.NotErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestRunConversion_NonNumericTimesDependOnMapping(t *testing.T) {
	iface := loadTrials(t, "label,onset,offset\ngo,1.0,2.0\n")

	_, err := convert(t, iface, iface.Metadata(), map[string]any{
		"column_name_mapping": map[string]any{"label": "start_time", "offset": "stop_time"},
	})
	assert.ErrorIs(t, err, domain.ErrConversionOptions)

	doc, err := convert(t, iface, iface.Metadata(), map[string]any{
		"column_name_mapping": map[string]any{"onset": "start_time", "offset": "stop_time"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Intervals["trials"].NumRows())
}

func TestRunConversion_Conflict(t *testing.T) {
	iface := loadTrials(t, trialsCSV)
	other := loadTrials(t, "start_time,stop_time\n9,10\n")

	doc := domain.NewDocument()
	target := memory.NewTarget(doc)
	ctx := context.Background()
	require.NoError(t, iface.RunConversion(ctx, target, iface.Metadata(), nil))
	require.NoError(t, iface.RunConversion(ctx, target, iface.Metadata(), nil))

	err := other.RunConversion(ctx, target, other.Metadata(), nil)
	assert.ErrorIs(t, err, domain.ErrTargetExistsConflict)
	assert.NotErrorIs(t, err, domain.ErrWrite)
}
