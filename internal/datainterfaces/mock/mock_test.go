package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/neuroconv/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/neuroconv/internal/core/domain"
	"github.com/custodia-labs/neuroconv/internal/datainterfaces/spikeglx"
	"github.com/custodia-labs/neuroconv/internal/schema"
)

func shortConfig() map[string]any {
	return map[string]any{
		"signal_duration": 0.01,
		"ttl_times":       []any{[]any{0.002}, []any{0.004, 0.006}},
		"ttl_duration":    0.001,
	}
}

func TestNIDQClass_Schemas(t *testing.T) {
	c := NIDQClass{}

	assert.Equal(t, Kind, c.Kind())
	assert.NotEmpty(t, c.Description())
	require.NoError(t, schema.Check(c.SourceSchema()))
	require.NoError(t, schema.Check(c.ConversionOptionsSchema()))
	assert.Equal(t, spikeglx.OptionDimensions(), c.OptionDimensions())
}

func TestNIDQClass_Defaults(t *testing.T) {
	iface, err := NIDQClass{}.New(nil)
	require.NoError(t, err)

	rec := iface.(*spikeglx.Interface).Recording()
	assert.Equal(t, Kind, iface.Kind())
	assert.Equal(t, DefaultChannels, rec.NumChannels())
	assert.Equal(t, 175000, rec.NumFrames())
	assert.Equal(t, "nidq#XA0", rec.ChannelIDs[0])
	assert.Equal(t, "nidq#XA7", rec.ChannelIDs[7])
	for _, g := range rec.Gains {
		assert.Equal(t, Gain, g)
	}
}

func TestNIDQClass_ExplicitTimes(t *testing.T) {
	iface, err := NIDQClass{}.New(shortConfig())
	require.NoError(t, err)

	rec := iface.(*spikeglx.Interface).Recording()
	require.Equal(t, 2, rec.NumChannels())
	require.Equal(t, 250, rec.NumFrames())

	sample := func(frame, ch int) float64 { return float64(rec.Data[frame*2+ch]) }

	// 0.002 s is frame 50, pulses last 25 frames.
	assert.InDelta(t, 0, sample(10, 0), 20)
	assert.InDelta(t, 25000, sample(60, 0), 20)
	assert.InDelta(t, 0, sample(80, 0), 20)

	assert.InDelta(t, 0, sample(60, 1), 20)
	assert.InDelta(t, 25000, sample(110, 1), 20)
	assert.InDelta(t, 25000, sample(160, 1), 20)
}

func TestNIDQClass_Metadata(t *testing.T) {
	iface, err := NIDQClass{}.New(shortConfig())
	require.NoError(t, err)

	md := iface.Metadata()
	assert.Equal(t, "2020-11-03T10:35:10", md.String("NWBFile.session_start_time", ""))
	devices := spikeglx.Devices(md)
	require.Len(t, devices, 1)
	assert.Equal(t, "A NIDQ board used in conjunction with SpikeGLX. Model: PCI-6259.", devices[0].Description)
	assert.Equal(t, spikeglx.DefaultESKey, md.String("TimeSeries."+spikeglx.DefaultESKey+".name", ""))
}

func TestNIDQClass_CustomKey(t *testing.T) {
	cfg := shortConfig()
	cfg["es_key"] = "TTL"

	iface, err := NIDQClass{}.New(cfg)
	require.NoError(t, err)

	doc := domain.NewDocument()
	target := memory.NewTarget(doc)
	require.NoError(t, iface.RunConversion(context.Background(), target, iface.Metadata(), nil))
	require.NoError(t, target.Finalize(context.Background()))

	ts, ok := doc.Acquisition["TTL"]
	require.True(t, ok)
	assert.Equal(t, 2, ts.NumChannels)
	assert.Equal(t, Gain*1e-6, ts.Conversion)
	assert.Contains(t, doc.Devices, "NIDQBoard")
}

func TestNIDQClass_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  map[string]any
		want error
	}{
		{"negative duration", map[string]any{"signal_duration": -1.0}, domain.ErrConfiguration},
		{"unknown field", map[string]any{"channels": 3}, domain.ErrConfiguration},
		{"negative pulse", map[string]any{
			"signal_duration": 0.01,
			"ttl_times":       []any{[]any{-0.5}},
		}, domain.ErrConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NIDQClass{}.New(tt.cfg)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestNIDQClass_ShortDurations(t *testing.T) {
	for _, dur := range []float64{0.5, 1.0, 1.5, 2.5} {
		iface, err := NIDQClass{}.New(map[string]any{"signal_duration": dur})
		require.NoError(t, err, "signal_duration %g", dur)

		rec := iface.(*spikeglx.Interface).Recording()
		assert.Equal(t, int(dur*SamplingRate), rec.NumFrames())
		assert.Equal(t, DefaultChannels, rec.NumChannels())
	}
}

func TestNIDQClass_PulsesPastEndAreDropped(t *testing.T) {
	iface, err := NIDQClass{}.New(map[string]any{
		"signal_duration": 0.01,
		"ttl_times":       []any{[]any{0.002, 0.5}},
		"ttl_duration":    0.001,
	})
	require.NoError(t, err)

	rec := iface.(*spikeglx.Interface).Recording()
	require.Equal(t, 250, rec.NumFrames())
	assert.InDelta(t, 25000, float64(rec.Data[60]), 20)
	assert.InDelta(t, 0, float64(rec.Data[249]), 20)
}
