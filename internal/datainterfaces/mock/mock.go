// Package mock provides data interfaces backed by synthetic signals, for
// tests and demonstrations that need no files on disk.
package mock

import (
	"fmt"

	"github.com/custodia-labs/neuroconv/internal/core/domain"
	"github.com/custodia-labs/neuroconv/internal/core/ports/driven"
	"github.com/custodia-labs/neuroconv/internal/datainterfaces/spikeglx"
	"github.com/custodia-labs/neuroconv/internal/schema"
	"github.com/custodia-labs/neuroconv/internal/signals"
)

// Kind is the registry key of the mock NIDQ class.
const Kind = "mock-spikeglx-nidq"

// NIDQ board constants mirrored by the mock recording.
const (
	SamplingRate    = 25000.0
	DefaultChannels = 8
	Gain            = 61.03515625
	channelOffset   = 0.1
)

// Ensure NIDQClass implements the interface.
var _ driven.InterfaceClass = NIDQClass{}

// NIDQConfig is the constructor configuration of the mock NIDQ interface.
type NIDQConfig struct {
	SignalDuration float64     `json:"signal_duration"`
	TTLTimes       [][]float64 `json:"ttl_times"`
	TTLDuration    float64     `json:"ttl_duration"`
	ESKey          string      `json:"es_key"`
}

// NIDQClass is a NIDQ interface whose recording is a synthetic TTL signal.
// It shares schemas for options and the write path with spikeglx.Class.
type NIDQClass struct{}

// Kind returns the registry key.
func (NIDQClass) Kind() string { return Kind }

// Description returns a one-line summary.
func (NIDQClass) Description() string {
	return "Synthetic SpikeGLX NIDQ recording of periodic TTL pulses"
}

// SourceSchema returns the constructor schema.
func (NIDQClass) SourceSchema() *schema.Schema { return NIDQSourceSchema() }

// ConversionOptionsSchema returns the shared NIDQ options schema.
func (NIDQClass) ConversionOptionsSchema() *schema.Schema { return spikeglx.ConversionOptionsSchema() }

// OptionDimensions returns the shared NIDQ option declaration.
func (NIDQClass) OptionDimensions() domain.OptionDimensions { return spikeglx.OptionDimensions() }

// New generates the recording described by config.
func (NIDQClass) New(config any) (driven.DataInterface, error) {
	var cfg NIDQConfig
	if err := schema.Decode(NIDQSourceSchema(), config, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	return spikeglx.NewInterface(Kind, cfg.ESKey, TTLLoader(cfg))
}

// NIDQSourceSchema returns the Draft 7 schema of NIDQConfig.
func NIDQSourceSchema() *schema.Schema {
	s := schema.Object("Mock SpikeGLX NIDQ source", map[string]*schema.Schema{
		"signal_duration": {
			Type:             "number",
			Description:      "Number of seconds to simulate.",
			ExclusiveMinimum: schema.Float(0),
			Default:          schema.Default(7.0),
		},
		"ttl_times": {
			Type: "array",
			Description: "TTL onsets per channel, in seconds. The outer list is over channels. " +
				"By default 8 channels pulse periodically, starting off, 0.1 s apart.",
			Items:    schema.Ref("channel_times"),
			MinItems: schema.Int(1),
		},
		"ttl_duration": {
			Type:             "number",
			Description:      "How long each pulse stays on, in seconds.",
			ExclusiveMinimum: schema.Float(0),
			Default:          schema.Default(1.0),
		},
		"es_key": {
			Type:        "string",
			Description: "Name of the written time series.",
			MinLength:   schema.Int(1),
			Default:     schema.Default(spikeglx.DefaultESKey),
		},
	})
	s.Definitions = map[string]*schema.Schema{
		"channel_times": {
			Type:  "array",
			Items: &schema.Schema{Type: "number", Minimum: schema.Float(0)},
		},
	}
	return s
}

// TTLLoader returns a loader generating one TTL trace per channel.
func TTLLoader(cfg NIDQConfig) spikeglx.LoaderFunc {
	return func() (*spikeglx.Recording, error) {
		times := cfg.TTLTimes
		if times == nil {
			times = signals.PeriodicTTLTimes(cfg.SignalDuration, cfg.TTLDuration, DefaultChannels, channelOffset)
		}

		n := len(times)
		ids := make([]string, n)
		gains := make([]float64, n)
		traces := make([][]int16, n)
		for ch := range times {
			ttl := signals.DefaultTTLConfig()
			ttl.Duration = cfg.SignalDuration
			ttl.PulseDuration = cfg.TTLDuration
			ttl.SamplingRate = SamplingRate
			ttl.Times = times[ch]

			trace, err := signals.GenerateTTL(ttl)
			if err != nil {
				return nil, fmt.Errorf("channel %d: %w", ch, err)
			}
			traces[ch] = trace
			ids[ch] = fmt.Sprintf("nidq#XA%d", ch)
			gains[ch] = Gain
		}

		frames := int(cfg.SignalDuration * SamplingRate)
		data := make([]int16, frames*n)
		for ch, trace := range traces {
			for f, v := range trace {
				data[f*n+ch] = v
			}
		}

		return &spikeglx.Recording{
			SamplingRate: SamplingRate,
			ChannelIDs:   ids,
			Gains:        gains,
			Data:         data,
			Meta: map[string]string{
				"acqMnMaXaDw":       "0,0,8,1",
				"fileCreateTime":    "2020-11-03T10:35:10",
				"niDev1ProductName": "PCI-6259",
			},
		}, nil
	}
}
