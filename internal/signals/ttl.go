// Package signals generates synthetic signals used as test and mock sources.
package signals

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

// ErrInvalidSignal indicates signal parameters that cannot produce a trace.
var ErrInvalidSignal = errors.New("invalid signal parameters")

// TTLConfig describes a single-channel TTL pulse train.
type TTLConfig struct {
	// Duration is the length of the trace in seconds.
	Duration float64
	// Times are pulse onsets in seconds.
	Times []float64
	// PulseDuration is how long each pulse stays on, in seconds.
	PulseDuration float64
	// SamplingRate is in Hz.
	SamplingRate float64
	// BaselineMean and SignalMean are the off and on levels.
	BaselineMean int16
	SignalMean   int16
	// NoiseStd is the standard deviation of additive Gaussian noise. Zero disables noise.
	NoiseStd float64
	// Seed makes the noise reproducible.
	Seed uint64
}

// DefaultTTLConfig returns a 7 s, 25 kHz pulse train with 1 s pulses and
// light noise around a 0 / 25000 level pair.
func DefaultTTLConfig() TTLConfig {
	return TTLConfig{
		Duration:      7.0,
		PulseDuration: 1.0,
		SamplingRate:  25000.0,
		BaselineMean:  0,
		SignalMean:    25000,
		NoiseStd:      2,
	}
}

// NumFrames returns the number of samples the configuration produces.
func (c TTLConfig) NumFrames() int {
	return int(c.Duration * c.SamplingRate)
}

// GenerateTTL renders the pulse train. Pulses are clipped to the trace;
// onsets at or past its end are ignored.
func GenerateTTL(cfg TTLConfig) ([]int16, error) {
	if cfg.Duration <= 0 || cfg.SamplingRate <= 0 {
		return nil, fmt.Errorf("%w: duration and sampling rate must be positive", ErrInvalidSignal)
	}
	if cfg.PulseDuration <= 0 {
		return nil, fmt.Errorf("%w: pulse duration must be positive", ErrInvalidSignal)
	}
	if cfg.NoiseStd < 0 {
		return nil, fmt.Errorf("%w: negative noise", ErrInvalidSignal)
	}
	for _, t := range cfg.Times {
		if t < 0 {
			return nil, fmt.Errorf("%w: negative pulse time %gs", ErrInvalidSignal, t)
		}
	}

	n := cfg.NumFrames()
	levels := make([]float64, n)
	for i := range levels {
		levels[i] = float64(cfg.BaselineMean)
	}

	width := int(math.Round(cfg.PulseDuration * cfg.SamplingRate))
	for _, t := range cfg.Times {
		start := int(math.Round(t * cfg.SamplingRate))
		if start >= n {
			continue
		}
		end := min(start+width, n)
		for i := start; i < end; i++ {
			levels[i] = float64(cfg.SignalMean)
		}
	}

	var rng *rand.Rand
	if cfg.NoiseStd > 0 {
		rng = rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
	}

	out := make([]int16, n)
	for i, v := range levels {
		if rng != nil {
			v += rng.NormFloat64() * cfg.NoiseStd
		}
		out[i] = clampInt16(math.Round(v))
	}
	return out, nil
}

// PeriodicTTLTimes returns pulse onsets for channels that alternate off and
// on every pulse seconds, starting off, each shifted by offset seconds per
// channel index.
func PeriodicTTLTimes(duration, pulse float64, channels int, offset float64) [][]float64 {
	periods := 0
	if pulse > 0 && duration > pulse {
		periods = int(math.Ceil((duration - pulse) / (pulse * 2)))
	}

	out := make([][]float64, channels)
	for ch := range out {
		times := make([]float64, 0, periods)
		for p := 0; p < periods; p++ {
			times = append(times, pulse*float64(1+2*p)+offset*float64(ch))
		}
		out[ch] = times
	}
	return out
}

func clampInt16(v float64) int16 {
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	default:
		return int16(v)
	}
}
