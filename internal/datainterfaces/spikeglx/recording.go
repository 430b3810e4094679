package spikeglx

import (
	"fmt"

	"github.com/custodia-labs/neuroconv/internal/core/domain"
)

// Recording is a loaded multi-channel int16 recording.
type Recording struct {
	// SamplingRate is in Hz.
	SamplingRate float64
	ChannelIDs   []string
	// Gains convert stored integers to microvolts, one per channel.
	Gains []float64
	// Data is frame-major: Data[frame*len(ChannelIDs)+channel].
	Data []int16
	// Meta holds the raw header fields.
	Meta map[string]string
}

// LoaderFunc produces the recording an interface is bound to.
type LoaderFunc func() (*Recording, error)

// NumChannels returns the channel count.
func (r *Recording) NumChannels() int {
	return len(r.ChannelIDs)
}

// NumFrames returns the number of samples per channel.
func (r *Recording) NumFrames() int {
	if len(r.ChannelIDs) == 0 {
		return 0
	}
	return len(r.Data) / len(r.ChannelIDs)
}

// Validate checks the recording is self-consistent.
func (r *Recording) Validate() error {
	n := r.NumChannels()
	switch {
	case n == 0:
		return fmt.Errorf("%w: recording has no channels", domain.ErrSourceUnavailable)
	case r.SamplingRate <= 0:
		return fmt.Errorf("%w: sampling rate must be positive", domain.ErrSourceUnavailable)
	case len(r.Gains) != n:
		return fmt.Errorf("%w: %d gains for %d channels", domain.ErrSourceUnavailable, len(r.Gains), n)
	case len(r.Data)%n != 0:
		return fmt.Errorf("%w: %d samples do not fill %d channels", domain.ErrSourceUnavailable, len(r.Data), n)
	}
	return nil
}

// uniformGain returns the shared gain when every channel has the same one.
func (r *Recording) uniformGain() (float64, bool) {
	for _, g := range r.Gains[1:] {
		if g != r.Gains[0] {
			return 0, false
		}
	}
	return r.Gains[0], true
}
