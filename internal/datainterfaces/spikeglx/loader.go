package spikeglx

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"strings"

	"github.com/custodia-labs/neuroconv/internal/core/domain"
)

// MetaPath returns the header path paired with a ".nidq.bin" file.
func MetaPath(binPath string) string {
	return strings.TrimSuffix(binPath, ".bin") + ".meta"
}

// FileLoader returns a loader reading a ".nidq.bin" file and its ".meta" header.
func FileLoader(binPath string) LoaderFunc {
	return func() (*Recording, error) {
		if !strings.HasSuffix(binPath, ".nidq.bin") {
			return nil, fmt.Errorf("%w: %s is not a .nidq.bin file", domain.ErrSourceUnavailable, binPath)
		}

		meta, err := ReadMeta(MetaPath(binPath))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
		}
		numChannels, err := metaInt(meta, metaSavedChannels)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
		}
		if numChannels <= 0 {
			return nil, fmt.Errorf("%w: %s=%d", domain.ErrSourceUnavailable, metaSavedChannels, numChannels)
		}
		rate, err := metaFloat(meta, metaSampleRate, 0)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
		}
		ids, gains, err := channelLayout(meta, numChannels)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
		}

		raw, err := os.ReadFile(binPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
		}
		if len(raw)%(2*numChannels) != 0 {
			return nil, fmt.Errorf("%w: %s: %d bytes do not hold whole frames of %d channels",
				domain.ErrSourceUnavailable, binPath, len(raw), numChannels)
		}
		data := make([]int16, len(raw)/2)
		if err := binary.Read(bytes.NewReader(raw), binary.LittleEndian, data); err != nil {
			return nil, fmt.Errorf("%w: decoding samples: %w", domain.ErrSourceUnavailable, err)
		}

		rec := &Recording{
			SamplingRate: rate,
			ChannelIDs:   ids,
			Gains:        gains,
			Data:         data,
			Meta:         meta,
		}
		if err := rec.Validate(); err != nil {
			return nil, err
		}
		return rec, nil
	}
}
