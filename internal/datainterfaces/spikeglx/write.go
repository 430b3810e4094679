package spikeglx

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/neuroconv/internal/core/domain"
	"github.com/custodia-labs/neuroconv/internal/core/ports/driven"
)

// WriteRecording writes the devices listed in metadata and the recording as one
// time series. Shared by every class built on the NIDQ write path.
func WriteRecording(
	ctx context.Context,
	target driven.DocumentWriter,
	rec *Recording,
	esKey string,
	metadata domain.Metadata,
	opts ConversionOptions,
) error {
	for _, device := range Devices(metadata) {
		if err := target.AddDevice(ctx, device); err != nil {
			return writeError("device "+device.Name, err)
		}
	}

	ts := BuildTimeSeries(rec, esKey, metadata, opts)

	if opts.ModuleName != "" {
		module := domain.ProcessingModule{Name: opts.ModuleName, Description: opts.ModuleDescription}
		if module.Description == "" {
			module.Description = "Processed data."
		}
		if err := target.AddProcessingModule(ctx, module); err != nil {
			return writeError("processing module "+module.Name, err)
		}
	}
	if err := target.AddTimeSeries(ctx, opts.ModuleName, ts); err != nil {
		return writeError("time series "+ts.Name, err)
	}
	return nil
}

// BuildTimeSeries converts the recording into a time series.
//
// Samples stay int16. A uniform gain becomes the series conversion (volts per
// bit); differing gains become per-channel factors on a microvolt conversion.
func BuildTimeSeries(rec *Recording, esKey string, metadata domain.Metadata, opts ConversionOptions) domain.TimeSeries {
	frames := rec.NumFrames()
	if opts.StubTest {
		frames = min(StubFrames, frames)
	}
	chunk := frames
	if opts.ChunkData {
		chunk = min(DefaultChunkFrames, frames)
	}

	section := "TimeSeries." + esKey
	ts := domain.TimeSeries{
		Name:         metadata.String(section+".name", esKey),
		Description:  metadata.String(section+".description", "Raw acquisition traces."),
		Unit:         "V",
		Rate:         rec.SamplingRate,
		StartingTime: opts.StartingTime,
		ChannelIDs:   append([]string(nil), rec.ChannelIDs...),
		NumChannels:  rec.NumChannels(),
		ChunkFrames:  chunk,
		Data:         append([]int16(nil), rec.Data[:frames*rec.NumChannels()]...),
	}
	if gain, ok := rec.uniformGain(); ok {
		ts.Conversion = gain * 1e-6
	} else {
		ts.Conversion = 1e-6
		ts.ChannelConversion = append([]float64(nil), rec.Gains...)
	}
	return ts
}

// Devices returns the devices listed under the "Devices" metadata section.
func Devices(metadata domain.Metadata) []domain.Device {
	list, _ := metadata["Devices"].([]any)
	devices := make([]domain.Device, 0, len(list))
	for _, item := range list {
		entry, ok := domain.AsMap(item)
		if !ok {
			continue
		}
		name := entry.String("name", "")
		if name == "" {
			continue
		}
		devices = append(devices, domain.Device{
			Name:         name,
			Description:  entry.String("description", ""),
			Manufacturer: entry.String("manufacturer", ""),
		})
	}
	return devices
}

// writeError classifies a target failure. Conflicts keep their sentinel;
// everything else is a write failure.
func writeError(what string, err error) error {
	if errors.Is(err, domain.ErrTargetExistsConflict) {
		return fmt.Errorf("%s: %w", what, err)
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrWrite, what, err)
}
