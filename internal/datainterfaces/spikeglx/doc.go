// Package spikeglx provides the SpikeGLX NIDQ data interface.
//
// A NIDQ recording is a pair of files: "<name>.nidq.bin" holding interleaved
// little-endian int16 samples and "<name>.nidq.meta" holding key=value header
// lines. The interface proposes session, device and time series metadata from
// the header and writes the samples as one multi-channel time series.
//
// The recording source is injected as a LoaderFunc, so other classes (such as
// the mock NIDQ interface) reuse the schemas and the write path with a
// different source.
package spikeglx
