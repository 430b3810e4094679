package sqlite

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Chunks are stored as zstd frames of little-endian int16 samples.
// Encoder and decoder are safe for concurrent EncodeAll/DecodeAll calls and
// are shared by every target in the process.
var (
	chunkEncoder = sync.OnceValues(func() (*zstd.Encoder, error) {
		return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	})
	chunkDecoder = sync.OnceValues(func() (*zstd.Decoder, error) {
		return zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
	})
)

// encodeChunk compresses one chunk of samples.
func encodeChunk(samples []int16) ([]byte, error) {
	enc, err := chunkEncoder()
	if err != nil {
		return nil, fmt.Errorf("creating chunk encoder: %w", err)
	}
	return enc.EncodeAll(int16SliceToBytes(samples), nil), nil
}

// decodeChunk decompresses one chunk of samples.
func decodeChunk(blob []byte) ([]int16, error) {
	dec, err := chunkDecoder()
	if err != nil {
		return nil, fmt.Errorf("creating chunk decoder: %w", err)
	}
	raw, err := dec.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decoding chunk: %w", err)
	}
	if len(raw)%2 != 0 {
		return nil, fmt.Errorf("decoding chunk: odd byte count %d", len(raw))
	}
	return bytesToInt16Slice(raw), nil
}

// int16SliceToBytes converts samples to a little-endian byte slice.
func int16SliceToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, v := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(v))
	}
	return buf
}

// bytesToInt16Slice converts a byte slice back to samples.
func bytesToInt16Slice(data []byte) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return samples
}
