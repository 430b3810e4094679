package spikeglx

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Header keys used by the loader and the metadata proposal.
const (
	metaFileCreateTime = "fileCreateTime"
	metaSampleRate     = "niSampRate"
	metaSavedChannels  = "nSavedChans"
	metaRangeMax       = "niAiRangeMax"
	metaMaxInt         = "niMaxInt"
	metaMNGain         = "niMNGain"
	metaMAGain         = "niMAGain"
	metaChannelCounts  = "snsMnMaXaDw"
	metaAcqCounts      = "acqMnMaXaDw"
	metaProductName    = "niDev1ProductName"

	defaultMaxInt = 32768
)

// ParseMeta reads "key=value" header lines. Leading '~' markers on keys are
// dropped; blank lines are ignored.
func ParseMeta(r io.Reader) (map[string]string, error) {
	meta := make(map[string]string)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		key, value, ok := strings.Cut(text, "=")
		if !ok {
			return nil, fmt.Errorf("meta line %d: missing '='", line)
		}
		meta[strings.TrimPrefix(strings.TrimSpace(key), "~")] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading meta: %w", err)
	}
	return meta, nil
}

// ReadMeta parses the header file at path.
func ReadMeta(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseMeta(f)
}

// channelLayout derives channel ids and microvolt gains from the header.
//
// Channels are ordered MN, MA, XA, DW as counted by snsMnMaXaDw. Analog gains
// are niAiRangeMax / niMaxInt volts per bit, divided by the amplifier gain for
// MN and MA channels. Digital words are stored raw with unit gain.
func channelLayout(meta map[string]string, numChannels int) ([]string, []float64, error) {
	rangeMax, err := metaFloat(meta, metaRangeMax, 5)
	if err != nil {
		return nil, nil, err
	}
	maxInt, err := metaFloat(meta, metaMaxInt, defaultMaxInt)
	if err != nil {
		return nil, nil, err
	}
	mnGain, err := metaFloat(meta, metaMNGain, 1)
	if err != nil {
		return nil, nil, err
	}
	maGain, err := metaFloat(meta, metaMAGain, 1)
	if err != nil {
		return nil, nil, err
	}
	if maxInt <= 0 || mnGain <= 0 || maGain <= 0 {
		return nil, nil, fmt.Errorf("non-positive gain parameters in meta")
	}
	analog := rangeMax / maxInt * 1e6

	counts := []int{0, 0, numChannels, 0}
	raw, ok := meta[metaChannelCounts]
	if !ok {
		raw, ok = meta[metaAcqCounts]
	}
	if ok {
		parsed, err := parseCounts(raw)
		if err != nil {
			return nil, nil, err
		}
		if sum(parsed) == numChannels {
			counts = parsed
		}
	}

	prefixes := []string{"MN", "MA", "XA", "XD"}
	gains := []float64{analog / mnGain, analog / maGain, analog, 1}

	ids := make([]string, 0, numChannels)
	channelGains := make([]float64, 0, numChannels)
	for group, n := range counts {
		for i := 0; i < n; i++ {
			ids = append(ids, fmt.Sprintf("nidq#%s%d", prefixes[group], i))
			channelGains = append(channelGains, gains[group])
		}
	}
	return ids, channelGains, nil
}

func parseCounts(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("channel counts %q: want 4 fields", raw)
	}
	counts := make([]int, 4)
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("channel counts %q: invalid field %q", raw, p)
		}
		counts[i] = n
	}
	return counts, nil
}

func sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}

func metaFloat(meta map[string]string, key string, def float64) (float64, error) {
	raw, ok := meta[key]
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("meta %s=%q: %w", key, raw, err)
	}
	return v, nil
}

func metaInt(meta map[string]string, key string) (int, error) {
	raw, ok := meta[key]
	if !ok {
		return 0, fmt.Errorf("meta %s missing", key)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("meta %s=%q: %w", key, raw, err)
	}
	return v, nil
}
