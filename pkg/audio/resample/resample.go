// Package resample converts mono audio clips between sample rates using a
// pure Go polyphase resampler (no CGO/FFI dependencies).
package resample

import (
	"fmt"
	"math"

	resampling "github.com/tphakala/go-audio-resampling"
)

// maxFlushRounds bounds the silence fed through the filter to drain its
// delay line after the real input ends.
const maxFlushRounds = 64

// Convert resamples a whole mono clip from one rate to another. The output
// length is round(len(samples) * to / from); the filter's tail latency is
// flushed with trailing silence and the result trimmed to that length.
// When from equals to, Convert returns a copy of the input.
func Convert(samples []float32, from, to int) ([]float32, error) {
	if from <= 0 || to <= 0 {
		return nil, fmt.Errorf("resample: invalid rate conversion %d -> %d", from, to)
	}
	if len(samples) == 0 {
		return nil, nil
	}
	if from == to {
		out := make([]float32, len(samples))
		copy(out, samples)
		return out, nil
	}

	rs, err := resampling.New(&resampling.Config{
		InputRate:  float64(from),
		OutputRate: float64(to),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("resample: %w", err)
	}

	input := make([]float64, len(samples))
	for i, s := range samples {
		input[i] = float64(s)
	}

	expected := int(math.Round(float64(len(samples)) * float64(to) / float64(from)))
	out := make([]float32, 0, expected)

	chunk, err := rs.Process(input)
	if err != nil {
		return nil, fmt.Errorf("resample: %w", err)
	}
	out = appendFloat64(out, chunk)

	flush := make([]float64, 512)
	for range maxFlushRounds {
		if len(out) >= expected {
			break
		}
		chunk, err := rs.Process(flush)
		if err != nil {
			return nil, fmt.Errorf("resample: flush: %w", err)
		}
		out = appendFloat64(out, chunk)
	}

	for len(out) < expected {
		out = append(out, 0)
	}
	return out[:expected], nil
}

func appendFloat64(dst []float32, src []float64) []float32 {
	for _, s := range src {
		dst = append(dst, float32(s))
	}
	return dst
}
