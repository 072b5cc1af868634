// Package pcm converts between 16-bit little-endian PCM and normalized
// float32 samples, and provides duration math for mono audio.
//
// All audio inside the pipeline is mono. Wire formats (WAV files, the
// remote synthesis stream) carry int16 samples; processing (validation,
// feature extraction, rendering) operates on float32 in [-1, 1].
package pcm

import "time"

// BytesPerSample is the size of one encoded sample.
const BytesPerSample = 2

// ToFloat32 decodes little-endian int16 PCM bytes into normalized float32
// samples. A trailing odd byte is ignored.
func ToFloat32(b []byte) []float32 {
	n := len(b) / BytesPerSample
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		s := int16(b[i*2]) | int16(b[i*2+1])<<8
		out[i] = float32(s) / 32768.0
	}
	return out
}

// FromFloat32 encodes normalized float32 samples into little-endian int16
// PCM bytes. Samples outside [-1, 1] are clamped.
func FromFloat32(samples []float32) []byte {
	out := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		v := Quantize(s)
		out[i*2] = byte(v)
		out[i*2+1] = byte(v >> 8)
	}
	return out
}

// Quantize converts one normalized sample to int16, clamping to the
// representable range.
func Quantize(s float32) int16 {
	switch {
	case s >= 1.0:
		return 32767
	case s <= -1.0:
		return -32768
	default:
		return int16(s * 32767.0)
	}
}

// Duration returns the play time of n mono samples at the given rate.
func Duration(n, rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second / time.Duration(rate)
}

// Samples returns the number of mono samples spanning d at the given rate.
func Samples(d time.Duration, rate int) int {
	return int(time.Duration(rate) * d / time.Second)
}
