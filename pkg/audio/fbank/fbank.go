// Package fbank computes log mel filterbank features from mono audio.
//
// It is the acoustic front-end for speaker embedding: preprocessed voice
// clips are converted to a [T, numMels] feature matrix which the embedder
// pools into a fixed-length vector. The extraction is fully deterministic,
// so identical input samples always produce identical features.
//
// Default parameters follow the common speaker-verification convention:
//
//	SampleRate:  16000
//	WindowSize:  400 (25 ms)
//	HopSize:     160 (10 ms)
//	FFTSize:     512
//	NumMels:     80
//	LowFreq:     20
//	HighFreq:    7600
//	PreEmphasis: 0.97
package fbank

import "math"

// Config controls mel filterbank extraction parameters.
type Config struct {
	SampleRate  int     // audio sample rate in Hz
	WindowSize  int     // analysis window length in samples
	HopSize     int     // hop between windows in samples
	FFTSize     int     // FFT size, must be a power of two ≥ WindowSize
	NumMels     int     // number of mel bins
	LowFreq     float64 // lowest mel band edge in Hz
	HighFreq    float64 // highest mel band edge in Hz
	PreEmphasis float64 // pre-emphasis coefficient
}

// DefaultConfig returns the standard 16 kHz front-end configuration.
func DefaultConfig() Config {
	return Config{
		SampleRate:  16000,
		WindowSize:  400,
		HopSize:     160,
		FFTSize:     512,
		NumMels:     80,
		LowFreq:     20,
		HighFreq:    7600,
		PreEmphasis: 0.97,
	}
}

// Extractor computes mel filterbank features from float32 samples.
// An Extractor is immutable after construction and safe for concurrent use.
type Extractor struct {
	cfg     Config
	window  []float64
	melBank [][]float64
}

// New creates an Extractor with the given config.
func New(cfg Config) *Extractor {
	return &Extractor{
		cfg:     cfg,
		window:  hammingWindow(cfg.WindowSize),
		melBank: melFilterBank(cfg.NumMels, cfg.FFTSize, cfg.SampleRate, cfg.LowFreq, cfg.HighFreq),
	}
}

// NumMels returns the number of mel bins per frame.
func (e *Extractor) NumMels() int { return e.cfg.NumMels }

// Extract computes log mel features for normalized samples in [-1, 1].
// The result has (len(samples)-WindowSize)/HopSize + 1 frames of NumMels
// values each; input shorter than one window yields nil.
func (e *Extractor) Extract(samples []float32) [][]float32 {
	cfg := e.cfg
	n := len(samples)
	if n < cfg.WindowSize {
		return nil
	}

	numFrames := (n-cfg.WindowSize)/cfg.HopSize + 1
	nfft := cfg.FFTSize
	halfFFT := nfft/2 + 1

	features := make([][]float32, numFrames)

	frame := make([]float64, nfft)
	re := make([]float64, nfft)
	im := make([]float64, nfft)
	power := make([]float64, halfFFT)

	for t := 0; t < numFrames; t++ {
		start := t * cfg.HopSize

		for i := 0; i < cfg.WindowSize; i++ {
			s := float64(samples[start+i])
			if i > 0 {
				s -= cfg.PreEmphasis * float64(samples[start+i-1])
			}
			frame[i] = s * e.window[i]
		}
		for i := cfg.WindowSize; i < nfft; i++ {
			frame[i] = 0
		}

		copy(re, frame)
		for i := range im {
			im[i] = 0
		}
		fft(re, im)

		for i := 0; i < halfFFT; i++ {
			power[i] = re[i]*re[i] + im[i]*im[i]
		}

		mel := make([]float32, cfg.NumMels)
		for m := 0; m < cfg.NumMels; m++ {
			sum := 0.0
			for k, w := range e.melBank[m] {
				sum += w * power[k]
			}
			// Floor before log to avoid -inf on silence.
			if sum < 1e-10 {
				sum = 1e-10
			}
			mel[m] = float32(math.Log(sum))
		}
		features[t] = mel
	}

	return features
}
