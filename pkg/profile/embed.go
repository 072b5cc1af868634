package profile

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/voxlate/voxlate/pkg/audio/fbank"
	"github.com/voxlate/voxlate/pkg/audio/resample"
	"github.com/voxlate/voxlate/pkg/audio/sample"
)

// DefaultSeed seeds the embedding projection. Changing it changes every
// embedding, which invalidates stored profiles.
const DefaultSeed uint64 = 0x766f78

// Embedder derives a speaker embedding of exactly Dim dimensions from
// preprocessed clips. Implementations must be deterministic: the same clip
// bytes always produce the same embedding.
type Embedder interface {
	Embed(clips []*sample.Clip) ([]float32, error)
}

// FbankEmbedder computes speaker embeddings from log-mel filterbank
// statistics.
//
// Per clip, a 16 kHz front-end extracts fbank frames; mean and standard
// deviation over time form one statistics vector per clip. Clip vectors
// are averaged, projected through a fixed seeded Gaussian matrix down to
// Dim dimensions, and L2-normalized. No learned weights are involved, so
// a neural backend can replace this without touching the Store.
type FbankEmbedder struct {
	ext    *fbank.Extractor
	rate   int
	planes [][]float32 // Dim × (2·mels), unit rows
}

// NewFbankEmbedder creates the default embedder with the given projection
// seed.
func NewFbankEmbedder(seed uint64) *FbankEmbedder {
	cfg := fbank.DefaultConfig()
	statDim := 2 * cfg.NumMels

	rng := rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
	planes := make([][]float32, Dim)
	for i := range planes {
		row := make([]float32, statDim)
		var norm float64
		for j := range row {
			v := float32(rng.NormFloat64())
			row[j] = v
			norm += float64(v) * float64(v)
		}
		norm = math.Sqrt(norm)
		for j := range row {
			row[j] = float32(float64(row[j]) / norm)
		}
		planes[i] = row
	}

	return &FbankEmbedder{
		ext:    fbank.New(cfg),
		rate:   cfg.SampleRate,
		planes: planes,
	}
}

// Embed implements Embedder.
func (e *FbankEmbedder) Embed(clips []*sample.Clip) ([]float32, error) {
	if len(clips) == 0 {
		return nil, errors.New("profile: no clips to embed")
	}

	statDim := len(e.planes[0])
	acc := make([]float64, statDim)
	for _, clip := range clips {
		stats, err := e.clipStats(clip)
		if err != nil {
			return nil, err
		}
		for i, v := range stats {
			acc[i] += v
		}
	}
	for i := range acc {
		acc[i] /= float64(len(clips))
	}

	out := make([]float32, Dim)
	var norm float64
	for i, plane := range e.planes {
		var dot float64
		for j, w := range plane {
			dot += float64(w) * acc[j]
		}
		out[i] = float32(dot)
		norm += dot * dot
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return nil, errors.New("profile: degenerate embedding, clips carry no signal")
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / norm)
	}
	return out, nil
}

// clipStats extracts the mean+std filterbank statistics for one clip.
func (e *FbankEmbedder) clipStats(clip *sample.Clip) ([]float64, error) {
	data := clip.Data
	if clip.Rate != e.rate {
		var err error
		data, err = resample.Convert(data, clip.Rate, e.rate)
		if err != nil {
			return nil, fmt.Errorf("profile: embed: %w", err)
		}
	}

	frames := e.ext.Extract(data)
	if len(frames) == 0 {
		return nil, fmt.Errorf("profile: clip too short for analysis (%d samples at %d Hz)",
			len(clip.Data), clip.Rate)
	}

	mels := e.ext.NumMels()
	mean := make([]float64, mels)
	for _, f := range frames {
		for j, v := range f {
			mean[j] += float64(v)
		}
	}
	for j := range mean {
		mean[j] /= float64(len(frames))
	}

	variance := make([]float64, mels)
	for _, f := range frames {
		for j, v := range f {
			d := float64(v) - mean[j]
			variance[j] += d * d
		}
	}

	stats := make([]float64, 2*mels)
	for j := range mean {
		stats[j] = mean[j]
		stats[mels+j] = math.Sqrt(variance[j] / float64(len(frames)))
	}
	return stats, nil
}
