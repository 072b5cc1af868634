package synth

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"

	"github.com/voxlate/voxlate/pkg/audio/sample"
	"github.com/voxlate/voxlate/pkg/profile"
)

// LocalEngine renders speech in-process.
//
// The output is a placeholder waveform rather than intelligible speech:
// a fundamental derived from the speaker embedding, shaped by a slow
// tremolo and seeded noise. Rendering is deterministic per (text,
// profile) pair, and the duration is 100 ms per rune of input.
type LocalEngine struct{}

var _ Engine = (*LocalEngine)(nil)

// NewLocalEngine creates the in-process engine.
func NewLocalEngine() *LocalEngine {
	return &LocalEngine{}
}

// Name implements [Engine].
func (*LocalEngine) Name() string { return "local" }

// Render implements [Engine].
func (*LocalEngine) Render(_ context.Context, text, _ string, p *profile.Profile) ([]float32, error) {
	rate := p.SampleRate
	if rate <= 0 {
		rate = sample.DefaultProfileRate
	}

	runes := []rune(text)
	n := rate * len(runes) / 10 // 100 ms per rune
	if n == 0 {
		return nil, fmt.Errorf("synth: nothing to render for %q", text)
	}

	fundamental := pitch(p.Embedding)
	rng := renderRand(text, p.Embedding)

	out := make([]float32, n)
	for i := range out {
		t := float64(i) / float64(rate)
		v := 0.3*math.Sin(2*math.Pi*fundamental*t) + 0.05*rng.NormFloat64()
		v *= 1 + 0.1*math.Sin(2*math.Pi*2*t)
		out[i] = float32(v)
	}
	return out, nil
}

// pitch derives the fundamental frequency from the leading embedding
// component. Unit-norm embeddings keep components near ±0.06, so the
// result stays in a band around 440 Hz.
func pitch(embedding []float32) float64 {
	f := 440.0
	if len(embedding) > 0 {
		f += 800 * float64(embedding[0])
	}
	return f
}

// renderRand seeds the noise source from the text and the embedding, so
// the same request always renders the same waveform and different
// voices never share one.
func renderRand(text string, embedding []float32) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(text))
	var b [4]byte
	for _, v := range embedding {
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
		h.Write(b[:])
	}
	seed := h.Sum64()
	return rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
}
