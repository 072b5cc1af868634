package sample

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/voxlate/voxlate/pkg/audio/pcm"
)

// Synthetic generates a deterministic test clip: a 440 Hz fundamental with
// a first harmonic, seeded Gaussian noise, and an exponential decay
// envelope. The same (d, rate, seed) always yields the same samples.
func Synthetic(d time.Duration, rate int, seed uint64) *Clip {
	n := pcm.Samples(d, rate)
	rng := rand.New(rand.NewPCG(seed, seed^0xdeadbeef))

	data := make([]float32, n)
	secs := d.Seconds()
	for i := range data {
		t := float64(i) / float64(rate)
		v := 0.3*math.Sin(2*math.Pi*440*t) + 0.1*math.Sin(2*math.Pi*880*t)
		v += 0.05 * rng.NormFloat64()
		v *= math.Exp(-t / (secs * 0.3))
		data[i] = float32(v)
	}
	return &Clip{Data: data, Rate: rate}
}
