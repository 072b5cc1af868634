// Package sample handles reference voice clips: decoding, validation,
// preprocessing for embedding, and synthetic clip generation for tests.
//
// # Validation
//
// [Validate] and [ValidateFile] apply the acceptance rules for profile
// training material: the clip must decode, last between [MinDuration] and
// [MaxDuration], and contain audible signal after silence trimming. The
// outcome is always a [Report]; validation never returns an error and never
// panics, so a batch of candidate files can be checked in one pass.
//
// # Preprocessing
//
// [Preprocess] converts an accepted clip into embedding input: resampled to
// the profile rate, peak-normalized, silence-trimmed.
package sample

import (
	"fmt"
	"io"
	"time"

	"github.com/voxlate/voxlate/pkg/audio/pcm"
	"github.com/voxlate/voxlate/pkg/audio/wav"
)

// Clip is a decoded mono audio clip.
type Clip struct {
	// Data holds mono samples normalized to [-1, 1].
	Data []float32

	// Rate is the sample rate in Hz.
	Rate int
}

// Duration returns the clip length derived from sample count and rate.
func (c *Clip) Duration() time.Duration {
	if c == nil || c.Rate <= 0 {
		return 0
	}
	return pcm.Duration(len(c.Data), c.Rate)
}

// Decode reads a WAV stream into a Clip.
func Decode(r io.Reader) (*Clip, error) {
	a, err := wav.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("sample: %w", err)
	}
	return &Clip{Data: a.Samples, Rate: a.Rate}, nil
}
