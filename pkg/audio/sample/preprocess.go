package sample

import (
	"errors"
	"fmt"
	"math"

	"github.com/voxlate/voxlate/pkg/audio/resample"
)

// DefaultProfileRate is the sample rate clips are converted to before
// speaker embedding.
const DefaultProfileRate = 24000

// Frame geometry for silence detection.
const (
	trimFrameLength = 2048
	trimHopLength   = 512
)

// Preprocess prepares an accepted clip for embedding: resample to
// targetRate, peak-normalize, then trim leading and trailing silence.
// It fails if the clip is empty or silent after trimming.
func Preprocess(clip *Clip, targetRate int) (*Clip, error) {
	if clip == nil || len(clip.Data) == 0 {
		return nil, errors.New("sample: empty clip")
	}

	var data []float32
	if clip.Rate != targetRate {
		var err error
		data, err = resample.Convert(clip.Data, clip.Rate, targetRate)
		if err != nil {
			return nil, fmt.Errorf("sample: preprocess: %w", err)
		}
	} else {
		data = append([]float32(nil), clip.Data...)
	}

	data = Normalize(data)
	data = TrimSilence(data, TrimThresholdDB)
	if len(data) == 0 {
		return nil, errors.New("sample: clip is silent after trimming")
	}

	return &Clip{Data: data, Rate: targetRate}, nil
}

// Normalize scales data in place so its peak magnitude is 1 and returns it.
// Digital silence is returned unchanged.
func Normalize(data []float32) []float32 {
	var peak float32
	for _, s := range data {
		if a := float32(math.Abs(float64(s))); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return data
	}
	for i := range data {
		data[i] /= peak
	}
	return data
}

// TrimSilence removes leading and trailing regions whose frame RMS falls
// more than topDB below the loudest frame, and returns the remaining
// subslice of data. A clip with no frame above the threshold trims to nil.
func TrimSilence(data []float32, topDB float64) []float32 {
	if len(data) == 0 {
		return nil
	}

	var rms []float64
	for start := 0; start < len(data); start += trimHopLength {
		end := min(start+trimFrameLength, len(data))
		var sum float64
		for _, s := range data[start:end] {
			sum += float64(s) * float64(s)
		}
		rms = append(rms, math.Sqrt(sum/float64(end-start)))
	}

	var ref float64
	for _, r := range rms {
		if r > ref {
			ref = r
		}
	}
	if ref == 0 {
		return nil
	}

	threshold := ref * math.Pow(10, -topDB/20)
	first, last := -1, -1
	for i, r := range rms {
		if r > threshold {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return nil
	}

	start := first * trimHopLength
	end := min(last*trimHopLength+trimFrameLength, len(data))
	return data[start:end]
}
