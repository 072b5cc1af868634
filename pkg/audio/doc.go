// Package audio provides audio processing utilities.
//
// This package serves as an umbrella for audio-related sub-packages:
//
//   - pcm: 16-bit PCM sample conversion and timing helpers
//   - wav: WAV (RIFF) decoding and encoding for mono PCM clips
//   - resample: sample rate conversion for whole clips
//   - fbank: log-mel filterbank features for speaker embeddings
//   - sample: reference clip validation and preprocessing
//
// Example usage:
//
//	import (
//	    "github.com/voxlate/voxlate/pkg/audio/resample"
//	    "github.com/voxlate/voxlate/pkg/audio/wav"
//	)
//
//	clip, err := wav.Decode(data)
//	if err != nil {
//	    return err
//	}
//	mono16k, err := resample.Convert(clip.Samples, clip.Rate, 16000)
package audio
