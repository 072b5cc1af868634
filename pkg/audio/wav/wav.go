// Package wav reads and writes RIFF/WAVE files carrying 16-bit PCM.
//
// Only uncompressed PCM16 is supported. Multi-channel input is downmixed
// to mono by averaging, since the whole pipeline operates on mono audio.
// Unknown RIFF chunks are skipped, so files with LIST/INFO metadata or
// fact chunks decode fine.
package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/voxlate/voxlate/pkg/audio/pcm"
)

// Audio is a decoded WAV file, downmixed to mono.
type Audio struct {
	// Samples is the mono signal, normalized to [-1, 1].
	Samples []float32

	// Rate is the sample rate in Hz.
	Rate int

	// Channels is the channel count of the source file before downmixing.
	Channels int
}

const (
	formatPCM = 1
)

// Decode reads a complete WAV stream.
//
// It fails with a descriptive error on anything that is not a RIFF/WAVE
// container with 16-bit PCM samples.
func Decode(r io.Reader) (*Audio, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return nil, fmt.Errorf("wav: read header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" {
		return nil, errors.New("wav: missing RIFF header")
	}
	if string(riff[8:12]) != "WAVE" {
		return nil, errors.New("wav: not a WAVE file")
	}

	var (
		rate     int
		channels int
		bits     int
		haveFmt  bool
		data     []byte
	)

	for {
		var hdr [8]byte
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return nil, fmt.Errorf("wav: read chunk header: %w", err)
		}
		id := string(hdr[0:4])
		size := binary.LittleEndian.Uint32(hdr[4:8])

		switch id {
		case "fmt ":
			if size < 16 {
				return nil, fmt.Errorf("wav: fmt chunk too short (%d bytes)", size)
			}
			buf := make([]byte, size)
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, fmt.Errorf("wav: read fmt chunk: %w", err)
			}
			format := int(binary.LittleEndian.Uint16(buf[0:2]))
			if format != formatPCM {
				return nil, fmt.Errorf("wav: unsupported audio format %d (only PCM)", format)
			}
			channels = int(binary.LittleEndian.Uint16(buf[2:4]))
			rate = int(binary.LittleEndian.Uint32(buf[4:8]))
			bits = int(binary.LittleEndian.Uint16(buf[14:16]))
			if bits != 16 {
				return nil, fmt.Errorf("wav: unsupported bit depth %d (only 16)", bits)
			}
			if channels < 1 {
				return nil, fmt.Errorf("wav: invalid channel count %d", channels)
			}
			if rate <= 0 {
				return nil, fmt.Errorf("wav: invalid sample rate %d", rate)
			}
			haveFmt = true

		case "data":
			buf := make([]byte, size)
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, fmt.Errorf("wav: read data chunk: %w", err)
			}
			data = buf

		default:
			// Chunks are word-aligned; odd sizes carry a pad byte.
			skip := int64(size)
			if size%2 == 1 {
				skip++
			}
			if _, err := io.CopyN(io.Discard, r, skip); err != nil {
				return nil, fmt.Errorf("wav: skip %q chunk: %w", id, err)
			}
		}

		if haveFmt && data != nil {
			break
		}
	}

	if !haveFmt {
		return nil, errors.New("wav: missing fmt chunk")
	}
	if data == nil {
		return nil, errors.New("wav: missing data chunk")
	}

	interleaved := pcm.ToFloat32(data)
	return &Audio{
		Samples:  downmix(interleaved, channels),
		Rate:     rate,
		Channels: channels,
	}, nil
}

// downmix averages interleaved channels into a mono signal.
func downmix(interleaved []float32, channels int) []float32 {
	if channels <= 1 {
		return interleaved
	}
	frames := len(interleaved) / channels
	mono := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += interleaved[i*channels+c]
		}
		mono[i] = sum / float32(channels)
	}
	return mono
}

// Encode writes samples as a mono PCM16 WAV stream.
// Samples outside [-1, 1] are clamped.
func Encode(w io.Writer, samples []float32, rate int) error {
	if rate <= 0 {
		return fmt.Errorf("wav: invalid sample rate %d", rate)
	}

	data := pcm.FromFloat32(samples)
	const headerSize = 44

	var hdr [headerSize]byte
	copy(hdr[0:4], "RIFF")
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(headerSize-8+len(data)))
	copy(hdr[8:12], "WAVE")
	copy(hdr[12:16], "fmt ")
	binary.LittleEndian.PutUint32(hdr[16:20], 16) // fmt chunk size
	binary.LittleEndian.PutUint16(hdr[20:22], formatPCM)
	binary.LittleEndian.PutUint16(hdr[22:24], 1) // mono
	binary.LittleEndian.PutUint32(hdr[24:28], uint32(rate))
	binary.LittleEndian.PutUint32(hdr[28:32], uint32(rate*pcm.BytesPerSample)) // byte rate
	binary.LittleEndian.PutUint16(hdr[32:34], pcm.BytesPerSample)              // block align
	binary.LittleEndian.PutUint16(hdr[34:36], 16)                              // bits per sample
	copy(hdr[36:40], "data")
	binary.LittleEndian.PutUint32(hdr[40:44], uint32(len(data)))

	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("wav: write header: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("wav: write data: %w", err)
	}
	return nil
}
