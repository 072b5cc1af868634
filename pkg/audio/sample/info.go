package sample

import (
	"fmt"
	"os"
	"time"

	"github.com/voxlate/voxlate/pkg/audio/pcm"
	"github.com/voxlate/voxlate/pkg/audio/wav"
)

// Info describes an audio file on disk.
type Info struct {
	Path     string
	Duration time.Duration
	Rate     int
	Channels int
	Samples  int
	Size     int64
}

// FileInfo reads the WAV file at path and reports its properties. Unlike
// [ValidateFile] it applies no acceptance rules; a decodable file of any
// length succeeds.
func FileInfo(path string) (*Info, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("sample: %w", err)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sample: %w", err)
	}
	defer f.Close()

	a, err := wav.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("sample: %s: %w", path, err)
	}

	return &Info{
		Path:     path,
		Duration: pcm.Duration(len(a.Samples), a.Rate),
		Rate:     a.Rate,
		Channels: a.Channels,
		Samples:  len(a.Samples),
		Size:     st.Size(),
	}, nil
}
