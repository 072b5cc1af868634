package sample

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"
)

const (
	// MinDuration is the shortest acceptable reference clip.
	MinDuration = time.Second

	// MaxDuration is the longest acceptable reference clip. A clip of
	// exactly this length is accepted with a warning.
	MaxDuration = 30 * time.Second

	// TrimThresholdDB is the silence threshold relative to the loudest
	// frame, used both for validation and preprocessing.
	TrimThresholdDB = 20.0
)

// Report is the outcome of validating one candidate clip.
type Report struct {
	// Accepted is true when the clip can be used for profile training.
	Accepted bool

	// Reason explains a rejection. Empty when Accepted.
	Reason string

	// Warning flags an accepted clip that sits at a rule boundary.
	Warning string

	// Duration and Rate describe the decoded clip. Zero when decoding failed.
	Duration time.Duration
	Rate     int
}

// ValidateFile checks the WAV file at path against the acceptance rules.
func ValidateFile(path string) Report {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Report{Reason: "file does not exist"}
		}
		return Report{Reason: fmt.Sprintf("error validating audio: %v", err)}
	}
	defer f.Close()
	return Validate(f)
}

// Validate checks a WAV stream against the acceptance rules. All failure
// modes are reported through [Report.Reason]; Validate never returns an
// error.
func Validate(r io.Reader) Report {
	clip, err := Decode(r)
	if err != nil {
		return Report{Reason: fmt.Sprintf("error validating audio: %v", err)}
	}
	return validateClip(clip)
}

func validateClip(clip *Clip) Report {
	rep := Report{Duration: clip.Duration(), Rate: clip.Rate}

	if len(clip.Data) == 0 {
		rep.Reason = "audio file is empty"
		return rep
	}

	secs := rep.Duration.Seconds()
	if rep.Duration < MinDuration {
		rep.Reason = fmt.Sprintf("audio too short: %.2fs (minimum 1s required)", secs)
		return rep
	}
	if rep.Duration > MaxDuration {
		rep.Reason = fmt.Sprintf("audio too long: %.2fs (maximum 30s recommended)", secs)
		return rep
	}

	if len(TrimSilence(clip.Data, TrimThresholdDB)) == 0 {
		rep.Reason = "audio contains only silence"
		return rep
	}

	rep.Accepted = true
	if rep.Duration == MaxDuration {
		rep.Warning = fmt.Sprintf("audio is exactly %.0fs, at the recommended maximum", secs)
	}
	return rep
}
