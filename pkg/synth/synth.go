// Package synth renders translated text to speech in a cloned voice and
// writes the result as a WAV artifact.
//
// A [Synthesizer] ties three pieces together: a speaker profile that
// conditions the voice, an [Engine] that renders the waveform, and a
// [storage.FileStore] the artifact is written to. Two engines ship with
// the package: [LocalEngine], a deterministic in-process renderer, and
// [RemoteEngine], a websocket client for a voice-clone TTS server.
package synth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/voxlate/voxlate/pkg/audio/pcm"
	"github.com/voxlate/voxlate/pkg/audio/wav"
	"github.com/voxlate/voxlate/pkg/profile"
	"github.com/voxlate/voxlate/pkg/storage"
)

// MaxTextLength is the longest input accepted for one synthesis, in
// runes.
const MaxTextLength = 1000

// Sentinel errors.
var (
	// ErrNoSpeakerProfile is returned when no speaker profile is
	// supplied. Synthesis always speaks in a cloned voice; there is no
	// default voice to fall back to.
	ErrNoSpeakerProfile = errors.New("synth: no speaker profile available")

	// ErrTextTooLong is returned for inputs over MaxTextLength runes.
	ErrTextTooLong = errors.New("synth: text too long")
)

// Request describes one synthesis.
type Request struct {
	// Text is what to speak, in the target language.
	Text string

	// Language is the model language code the text is in, e.g. "es".
	// It only names the artifact; the engine speaks whatever it is given.
	Language string

	// Profile is the speaker profile conditioning the voice.
	Profile *profile.Profile

	// Name overrides the default artifact name. A missing .wav
	// extension is added.
	Name string

	// Overwrite allows replacing an existing artifact. Without it a
	// name collision picks a fresh unique name instead.
	Overwrite bool
}

// Artifact describes a written speech artifact.
type Artifact struct {
	Path       string        `json:"path"`
	SampleRate int           `json:"sample_rate"`
	Duration   time.Duration `json:"duration"`
	Language   string        `json:"language"`
	Size       int64         `json:"size"`
}

// Engine renders text to a waveform in the voice of a speaker profile.
type Engine interface {
	// Render synthesizes text and returns mono samples at the
	// profile's sample rate.
	Render(ctx context.Context, text, langCode string, p *profile.Profile) ([]float32, error)

	// Name identifies the engine for logs and status display.
	Name() string
}

// Synthesizer renders speech through an engine and persists the result.
type Synthesizer struct {
	engine Engine
	store  storage.FileStore
	logger *slog.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Synthesizer) { s.logger = logger }
}

// New creates a Synthesizer rendering through engine and writing
// artifacts to store.
func New(engine Engine, store storage.FileStore, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		engine: engine,
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize renders req and writes the WAV artifact.
//
// The artifact's sample rate always equals the profile's sample rate,
// and its duration grows with the text length. The default artifact
// name is generated_speech_<lang>_<hash>.wav with a hash of the text;
// identical requests land on the same name.
func (s *Synthesizer) Synthesize(ctx context.Context, req Request) (*Artifact, error) {
	if req.Profile == nil {
		return nil, ErrNoSpeakerProfile
	}
	if strings.TrimSpace(req.Text) == "" {
		return nil, errors.New("synth: empty text")
	}
	if n := utf8.RuneCountInString(req.Text); n > MaxTextLength {
		return nil, fmt.Errorf("%w: %d runes (maximum %d)", ErrTextTooLong, n, MaxTextLength)
	}

	samples, err := s.engine.Render(ctx, req.Text, req.Language, req.Profile)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := wav.Encode(&buf, samples, req.Profile.SampleRate); err != nil {
		return nil, fmt.Errorf("synth: encode artifact: %w", err)
	}

	name, err := s.resolveName(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := storage.WriteAll(ctx, s.store, name, buf.Bytes()); err != nil {
		return nil, fmt.Errorf("synth: write artifact: %w", err)
	}

	art := &Artifact{
		Path:       name,
		SampleRate: req.Profile.SampleRate,
		Duration:   pcm.Duration(len(samples), req.Profile.SampleRate),
		Language:   req.Language,
		Size:       int64(buf.Len()),
	}
	s.logger.Info("speech generated",
		"engine", s.engine.Name(), "path", art.Path,
		"duration", art.Duration, "size", art.Size)
	return art, nil
}

// resolveName picks the artifact name, dodging collisions unless the
// request allows overwriting.
func (s *Synthesizer) resolveName(ctx context.Context, req Request) (string, error) {
	name := req.Name
	if name == "" {
		name = DefaultName(req.Language, req.Text)
	} else if path.Ext(name) == "" {
		name += ".wav"
	}
	if req.Overwrite {
		return name, nil
	}

	exists, err := s.store.Exists(ctx, name)
	if err != nil {
		return "", fmt.Errorf("synth: check artifact name: %w", err)
	}
	if !exists {
		return name, nil
	}
	unique := uniqueName(name)
	s.logger.Debug("artifact name taken, using unique name", "name", name, "unique", unique)
	return unique, nil
}

// DefaultName returns the artifact name for text in the given language:
// generated_speech_<lang>_<hash>.wav, where hash is the FNV-1a text
// hash mod 10000.
func DefaultName(langCode, text string) string {
	h := fnv.New32a()
	h.Write([]byte(text))
	return fmt.Sprintf("generated_speech_%s_%d.wav", langCode, h.Sum32()%10000)
}

// uniqueName splices a random suffix in front of the extension.
func uniqueName(name string) string {
	ext := path.Ext(name)
	return strings.TrimSuffix(name, ext) + "_" + uuid.New().String()[:8] + ext
}
