// Package profile stores the speaker profile that conditions speech
// synthesis on a cloned voice.
//
// A profile is derived from at least [MinSamples] accepted reference clips
// and persisted as a single msgpack file. The [Store] owns that file
// exclusively and guarantees it is never observed half-written: every save
// goes through a temp file and an atomic rename.
//
// # Retraining
//
// [Store.Invalidate] marks the profile for retraining by moving the active
// file aside as a backup. While the retrain is pending, [Store.Exists]
// reports false. A successful [Store.Build] completes the retrain and
// discards the backup; [Store.Restore] abandons it and reinstates the
// previous profile. The old profile is therefore never lost to a failed
// retrain.
package profile

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/voxlate/voxlate/pkg/audio/sample"
)

const (
	// Dim is the embedding dimensionality.
	Dim = 256

	// MinSamples is the minimum number of accepted clips a profile can be
	// built from.
	MinSamples = 2
)

// Sentinel errors.
var (
	// ErrNotFound is returned when no usable profile is stored. Corrupt
	// profile files are reported the same way after a warning log.
	ErrNotFound = errors.New("profile: not found")

	// ErrInsufficientSamples is returned by Build when fewer than
	// MinSamples clips are provided.
	ErrInsufficientSamples = errors.New("profile: at least 2 voice samples are required")
)

// Profile is a trained speaker profile.
type Profile struct {
	// Embedding is the Dim-dimensional speaker vector.
	Embedding []float32 `json:"embedding" msgpack:"embedding"`

	// SampleRate is the rate synthesis output is rendered at, inherited
	// from the preprocessed training clips.
	SampleRate int `json:"sample_rate" msgpack:"sample_rate"`

	// SampleCount is how many clips the profile was built from.
	SampleCount int `json:"sample_count" msgpack:"sample_count"`

	// CreatedAt is the build time in UTC.
	CreatedAt time.Time `json:"created_at" msgpack:"created_at"`
}

// Store manages the on-disk profile file.
// Methods are not safe for concurrent use; the pipeline is single-writer.
type Store struct {
	path     string
	embedder Embedder
	log      *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithEmbedder replaces the default filterbank embedder.
func WithEmbedder(e Embedder) Option {
	return func(s *Store) { s.embedder = e }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// NewStore creates a Store over the profile file at path.
func NewStore(path string, opts ...Option) *Store {
	s := &Store{
		path: path,
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.embedder == nil {
		s.embedder = NewFbankEmbedder(DefaultSeed)
	}
	return s
}

// Path returns the active profile file path.
func (s *Store) Path() string { return s.path }

func (s *Store) backupPath() string { return s.path + ".bak" }

// Exists reports whether a usable profile is stored: the active file is
// present and decodes. While a retrain is pending the active file has been
// moved aside, so Exists reports false.
func (s *Store) Exists() bool {
	_, err := s.Load()
	return err == nil
}

// Load reads the active profile. A missing file yields ErrNotFound; a file
// that does not decode is logged at warn and also yields ErrNotFound, so
// callers treat corruption as an untrained profile rather than a crash.
func (s *Store) Load() (*Profile, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("profile: load: %w", err)
	}

	var p Profile
	if err := msgpack.Unmarshal(data, &p); err != nil {
		s.log.Warn("profile file is corrupt, treating as missing",
			"path", s.path, "error", err)
		return nil, ErrNotFound
	}
	if len(p.Embedding) == 0 || p.SampleRate <= 0 {
		s.log.Warn("profile file is incomplete, treating as missing",
			"path", s.path)
		return nil, ErrNotFound
	}
	return &p, nil
}

// Build derives a profile from the given preprocessed clips and persists
// it atomically. Fewer than MinSamples usable clips fail with
// ErrInsufficientSamples and leave any existing profile untouched.
// A successful Build completes a pending retrain and discards the backup.
func (s *Store) Build(clips []*sample.Clip) (*Profile, error) {
	valid := make([]*sample.Clip, 0, len(clips))
	for _, c := range clips {
		if c != nil && len(c.Data) > 0 {
			valid = append(valid, c)
		}
	}
	if len(valid) < MinSamples {
		return nil, fmt.Errorf("%w: got %d", ErrInsufficientSamples, len(valid))
	}

	emb, err := s.embedder.Embed(valid)
	if err != nil {
		return nil, fmt.Errorf("profile: build: %w", err)
	}

	p := &Profile{
		Embedding:   emb,
		SampleRate:  valid[0].Rate,
		SampleCount: len(valid),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.save(p); err != nil {
		return nil, err
	}

	// Retrain complete; the superseded backup is no longer needed.
	if err := os.Remove(s.backupPath()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.log.Warn("could not remove superseded profile backup",
			"path", s.backupPath(), "error", err)
	}

	s.log.Info("speaker profile built",
		"samples", p.SampleCount, "rate", p.SampleRate, "path", s.path)
	return p, nil
}

// save writes the profile through a temp file and an atomic rename. The
// active file is either the old profile or the new one, never a partial
// write.
func (s *Store) save(p *Profile) error {
	data, err := msgpack.Marshal(p)
	if err != nil {
		return fmt.Errorf("profile: encode: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("profile: save: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("profile: save: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("profile: save: %w", err)
	}
	return nil
}

// Invalidate moves the active profile aside as a backup, marking a retrain
// as pending. The profile data is kept until a later Build succeeds.
// Returns ErrNotFound when no active profile exists.
func (s *Store) Invalidate() error {
	err := os.Rename(s.path, s.backupPath())
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("profile: invalidate: %w", err)
	}
	s.log.Info("speaker profile invalidated, retrain pending",
		"backup", s.backupPath())
	return nil
}

// Restore abandons a pending retrain and reinstates the backup as the
// active profile.
func (s *Store) Restore() error {
	if _, err := os.Stat(s.path); err == nil {
		return errors.New("profile: restore: an active profile is already present")
	}
	err := os.Rename(s.backupPath(), s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("profile: restore: no backup: %w", ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("profile: restore: %w", err)
	}
	s.log.Info("speaker profile restored from backup", "path", s.path)
	return nil
}

// NeedsRetrain reports whether an Invalidate is pending: the active
// profile is gone but its backup is still waiting for a successful Build.
func (s *Store) NeedsRetrain() bool {
	if _, err := os.Stat(s.path); err == nil {
		return false
	}
	_, err := os.Stat(s.backupPath())
	return err == nil
}
