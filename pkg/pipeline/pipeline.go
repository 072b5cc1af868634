// Package pipeline chains translation and speaker-conditioned speech
// synthesis into a single run.
//
// An Orchestrator gates on a trained speaker profile, translates the
// input through a [translate.Service] and renders the translation with
// a [synth.Synthesizer] conditioned on that profile. It adds no retries
// of its own: a translation failure aborts the run before any synthesis
// is attempted, and device fallback lives below in the translation
// layer.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/voxlate/voxlate/pkg/profile"
	"github.com/voxlate/voxlate/pkg/synth"
	"github.com/voxlate/voxlate/pkg/translate"
)

var (
	// ErrProfileRequired is returned by Run when no speaker profile has
	// been trained. A run never trains one implicitly.
	ErrProfileRequired = errors.New("pipeline: no speaker profile, record voice samples first")

	// ErrSynthesisFailed marks a synthesis failure after translation
	// already succeeded.
	ErrSynthesisFailed = errors.New("pipeline: speech synthesis failed")
)

// Result is one completed pipeline run.
type Result struct {
	// Artifact is the stored speech rendition of TranslatedText.
	Artifact *synth.Artifact `json:"artifact"`

	// TranslatedText is surfaced alongside the audio for display.
	TranslatedText string `json:"translated_text"`

	// RequestID correlates the log lines of one run.
	RequestID string `json:"request_id"`
}

// Orchestrator runs the translate-then-synthesize pipeline.
type Orchestrator struct {
	profiles    *profile.Store
	translator  *translate.Service
	synthesizer *synth.Synthesizer
	logger      *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// New creates an Orchestrator over a profile store, a translation
// service and a synthesizer.
func New(profiles *profile.Store, translator *translate.Service, synthesizer *synth.Synthesizer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		profiles:    profiles,
		translator:  translator,
		synthesizer: synthesizer,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunOption adjusts a single Run.
type RunOption func(*runConfig)

type runConfig struct {
	name      string
	overwrite bool
}

// WithArtifactName names the output artifact instead of letting the
// synthesizer derive one from the text.
func WithArtifactName(name string) RunOption {
	return func(c *runConfig) { c.name = name }
}

// WithOverwrite lets the run replace an existing artifact of the same
// name.
func WithOverwrite() RunOption {
	return func(c *runConfig) { c.overwrite = true }
}

// Run translates text from sourceLang to targetLang (catalog names such
// as "English") and renders the translation in the trained speaker's
// voice.
//
// Without a trained profile it fails with [ErrProfileRequired] before
// any model work. A translation failure aborts the run with the
// service's error; a synthesis failure is wrapped in
// [ErrSynthesisFailed].
func (o *Orchestrator) Run(ctx context.Context, text, sourceLang, targetLang string, opts ...RunOption) (*Result, error) {
	var cfg runConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	if !o.profiles.Exists() {
		return nil, ErrProfileRequired
	}
	speaker, err := o.profiles.Load()
	if err != nil {
		return nil, err
	}

	tgtCode, ok := o.translator.Catalog().Code(targetLang)
	if !ok {
		return nil, fmt.Errorf("%w: %q", translate.ErrUnsupportedLanguage, targetLang)
	}

	id := uuid.New().String()
	logger := o.logger.With("request_id", id)
	logger.Debug("pipeline run started", "source", sourceLang, "target", targetLang)

	translated, err := o.translator.Translate(ctx, text, sourceLang, targetLang)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	artifact, err := o.synthesizer.Synthesize(ctx, synth.Request{
		Text:      translated,
		Language:  tgtCode,
		Profile:   speaker,
		Name:      cfg.name,
		Overwrite: cfg.overwrite,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}

	logger.Info("pipeline run complete",
		"source", sourceLang, "target", targetLang,
		"artifact", artifact.Path, "duration", artifact.Duration)

	return &Result{
		Artifact:       artifact,
		TranslatedText: translated,
		RequestID:      id,
	}, nil
}
