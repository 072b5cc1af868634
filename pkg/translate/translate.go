// Package translate provides multilingual machine translation with
// automatic accelerator fallback.
//
// The package is built from three pieces:
//
//   - [Runtime] abstracts the inference backend that owns the model
//     weights. [HTTPRuntime] speaks JSON over HTTP to a local inference
//     daemon.
//   - [Manager] owns the device state machine. It starts on the
//     accelerator when one is present, loads the model lazily, and
//     falls back to the CPU at most once per process when the hardware
//     proves incompatible.
//   - [Service] is the user-facing API: Translate and BatchTranslate
//     with fixed decoding parameters, plus an optional persistent
//     result cache.
//
// Generation is deterministic: sampling is disabled, so the same input
// against the same weights and precision always produces the same
// output.
package translate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/voxlate/voxlate/pkg/lang"
)

// Decoding parameters, fixed for every request.
const (
	// MaxSequenceLength caps the token sequence length. Longer inputs
	// are truncated by the runtime; truncation is lossy and logged at
	// warn level, never an error.
	MaxSequenceLength = 512

	// BeamWidth is the beam search width.
	BeamWidth = 5
)

// DefaultModel is the translation model used when none is configured.
const DefaultModel = "facebook/m2m100_418M"

// ErrUnsupportedLanguage reports a language name missing from the catalog.
var ErrUnsupportedLanguage = errors.New("translate: unsupported language")

// ErrTranslationFailed reports that generation failed on the accelerator
// and failed again after the CPU fallback.
var ErrTranslationFailed = errors.New("translate: translation failed")

// Service translates text between catalog languages.
//
// A service-level mutex serializes handle acquisition and generation, so
// a device fallback can never race a concurrent generate call.
type Service struct {
	manager *Manager
	catalog *lang.Catalog
	cache   *ResultCache
	logger  *slog.Logger

	mu sync.Mutex
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithCatalog overrides the language catalog. Defaults to [lang.Default].
func WithCatalog(c *lang.Catalog) ServiceOption {
	return func(s *Service) {
		s.catalog = c
	}
}

// WithCache attaches a persistent result cache. Without one every
// request reaches the model.
func WithCache(cache *ResultCache) ServiceOption {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a translation service on the given device manager.
func NewService(manager *Manager, opts ...ServiceOption) *Service {
	s := &Service{
		manager: manager,
		catalog: lang.Default(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the language catalog the service resolves names with.
func (s *Service) Catalog() *lang.Catalog {
	return s.catalog
}

// Manager returns the device manager the service generates through.
func (s *Service) Manager() *Manager {
	return s.manager
}

// Translate translates text from sourceLang to targetLang, both
// human-readable catalog names such as "English".
//
// Equal source and target names return the text unchanged without
// touching the model. Unknown names return [ErrUnsupportedLanguage].
// An accelerator incompatibility during generation triggers the CPU
// fallback and exactly one retry; a second failure returns
// [ErrTranslationFailed]. Any other generation error propagates
// unmodified.
func (s *Service) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if sourceLang == targetLang {
		return text, nil
	}
	srcCode, ok := s.catalog.Code(sourceLang)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, sourceLang)
	}
	tgtCode, ok := s.catalog.Code(targetLang)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, targetLang)
	}
	if srcCode == tgtCode {
		return text, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache != nil {
		precision := PrecisionFor(s.manager.State())
		if cached, ok := s.cache.Get(ctx, srcCode, tgtCode, precision, text); ok {
			s.logger.Debug("translation cache hit", "source", srcCode, "target", tgtCode)
			return cached, nil
		}
	}

	out, err := s.generate(ctx, text, srcCode, tgtCode)
	if err != nil {
		return "", err
	}

	if s.cache != nil {
		// Key on the precision the result was produced with; a fallback
		// during generate changes it.
		s.cache.Put(ctx, srcCode, tgtCode, PrecisionFor(s.manager.State()), text, out)
	}
	s.logger.Info("translated text",
		"source", srcCode, "target", tgtCode,
		"chars_in", len(text), "chars_out", len(out))
	return out, nil
}

// generate runs one generation against the current handle, taking the
// device fallback and a single retry when the accelerator fails with an
// incompatibility mid-request.
func (s *Service) generate(ctx context.Context, text, srcCode, tgtCode string) (string, error) {
	handle, err := s.manager.Handle(ctx)
	if err != nil {
		return "", err
	}

	req := GenerateRequest{
		Text:          text,
		SourceCode:    srcCode,
		TargetCode:    tgtCode,
		MaxLength:     MaxSequenceLength,
		BeamWidth:     BeamWidth,
		EarlyStopping: true,
	}

	res, err := handle.Generate(ctx, req)
	if err != nil {
		if !IsIncompatibility(err) {
			return "", err
		}
		handle, err = s.manager.Fallback(ctx, err)
		if err != nil {
			return "", err
		}
		res, err = handle.Generate(ctx, req)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrTranslationFailed, err)
		}
	}
	if res.Truncated {
		s.logger.Warn("input exceeded max sequence length, truncated",
			"max_length", MaxSequenceLength, "source", srcCode, "target", tgtCode)
	}
	return res.Text, nil
}

// BatchTranslate translates texts one by one. A failed item keeps its
// original text, so one bad input never sinks the whole batch.
func (s *Service) BatchTranslate(ctx context.Context, texts []string, sourceLang, targetLang string) []string {
	out := make([]string, len(texts))
	for i, text := range texts {
		translated, err := s.Translate(ctx, text, sourceLang, targetLang)
		if err != nil {
			s.logger.Warn("batch item failed, keeping original text", "index", i, "error", err)
			out[i] = text
			continue
		}
		out[i] = translated
	}
	return out
}

// Info summarizes the translation surface for display.
type Info struct {
	Model     string      `json:"model" yaml:"model"`
	Device    DeviceState `json:"device" yaml:"device"`
	Languages int         `json:"supported_languages" yaml:"supported_languages"`
	Names     []string    `json:"languages" yaml:"languages"`
}

// Languages reports the model identifier, the active device and the
// supported language list.
func (s *Service) Languages() Info {
	status := s.manager.Status()
	return Info{
		Model:     status.Model,
		Device:    status.State,
		Languages: s.catalog.Len(),
		Names:     s.catalog.Names(),
	}
}
