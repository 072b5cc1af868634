package translate_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/voxlate/voxlate/pkg/kv"
	"github.com/voxlate/voxlate/pkg/lang"
	"github.com/voxlate/voxlate/pkg/translate"
)

func newService(rt *fakeRuntime, opts ...translate.ServiceOption) *translate.Service {
	m := translate.NewManager(context.Background(), rt, "test-model", nil)
	return translate.NewService(m, opts...)
}

func TestTranslateSameLanguage(t *testing.T) {
	rt := &fakeRuntime{available: true}
	svc := newService(rt)

	got, err := svc.Translate(context.Background(), "Hello, world", "English", "English")
	if err != nil {
		t.Fatalf("Translate() error: %v", err)
	}
	if got != "Hello, world" {
		t.Errorf("Translate() = %q, want input unchanged", got)
	}
	if rt.loadCount() != 0 {
		t.Errorf("same-language translate loaded the model: %d loads", rt.loadCount())
	}
}

func TestTranslateUnknownLanguage(t *testing.T) {
	rt := &fakeRuntime{available: true}
	svc := newService(rt)
	ctx := context.Background()

	if _, err := svc.Translate(ctx, "hi", "Klingon", "Spanish"); !errors.Is(err, translate.ErrUnsupportedLanguage) {
		t.Errorf("unknown source: error = %v, want ErrUnsupportedLanguage", err)
	}
	if _, err := svc.Translate(ctx, "hi", "English", "Klingon"); !errors.Is(err, translate.ErrUnsupportedLanguage) {
		t.Errorf("unknown target: error = %v, want ErrUnsupportedLanguage", err)
	}
	if rt.loadCount() != 0 {
		t.Errorf("failed resolution loaded the model: %d loads", rt.loadCount())
	}
}

func TestTranslate(t *testing.T) {
	rt := &fakeRuntime{available: true}
	svc := newService(rt)

	got, err := svc.Translate(context.Background(), "Hello", "English", "Spanish")
	if err != nil {
		t.Fatalf("Translate() error: %v", err)
	}
	if got != "[es] Hello" {
		t.Errorf("Translate() = %q, want %q", got, "[es] Hello")
	}
	// One load, one probe generation plus the real one.
	if rt.loadCount() != 1 {
		t.Errorf("loads = %d, want 1", rt.loadCount())
	}
	if gens := rt.model(0).generations(); gens != 2 {
		t.Errorf("generations = %d, want 2 (probe + request)", gens)
	}
}

func TestTranslateFallbackAndRetry(t *testing.T) {
	// The accelerator passes the load probe, then dies on the first
	// real generation.
	rt := &fakeRuntime{available: true, gpuGenErr: errCUDA, gpuFailAfter: 1}
	svc := newService(rt)

	got, err := svc.Translate(context.Background(), "Hello", "English", "Spanish")
	if err != nil {
		t.Fatalf("Translate() error: %v", err)
	}
	if got != "[es] Hello" {
		t.Errorf("Translate() = %q, want result from the CPU retry", got)
	}
	if rt.loadCount() != 2 {
		t.Fatalf("loads = %d, want 2 (gpu then cpu)", rt.loadCount())
	}
	if d := rt.loadSpec(1).Device; d != translate.CPUFallback {
		t.Errorf("retry load on %v, want cpu", d)
	}
	if svc.Manager().State() != translate.CPUFallback {
		t.Errorf("state = %v, want cpu after fallback", svc.Manager().State())
	}

	// Later requests stay on the CPU handle without reloading.
	if _, err := svc.Translate(context.Background(), "Bye", "English", "French"); err != nil {
		t.Fatalf("second Translate() error: %v", err)
	}
	if rt.loadCount() != 2 {
		t.Errorf("loads after second translate = %d, want 2", rt.loadCount())
	}
}

func TestTranslateSecondFailure(t *testing.T) {
	rt := &fakeRuntime{
		available:    true,
		gpuGenErr:    errCUDA,
		gpuFailAfter: 1,
		cpuGenErr:    errCUDA,
	}
	svc := newService(rt)

	_, err := svc.Translate(context.Background(), "Hello", "English", "Spanish")
	if !errors.Is(err, translate.ErrTranslationFailed) {
		t.Fatalf("Translate() error = %v, want ErrTranslationFailed", err)
	}
}

func TestTranslateUnrelatedErrorPropagates(t *testing.T) {
	genErr := errors.New("scheduler queue full")
	rt := &fakeRuntime{available: true, gpuGenErr: genErr, gpuFailAfter: 1}
	svc := newService(rt)

	_, err := svc.Translate(context.Background(), "Hello", "English", "Spanish")
	if !errors.Is(err, genErr) {
		t.Fatalf("Translate() error = %v, want the generation error unmodified", err)
	}
	if errors.Is(err, translate.ErrTranslationFailed) {
		t.Error("unrelated error was wrapped as ErrTranslationFailed")
	}
	if rt.loadCount() != 1 {
		t.Errorf("loads = %d, want 1 (no fallback)", rt.loadCount())
	}
	if svc.Manager().State() != translate.GPUActive {
		t.Errorf("state = %v, want gpu untouched", svc.Manager().State())
	}
}

func TestTranslateTruncationWarning(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	rt := &fakeRuntime{available: false, truncate: true}
	svc := newService(rt, translate.WithLogger(logger))

	got, err := svc.Translate(context.Background(), "a very long input", "English", "Spanish")
	if err != nil {
		t.Fatalf("Translate() error: %v", err)
	}
	if got == "" {
		t.Error("truncated generation returned no text")
	}
	if !strings.Contains(buf.String(), "truncated") {
		t.Errorf("log missing truncation warning:\n%s", buf.String())
	}
}

func TestBatchTranslate(t *testing.T) {
	rt := &fakeRuntime{available: false, failText: "BOOM"}
	svc := newService(rt)

	texts := []string{"Hello", "BOOM", "Goodbye"}
	got := svc.BatchTranslate(context.Background(), texts, "English", "Spanish")

	want := []string{"[es] Hello", "BOOM", "[es] Goodbye"}
	if len(got) != len(want) {
		t.Fatalf("BatchTranslate() returned %d items, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestBatchTranslateEmpty(t *testing.T) {
	rt := &fakeRuntime{available: false}
	svc := newService(rt)

	if got := svc.BatchTranslate(context.Background(), nil, "English", "Spanish"); len(got) != 0 {
		t.Errorf("BatchTranslate(nil) = %v, want empty", got)
	}
}

func TestTranslateCache(t *testing.T) {
	store := kv.NewMemory(nil)
	defer store.Close()
	cache := translate.NewResultCache(store)

	rt := &fakeRuntime{available: false}
	svc := newService(rt, translate.WithCache(cache))
	ctx := context.Background()

	first, err := svc.Translate(ctx, "Hello", "English", "Spanish")
	if err != nil {
		t.Fatalf("Translate() error: %v", err)
	}
	if gens := rt.model(0).generations(); gens != 1 {
		t.Fatalf("generations = %d, want 1", gens)
	}

	second, err := svc.Translate(ctx, "Hello", "English", "Spanish")
	if err != nil {
		t.Fatalf("cached Translate() error: %v", err)
	}
	if second != first {
		t.Errorf("cached result = %q, want %q", second, first)
	}
	if gens := rt.model(0).generations(); gens != 1 {
		t.Errorf("cache hit still generated: %d generations", gens)
	}

	// A different input misses.
	if _, err := svc.Translate(ctx, "Goodbye", "English", "Spanish"); err != nil {
		t.Fatalf("Translate() error: %v", err)
	}
	if gens := rt.model(0).generations(); gens != 2 {
		t.Errorf("generations = %d, want 2", gens)
	}

	n, err := cache.Len(ctx)
	if err != nil {
		t.Fatalf("Len() error: %v", err)
	}
	if n != 2 {
		t.Errorf("cache entries = %d, want 2", n)
	}
}

func TestLanguages(t *testing.T) {
	rt := &fakeRuntime{available: true}
	m := translate.NewManager(context.Background(), rt, "facebook/m2m100_418M", nil)
	svc := translate.NewService(m)

	info := svc.Languages()
	if info.Model != "facebook/m2m100_418M" {
		t.Errorf("Model = %q", info.Model)
	}
	if info.Device != translate.GPUActive {
		t.Errorf("Device = %v, want gpu", info.Device)
	}
	if info.Languages != lang.Default().Len() {
		t.Errorf("Languages = %d, want %d", info.Languages, lang.Default().Len())
	}
	if len(info.Names) == 0 || info.Names[0] != "English" {
		t.Errorf("Names = %v, want English first", info.Names)
	}
}
