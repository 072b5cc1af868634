package synth_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/voxlate/voxlate/pkg/audio/wav"
	"github.com/voxlate/voxlate/pkg/profile"
	"github.com/voxlate/voxlate/pkg/storage"
	"github.com/voxlate/voxlate/pkg/synth"
)

func testProfile() *profile.Profile {
	return &profile.Profile{
		Embedding:   []float32{0.05, -0.02, 0.11, 0.07},
		SampleRate:  24000,
		SampleCount: 2,
		CreatedAt:   time.Now().UTC(),
	}
}

func newSynthesizer(t *testing.T) (*synth.Synthesizer, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewLocal(dir)
	if err != nil {
		t.Fatalf("NewLocal() error: %v", err)
	}
	return synth.New(synth.NewLocalEngine(), store), dir
}

func TestSynthesizeNoProfile(t *testing.T) {
	s, _ := newSynthesizer(t)

	_, err := s.Synthesize(context.Background(), synth.Request{Text: "Hola", Language: "es"})
	if !errors.Is(err, synth.ErrNoSpeakerProfile) {
		t.Fatalf("Synthesize() error = %v, want ErrNoSpeakerProfile", err)
	}
}

func TestSynthesizeEmptyText(t *testing.T) {
	s, _ := newSynthesizer(t)

	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := s.Synthesize(context.Background(), synth.Request{
			Text: text, Language: "es", Profile: testProfile(),
		})
		if err == nil {
			t.Errorf("Synthesize(%q) succeeded, want error", text)
		}
	}
}

func TestSynthesizeTextTooLong(t *testing.T) {
	s, _ := newSynthesizer(t)
	ctx := context.Background()

	_, err := s.Synthesize(ctx, synth.Request{
		Text: strings.Repeat("a", synth.MaxTextLength+1), Language: "es", Profile: testProfile(),
	})
	if !errors.Is(err, synth.ErrTextTooLong) {
		t.Fatalf("Synthesize() error = %v, want ErrTextTooLong", err)
	}

	// Exactly the limit passes.
	if _, err := s.Synthesize(ctx, synth.Request{
		Text: strings.Repeat("a", synth.MaxTextLength), Language: "es", Profile: testProfile(),
	}); err != nil {
		t.Fatalf("Synthesize() at the limit error: %v", err)
	}
}

func TestSynthesize(t *testing.T) {
	s, dir := newSynthesizer(t)
	p := testProfile()

	art, err := s.Synthesize(context.Background(), synth.Request{
		Text: "Hola mundo", Language: "es", Profile: p,
	})
	if err != nil {
		t.Fatalf("Synthesize() error: %v", err)
	}

	if art.Path != synth.DefaultName("es", "Hola mundo") {
		t.Errorf("Path = %q, want the default name", art.Path)
	}
	if art.SampleRate != p.SampleRate {
		t.Errorf("SampleRate = %d, want %d", art.SampleRate, p.SampleRate)
	}
	if art.Language != "es" {
		t.Errorf("Language = %q", art.Language)
	}
	// "Hola mundo" is 10 runes, 100 ms each.
	if art.Duration != time.Second {
		t.Errorf("Duration = %v, want 1s", art.Duration)
	}

	data, err := os.ReadFile(filepath.Join(dir, art.Path))
	if err != nil {
		t.Fatalf("artifact not written: %v", err)
	}
	if int64(len(data)) != art.Size {
		t.Errorf("Size = %d, file has %d bytes", art.Size, len(data))
	}

	decoded, err := wav.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("artifact does not decode: %v", err)
	}
	if decoded.Rate != p.SampleRate {
		t.Errorf("artifact rate = %d, want %d", decoded.Rate, p.SampleRate)
	}
	if len(decoded.Samples) != p.SampleRate {
		t.Errorf("artifact samples = %d, want %d", len(decoded.Samples), p.SampleRate)
	}
}

func TestSynthesizeCollision(t *testing.T) {
	s, _ := newSynthesizer(t)
	ctx := context.Background()
	req := synth.Request{Text: "Hola", Language: "es", Profile: testProfile()}

	first, err := s.Synthesize(ctx, req)
	if err != nil {
		t.Fatalf("Synthesize() error: %v", err)
	}
	second, err := s.Synthesize(ctx, req)
	if err != nil {
		t.Fatalf("second Synthesize() error: %v", err)
	}

	if second.Path == first.Path {
		t.Fatalf("collision reused path %q", first.Path)
	}
	base := strings.TrimSuffix(first.Path, ".wav")
	if !strings.HasPrefix(second.Path, base+"_") || !strings.HasSuffix(second.Path, ".wav") {
		t.Errorf("unique name = %q, want %s_<suffix>.wav", second.Path, base)
	}
}

func TestSynthesizeOverwrite(t *testing.T) {
	s, _ := newSynthesizer(t)
	ctx := context.Background()
	req := synth.Request{Text: "Hola", Language: "es", Profile: testProfile(), Overwrite: true}

	first, err := s.Synthesize(ctx, req)
	if err != nil {
		t.Fatalf("Synthesize() error: %v", err)
	}
	second, err := s.Synthesize(ctx, req)
	if err != nil {
		t.Fatalf("second Synthesize() error: %v", err)
	}
	if second.Path != first.Path {
		t.Errorf("Overwrite changed path: %q then %q", first.Path, second.Path)
	}
}

func TestSynthesizeCustomName(t *testing.T) {
	s, dir := newSynthesizer(t)
	ctx := context.Background()

	tests := []struct {
		name string
		want string
	}{
		{"greeting", "greeting.wav"},
		{"greeting.wav", "greeting.wav"},
		{"out/nested", "out/nested.wav"},
	}
	for _, tt := range tests {
		art, err := s.Synthesize(ctx, synth.Request{
			Text: "Hola", Language: "es", Profile: testProfile(), Name: tt.name, Overwrite: true,
		})
		if err != nil {
			t.Fatalf("Synthesize(Name=%q) error: %v", tt.name, err)
		}
		if art.Path != tt.want {
			t.Errorf("Path = %q, want %q", art.Path, tt.want)
		}
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(tt.want))); err != nil {
			t.Errorf("artifact %q not on disk: %v", tt.want, err)
		}
	}
}

func TestDefaultName(t *testing.T) {
	a := synth.DefaultName("es", "Hola mundo")
	b := synth.DefaultName("es", "Hola mundo")
	if a != b {
		t.Errorf("DefaultName not deterministic: %q vs %q", a, b)
	}
	if !strings.HasPrefix(a, "generated_speech_es_") || !strings.HasSuffix(a, ".wav") {
		t.Errorf("DefaultName = %q, want generated_speech_es_<hash>.wav", a)
	}
	if c := synth.DefaultName("fr", "Hola mundo"); c == a {
		t.Errorf("language not part of the name: %q", c)
	}
	if d := synth.DefaultName("es", "Adios"); d == a {
		t.Errorf("text hash not part of the name: %q", d)
	}
}
