package translate_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/voxlate/voxlate/pkg/translate"
)

// errCUDA mimics the message a CUDA runtime emits on an architecture
// mismatch.
var errCUDA = errors.New("CUDA error: no kernel image is available for execution on the device")

// fakeModel is a scriptable in-process model. Generation number
// failAfter and later fail with err; failAfter 0 with a non-nil err
// fails every call.
type fakeModel struct {
	info      translate.ModelInfo
	err       error
	failAfter int
	failText  string
	truncate  bool

	mu        sync.Mutex
	generated int
	closed    bool
}

func (m *fakeModel) Generate(_ context.Context, req translate.GenerateRequest) (*translate.GenerateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generated++
	if m.err != nil && m.generated > m.failAfter {
		return nil, m.err
	}
	if m.failText != "" && req.Text == m.failText {
		return nil, fmt.Errorf("generation rejected input %q", req.Text)
	}
	return &translate.GenerateResult{
		Text:      "[" + req.TargetCode + "] " + req.Text,
		Truncated: m.truncate,
	}, nil
}

func (m *fakeModel) Info() translate.ModelInfo { return m.info }

func (m *fakeModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *fakeModel) generations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generated
}

// fakeRuntime hands out fakeModels and records every load request.
type fakeRuntime struct {
	available bool
	accelErr  error

	gpuLoadErr   error
	cpuLoadErr   error
	gpuGenErr    error
	gpuFailAfter int
	cpuGenErr    error
	failText     string
	truncate     bool

	mu     sync.Mutex
	loads  []translate.LoadSpec
	models []*fakeModel
}

func (r *fakeRuntime) Accelerator(context.Context) (*translate.Accelerator, error) {
	if r.accelErr != nil {
		return nil, r.accelErr
	}
	return &translate.Accelerator{Available: r.available, Name: "FakeAccel", MemoryGB: 8}, nil
}

func (r *fakeRuntime) Load(_ context.Context, spec translate.LoadSpec) (translate.Model, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads = append(r.loads, spec)

	switch spec.Device {
	case translate.GPUActive:
		if r.gpuLoadErr != nil {
			return nil, r.gpuLoadErr
		}
	case translate.CPUFallback:
		if r.cpuLoadErr != nil {
			return nil, r.cpuLoadErr
		}
	}

	m := &fakeModel{
		info: translate.ModelInfo{
			Model:     spec.Model,
			Device:    spec.Device,
			Precision: spec.Precision,
		},
		failText: r.failText,
		truncate: r.truncate,
	}
	if spec.Device == translate.GPUActive {
		m.err = r.gpuGenErr
		m.failAfter = r.gpuFailAfter
	} else {
		m.err = r.cpuGenErr
	}
	r.models = append(r.models, m)
	return m, nil
}

func (r *fakeRuntime) loadCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.loads)
}

func (r *fakeRuntime) loadSpec(i int) translate.LoadSpec {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loads[i]
}

func (r *fakeRuntime) model(i int) *fakeModel {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.models[i]
}

func TestIsIncompatibility(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"kernel image", errors.New("RuntimeError: no kernel image is available for execution on the device"), true},
		{"cuda error", errors.New("CUDA error: device-side assert triggered"), true},
		{"wrapped", fmt.Errorf("generate: %w", errCUDA), true},
		{"network", errors.New("connection refused"), false},
		{"out of memory", errors.New("cannot allocate 3.2 GiB"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := translate.IsIncompatibility(tt.err); got != tt.want {
				t.Errorf("IsIncompatibility(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestManagerInitialState(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		rt   *fakeRuntime
		want translate.DeviceState
	}{
		{"accelerator available", &fakeRuntime{available: true}, translate.GPUActive},
		{"no accelerator", &fakeRuntime{available: false}, translate.CPUFallback},
		{"probe error", &fakeRuntime{accelErr: errors.New("daemon unreachable")}, translate.CPUFallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := translate.NewManager(ctx, tt.rt, "test-model", nil)
			if got := m.State(); got != tt.want {
				t.Errorf("State() = %v, want %v", got, tt.want)
			}
			if tt.rt.loadCount() != 0 {
				t.Errorf("construction loaded the model: %d loads", tt.rt.loadCount())
			}
		})
	}
}

func TestManagerHandleLazyAndMemoized(t *testing.T) {
	ctx := context.Background()
	rt := &fakeRuntime{available: true}
	m := translate.NewManager(ctx, rt, "test-model", nil)

	h1, err := m.Handle(ctx)
	if err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if rt.loadCount() != 1 {
		t.Fatalf("loads = %d, want 1", rt.loadCount())
	}
	spec := rt.loadSpec(0)
	if spec.Device != translate.GPUActive || spec.Precision != translate.Float16 {
		t.Errorf("load spec = %v/%v, want gpu/float16", spec.Device, spec.Precision)
	}
	if got := rt.model(0).generations(); got != 1 {
		t.Errorf("probe generations = %d, want 1", got)
	}

	h2, err := m.Handle(ctx)
	if err != nil {
		t.Fatalf("second Handle() error: %v", err)
	}
	if h1 != h2 {
		t.Error("second Handle() returned a different model")
	}
	if rt.loadCount() != 1 {
		t.Errorf("second Handle() loaded again: %d loads", rt.loadCount())
	}
}

func TestManagerCPULoadSkipsProbe(t *testing.T) {
	ctx := context.Background()
	rt := &fakeRuntime{available: false}
	m := translate.NewManager(ctx, rt, "test-model", nil)

	if _, err := m.Handle(ctx); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	spec := rt.loadSpec(0)
	if spec.Device != translate.CPUFallback || spec.Precision != translate.Float32 {
		t.Errorf("load spec = %v/%v, want cpu/float32", spec.Device, spec.Precision)
	}
	if got := rt.model(0).generations(); got != 0 {
		t.Errorf("CPU load ran a probe: %d generations", got)
	}
}

func TestManagerProbeIncompatibilityFallsBack(t *testing.T) {
	ctx := context.Background()
	rt := &fakeRuntime{available: true, gpuGenErr: errCUDA}
	m := translate.NewManager(ctx, rt, "test-model", nil)

	h, err := m.Handle(ctx)
	if err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if got := h.Info().Device; got != translate.CPUFallback {
		t.Errorf("handle device = %v, want cpu", got)
	}
	if rt.loadCount() != 2 {
		t.Fatalf("loads = %d, want 2 (gpu then cpu)", rt.loadCount())
	}
	if d := rt.loadSpec(0).Device; d != translate.GPUActive {
		t.Errorf("first load on %v, want gpu", d)
	}
	if d := rt.loadSpec(1).Device; d != translate.CPUFallback {
		t.Errorf("second load on %v, want cpu", d)
	}
	if !rt.model(0).closed {
		t.Error("incompatible accelerator handle was not closed")
	}

	status := m.Status()
	if status.State != translate.CPUFallback || !status.FellBack {
		t.Errorf("status = %+v, want CPUFallback with FellBack", status)
	}
}

func TestManagerLoadIncompatibilityFallsBack(t *testing.T) {
	ctx := context.Background()
	rt := &fakeRuntime{available: true, gpuLoadErr: errCUDA}
	m := translate.NewManager(ctx, rt, "test-model", nil)

	h, err := m.Handle(ctx)
	if err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if got := h.Info().Device; got != translate.CPUFallback {
		t.Errorf("handle device = %v, want cpu", got)
	}
	if m.State() != translate.CPUFallback {
		t.Errorf("state = %v, want cpu", m.State())
	}
}

func TestManagerLoadFailureIsFatal(t *testing.T) {
	ctx := context.Background()
	rt := &fakeRuntime{available: true, gpuLoadErr: errors.New("weight shards corrupt")}
	m := translate.NewManager(ctx, rt, "test-model", nil)

	_, err := m.Handle(ctx)
	if !errors.Is(err, translate.ErrModelLoad) {
		t.Fatalf("Handle() error = %v, want ErrModelLoad", err)
	}
	if rt.loadCount() != 1 {
		t.Errorf("loads = %d, want 1 (no fallback on non-incompatibility)", rt.loadCount())
	}
	if m.State() != translate.GPUActive {
		t.Errorf("state changed to %v on a fatal load error", m.State())
	}
}

func TestManagerProbeFailurePropagates(t *testing.T) {
	ctx := context.Background()
	rt := &fakeRuntime{available: true, gpuGenErr: errors.New("tokenizer initialization failed")}
	m := translate.NewManager(ctx, rt, "test-model", nil)

	_, err := m.Handle(ctx)
	if err == nil || errors.Is(err, translate.ErrModelLoad) {
		t.Fatalf("Handle() error = %v, want raw probe error", err)
	}
	if rt.loadCount() != 1 {
		t.Errorf("loads = %d, want 1", rt.loadCount())
	}
	if !rt.model(0).closed {
		t.Error("failed handle was not closed")
	}
}

func TestManagerFallbackIsOneWay(t *testing.T) {
	ctx := context.Background()
	rt := &fakeRuntime{available: true}
	m := translate.NewManager(ctx, rt, "test-model", nil)

	if _, err := m.Handle(ctx); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}

	h, err := m.Fallback(ctx, errCUDA)
	if err != nil {
		t.Fatalf("Fallback() error: %v", err)
	}
	if got := h.Info().Device; got != translate.CPUFallback {
		t.Errorf("fallback handle device = %v, want cpu", got)
	}
	if !rt.model(0).closed {
		t.Error("accelerator handle was not closed on fallback")
	}
	if rt.loadCount() != 2 {
		t.Fatalf("loads = %d, want 2", rt.loadCount())
	}

	// A second fallback must reuse the live CPU handle.
	h2, err := m.Fallback(ctx, errCUDA)
	if err != nil {
		t.Fatalf("second Fallback() error: %v", err)
	}
	if h2 != h {
		t.Error("second Fallback() replaced the handle")
	}
	if rt.loadCount() != 2 {
		t.Errorf("second Fallback() loaded again: %d loads", rt.loadCount())
	}

	// Even after closing, the accelerator is never tried again.
	if err := m.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if _, err := m.Handle(ctx); err != nil {
		t.Fatalf("Handle() after close error: %v", err)
	}
	if d := rt.loadSpec(rt.loadCount() - 1).Device; d != translate.CPUFallback {
		t.Errorf("reload after fallback on %v, want cpu", d)
	}
}

func TestManagerFallbackConcurrent(t *testing.T) {
	ctx := context.Background()
	rt := &fakeRuntime{available: true}
	m := translate.NewManager(ctx, rt, "test-model", nil)

	if _, err := m.Handle(ctx); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}

	const callers = 8
	handles := make([]translate.Model, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := m.Fallback(ctx, errCUDA)
			if err != nil {
				t.Errorf("Fallback() error: %v", err)
				return
			}
			handles[i] = h
		}()
	}
	wg.Wait()

	// Exactly one reload: the gpu load plus a single cpu load.
	if rt.loadCount() != 2 {
		t.Errorf("loads = %d, want 2", rt.loadCount())
	}
	for i := 1; i < callers; i++ {
		if handles[i] != handles[0] {
			t.Fatalf("caller %d observed a different handle", i)
		}
	}
}

func TestManagerStatus(t *testing.T) {
	ctx := context.Background()
	rt := &fakeRuntime{available: true}
	m := translate.NewManager(ctx, rt, "facebook/m2m100_418M", nil)

	status := m.Status()
	if status.Model != "facebook/m2m100_418M" {
		t.Errorf("Model = %q", status.Model)
	}
	if status.Loaded {
		t.Error("Loaded = true before first Handle()")
	}
	if status.Precision != translate.Float16 {
		t.Errorf("Precision = %v, want float16", status.Precision)
	}
	if status.Accelerator == nil || status.Accelerator.Name != "FakeAccel" {
		t.Errorf("Accelerator = %+v", status.Accelerator)
	}
	if status.FellBack {
		t.Error("FellBack = true without a fallback")
	}

	if _, err := m.Handle(ctx); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}
	if !m.Status().Loaded {
		t.Error("Loaded = false after Handle()")
	}

	if err := m.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if m.Status().Loaded {
		t.Error("Loaded = true after Close()")
	}
	if !rt.model(0).closed {
		t.Error("model not closed by Close()")
	}
}
