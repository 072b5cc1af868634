package translate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// ErrModelLoad reports that the model weights could not be fetched or
// opened. It is fatal for the request; callers must not retry at this
// layer.
var ErrModelLoad = errors.New("translate: model load failed")

// incompatibilitySignatures identify an accelerator incompatibility by
// substring, matching the messages CUDA runtimes emit on architecture
// mismatch.
var incompatibilitySignatures = []string{
	"no kernel image is available",
	"CUDA error",
}

// IsIncompatibility reports whether err is an accelerator
// incompatibility. Only these errors may trigger the CPU fallback;
// anything else propagates to the caller unmodified.
func IsIncompatibility(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, sig := range incompatibilitySignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

// Status is a snapshot of the device manager for display.
type Status struct {
	State       DeviceState  `json:"state"`
	Precision   Precision    `json:"precision"`
	Model       string       `json:"model"`
	Loaded      bool         `json:"loaded"`
	Accelerator *Accelerator `json:"accelerator,omitempty"`

	// FellBack distinguishes a CPU state reached through the
	// incompatibility fallback from one where no accelerator was ever
	// detected.
	FellBack bool `json:"fell_back,omitempty"`
}

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	// CacheDir is the weight cache directory passed to the runtime.
	CacheDir string

	// Logger receives state transitions and load events.
	// Defaults to slog.Default().
	Logger *slog.Logger
}

// Manager owns the device state machine and the lazily loaded model
// handle.
//
// The state starts at GPUActive when the runtime reports a capable
// accelerator and at CPUFallback otherwise. The only transition is
// GPUActive to CPUFallback, taken when a load, the post-load probe or a
// generation fails with an incompatibility error. Once fallen back the
// process never attempts the accelerator again.
type Manager struct {
	runtime  Runtime
	model    string
	cacheDir string
	logger   *slog.Logger

	mu       sync.Mutex
	state    DeviceState
	handle   Model
	accel    *Accelerator
	fellBack bool
}

// NewManager probes the runtime's accelerator and fixes the initial
// device state. A failed probe is not fatal; the manager assumes no
// accelerator and starts on the CPU. opts may be nil.
func NewManager(ctx context.Context, rt Runtime, model string, opts *ManagerOptions) *Manager {
	if opts == nil {
		opts = &ManagerOptions{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{
		runtime:  rt,
		model:    model,
		cacheDir: opts.CacheDir,
		logger:   logger,
		state:    CPUFallback,
	}

	accel, err := rt.Accelerator(ctx)
	if err != nil {
		m.logger.Warn("accelerator probe failed, using CPU", "error", err)
		return m
	}
	m.accel = accel
	if accel.Available {
		m.state = GPUActive
		m.logger.Info("accelerator detected",
			"device", accel.Name, "memory_gb", accel.MemoryGB)
	} else {
		m.logger.Info("no accelerator detected, using CPU")
	}
	return m
}

// Handle returns the model handle for the current device state, loading
// it on first use.
//
// GPUActive loads use Float16 and run a one-shot compatibility probe;
// an incompatibility during load or probe takes the CPU fallback in
// place, so the returned handle is always usable. Weight fetch or open
// failures are wrapped in [ErrModelLoad].
func (m *Manager) Handle(ctx context.Context) (Model, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle != nil {
		return m.handle, nil
	}
	handle, err := m.loadCurrent(ctx)
	if err != nil {
		return nil, err
	}
	m.handle = handle
	m.logger.Info("model loaded",
		"model", m.model, "device", m.state, "precision", PrecisionFor(m.state))
	return handle, nil
}

// loadCurrent loads for the current state, taking the fallback
// transition in place when the accelerator proves incompatible.
// Callers hold m.mu.
func (m *Manager) loadCurrent(ctx context.Context) (Model, error) {
	if m.state == GPUActive {
		handle, err := m.loadOn(ctx, GPUActive)
		if err == nil {
			perr := m.probe(ctx, handle)
			if perr == nil {
				return handle, nil
			}
			handle.Close()
			if !IsIncompatibility(perr) {
				return nil, perr
			}
			m.markFallback("compatibility probe failed", perr)
		} else if IsIncompatibility(err) {
			m.markFallback("accelerator load failed", err)
		} else {
			return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
		}
	}
	handle, err := m.loadOn(ctx, CPUFallback)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}
	return handle, nil
}

// loadOn asks the runtime for a fresh handle on the given device.
func (m *Manager) loadOn(ctx context.Context, state DeviceState) (Model, error) {
	return m.runtime.Load(ctx, LoadSpec{
		Model:     m.model,
		Device:    state,
		Precision: PrecisionFor(state),
		CacheDir:  m.cacheDir,
	})
}

// probe runs a tiny generation to exercise the kernels the load path
// never touches. Some architecture mismatches only surface here.
func (m *Manager) probe(ctx context.Context, handle Model) error {
	_, err := handle.Generate(ctx, GenerateRequest{
		Text:       "ping",
		SourceCode: "en",
		TargetCode: "es",
		MaxLength:  8,
		BeamWidth:  1,
	})
	return err
}

// markFallback records the one-way transition to CPUFallback.
// Callers hold m.mu.
func (m *Manager) markFallback(reason string, cause error) {
	m.state = CPUFallback
	m.fellBack = true
	m.logger.Warn("falling back to CPU", "reason", reason, "error", cause)
}

// Fallback transitions to CPUFallback because of cause and reloads the
// model in full precision.
//
// The transition is atomic under the manager mutex: exactly one caller
// closes the old handle and reloads, concurrent callers wait on the
// mutex and then observe the already reloaded handle. When the state is
// already CPUFallback with a live handle, that handle is returned as is.
func (m *Manager) Fallback(ctx context.Context, cause error) (Model, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == GPUActive {
		m.markFallback("generation failed on accelerator", cause)
		if m.handle != nil {
			m.handle.Close()
			m.handle = nil
		}
	}
	if m.handle != nil {
		return m.handle, nil
	}
	handle, err := m.loadOn(ctx, CPUFallback)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}
	m.handle = handle
	m.logger.Info("model reloaded",
		"model", m.model, "device", m.state, "precision", PrecisionFor(m.state))
	return handle, nil
}

// State returns the current device state.
func (m *Manager) State() DeviceState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Status reports the manager state for display.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Status{
		State:       m.state,
		Precision:   PrecisionFor(m.state),
		Model:       m.model,
		Loaded:      m.handle != nil,
		Accelerator: m.accel,
		FellBack:    m.fellBack,
	}
}

// Close releases the model handle if one is loaded.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handle == nil {
		return nil
	}
	err := m.handle.Close()
	m.handle = nil
	return err
}
