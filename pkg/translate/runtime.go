package translate

import (
	"context"
	"fmt"
)

// DeviceState identifies the execution device the model is bound to.
type DeviceState string

const (
	// GPUActive runs the model on the accelerator in reduced precision.
	GPUActive DeviceState = "gpu"

	// CPUFallback runs the model on the CPU in full precision. The
	// transition from GPUActive is one-way; once a process falls back
	// it stays on the CPU until exit.
	CPUFallback DeviceState = "cpu"
)

// Precision is the numeric precision of the loaded model weights.
type Precision string

const (
	Float16 Precision = "float16" // reduced precision, accelerator only
	Float32 Precision = "float32" // full precision, used for CPU execution
)

// PrecisionFor returns the weight precision used in the given device state.
func PrecisionFor(state DeviceState) Precision {
	if state == GPUActive {
		return Float16
	}
	return Float32
}

// Accelerator describes the accelerator hardware visible to the runtime.
type Accelerator struct {
	// Available reports whether a capable accelerator is present.
	Available bool `json:"available"`

	// Name is the device name for display, e.g. "NVIDIA GeForce RTX 3080".
	Name string `json:"name,omitempty"`

	// MemoryGB is the total device memory in gigabytes.
	MemoryGB float64 `json:"memory_gb,omitempty"`
}

// LoadSpec tells the runtime which model to load, on which device and
// at which precision.
type LoadSpec struct {
	// Model is the model identifier, e.g. "facebook/m2m100_418M".
	Model string `json:"model"`

	// Device selects the execution device.
	Device DeviceState `json:"device"`

	// Precision selects the weight precision.
	Precision Precision `json:"precision"`

	// CacheDir is the local weight cache directory. Empty means the
	// runtime's default.
	CacheDir string `json:"cache_dir,omitempty"`
}

// GenerateRequest is a single translation generation call.
type GenerateRequest struct {
	// Text is the source text to translate.
	Text string `json:"text"`

	// SourceCode and TargetCode are model language codes, e.g. "en", "es".
	SourceCode string `json:"source_code"`
	TargetCode string `json:"target_code"`

	// MaxLength caps the token sequence length. Longer inputs are
	// truncated by the runtime.
	MaxLength int `json:"max_length"`

	// BeamWidth is the beam search width.
	BeamWidth int `json:"beam_width"`

	// EarlyStopping finishes beam search as soon as all beams are done.
	EarlyStopping bool `json:"early_stopping"`
}

// GenerateResult is the outcome of a generation call.
type GenerateResult struct {
	// Text is the translated text.
	Text string `json:"text"`

	// Truncated reports whether the input exceeded MaxLength and was cut.
	Truncated bool `json:"truncated,omitempty"`
}

// ModelInfo describes a loaded model for display.
type ModelInfo struct {
	Model     string      `json:"model"`
	Device    DeviceState `json:"device"`
	Precision Precision   `json:"precision"`
}

// String renders the info as e.g. "facebook/m2m100_418M on gpu (float16)".
func (i ModelInfo) String() string {
	return fmt.Sprintf("%s on %s (%s)", i.Model, i.Device, i.Precision)
}

// Model is a loaded translation model bound to one device and precision.
//
// Implementations need not be safe for concurrent use; the service
// serializes access with its own mutex.
type Model interface {
	// Generate translates one text.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)

	// Info describes the loaded model.
	Info() ModelInfo

	// Close releases the model resources.
	Close() error
}

// Runtime abstracts the inference backend that owns the actual weights.
type Runtime interface {
	// Accelerator probes the accelerator hardware.
	Accelerator(ctx context.Context) (*Accelerator, error)

	// Load loads a model on the requested device and precision.
	Load(ctx context.Context, spec LoadSpec) (Model, error)
}
