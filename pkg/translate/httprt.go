package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultRuntimeURL is where the local inference daemon listens.
const DefaultRuntimeURL = "http://127.0.0.1:8991"

// DefaultRuntimeTimeout is the default HTTP timeout for runtime calls.
// A cold load may pull weights from the network, so it is generous.
const DefaultRuntimeTimeout = 5 * time.Minute

// runtimeConfig holds HTTPRuntime configuration.
type runtimeConfig struct {
	baseURL    string
	httpClient *http.Client
}

// RuntimeOption configures an HTTPRuntime.
type RuntimeOption func(*runtimeConfig)

// WithRuntimeURL sets the daemon base URL.
func WithRuntimeURL(url string) RuntimeOption {
	return func(cfg *runtimeConfig) {
		cfg.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) RuntimeOption {
	return func(cfg *runtimeConfig) {
		cfg.httpClient = client
	}
}

// WithRuntimeTimeout sets the request timeout on the default client.
func WithRuntimeTimeout(timeout time.Duration) RuntimeOption {
	return func(cfg *runtimeConfig) {
		cfg.httpClient = &http.Client{Timeout: timeout}
	}
}

// HTTPRuntime drives a local inference daemon over JSON/HTTP.
//
// The daemon owns the actual weights; this client only moves requests
// and responses. Daemon error messages pass through verbatim, so
// incompatibility classification sees the underlying CUDA text.
type HTTPRuntime struct {
	client  *http.Client
	baseURL string
}

var _ Runtime = (*HTTPRuntime)(nil)

// NewHTTPRuntime creates a client for the daemon at [DefaultRuntimeURL]
// unless overridden.
func NewHTTPRuntime(opts ...RuntimeOption) *HTTPRuntime {
	cfg := &runtimeConfig{
		baseURL:    DefaultRuntimeURL,
		httpClient: &http.Client{Timeout: DefaultRuntimeTimeout},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &HTTPRuntime{
		client:  cfg.httpClient,
		baseURL: cfg.baseURL,
	}
}

// Accelerator implements [Runtime].
func (r *HTTPRuntime) Accelerator(ctx context.Context) (*Accelerator, error) {
	var accel Accelerator
	if err := r.do(ctx, http.MethodGet, "/v1/accelerator", nil, &accel); err != nil {
		return nil, err
	}
	return &accel, nil
}

// loadResponse is the daemon's reply to a load request.
type loadResponse struct {
	ID string `json:"id"`
}

// Load implements [Runtime]. The daemon replies with a handle id that
// routes generation calls until Close unloads it.
func (r *HTTPRuntime) Load(ctx context.Context, spec LoadSpec) (Model, error) {
	var resp loadResponse
	if err := r.do(ctx, http.MethodPost, "/v1/models/load", spec, &resp); err != nil {
		return nil, err
	}
	return &httpModel{
		rt: r,
		id: resp.ID,
		info: ModelInfo{
			Model:     spec.Model,
			Device:    spec.Device,
			Precision: spec.Precision,
		},
	}, nil
}

// httpModel is a Model backed by a daemon-side handle.
type httpModel struct {
	rt   *HTTPRuntime
	id   string
	info ModelInfo
}

var _ Model = (*httpModel)(nil)

// generateRequest routes a generation call to a daemon-side handle.
type generateRequest struct {
	ID string `json:"id"`
	GenerateRequest
}

// Generate implements [Model].
func (m *httpModel) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	var res GenerateResult
	body := generateRequest{ID: m.id, GenerateRequest: req}
	if err := m.rt.do(ctx, http.MethodPost, "/v1/generate", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Info implements [Model].
func (m *httpModel) Info() ModelInfo {
	return m.info
}

// unloadRequest names the daemon-side handle to drop.
type unloadRequest struct {
	ID string `json:"id"`
}

// Close implements [Model] by unloading the daemon-side handle.
func (m *httpModel) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return m.rt.do(ctx, http.MethodPost, "/v1/models/unload", unloadRequest{ID: m.id}, nil)
}

// errorResponse is the daemon's error envelope.
type errorResponse struct {
	Error string `json:"error"`
}

// do performs one JSON request against the daemon.
func (r *HTTPRuntime) do(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("translate: marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("translate: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("translate: runtime request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("translate: read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var envelope errorResponse
		if jerr := json.Unmarshal(data, &envelope); jerr == nil && envelope.Error != "" {
			// Verbatim, not wrapped. Incompatibility classification
			// matches substrings of the daemon's own message.
			return errors.New(envelope.Error)
		}
		return fmt.Errorf("translate: runtime returned %s: %s", resp.Status, bytes.TrimSpace(data))
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("translate: unmarshal response: %w", err)
		}
	}
	return nil
}
