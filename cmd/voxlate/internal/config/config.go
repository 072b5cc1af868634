// Package config provides the configuration system for the voxlate CLI.
//
// Configuration is stored under os.UserConfigDir()/voxlate/:
//
//	~/Library/Application Support/voxlate/   (macOS)
//	~/.config/voxlate/                       (Linux)
//	%AppData%/voxlate/                       (Windows)
//
// Layout:
//
//	voxlate/
//	├── config.yaml    # settings, all optional
//	├── profile.bin    # trained speaker profile (default location)
//	└── cache/         # cached translation results (default location)
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/voxlate/voxlate/pkg/translate"
)

const (
	// appDir is the directory name under os.UserConfigDir().
	appDir = "voxlate"

	// configFile holds all settings.
	configFile = "config.yaml"
)

// Config holds the CLI settings. Every field is optional; the Resolve
// accessors supply defaults for the ones that have them. Defaults are
// resolved at use and never written into the file.
type Config struct {
	// Model is the translation model identifier.
	Model string `yaml:"model,omitempty"`

	// RuntimeURL is the HTTP endpoint of the inference runtime.
	RuntimeURL string `yaml:"runtime_url,omitempty"`

	// ModelCacheDir is the weight cache directory passed to the
	// runtime. Empty means the runtime's own default.
	ModelCacheDir string `yaml:"model_cache_dir,omitempty"`

	// ProfilePath is the speaker profile file.
	ProfilePath string `yaml:"profile_path,omitempty"`

	// OutputDir is where local speech artifacts are written.
	OutputDir string `yaml:"output_dir,omitempty"`

	// Engine selects the synthesis engine: "local" or "remote".
	Engine string `yaml:"engine,omitempty"`

	// TTSServerURL is the websocket endpoint of the remote synthesis
	// server. Required when Engine is "remote".
	TTSServerURL string `yaml:"tts_server_url,omitempty"`

	// CacheDir is the translation result cache directory.
	CacheDir string `yaml:"cache_dir,omitempty"`

	// S3Bucket switches artifact storage from OutputDir to S3 when set.
	S3Bucket    string `yaml:"s3_bucket,omitempty"`
	S3Prefix    string `yaml:"s3_prefix,omitempty"`
	S3Region    string `yaml:"s3_region,omitempty"`
	S3AccessKey string `yaml:"s3_access_key,omitempty"`
	S3SecretKey string `yaml:"s3_secret_key,omitempty"`
	S3Endpoint  string `yaml:"s3_endpoint,omitempty"`

	// dir is the configuration root this Config was loaded from.
	dir string
}

// Load loads the configuration from the default location.
func Load() (*Config, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine config directory: %w", err)
	}
	return LoadFrom(filepath.Join(base, appDir))
}

// LoadFrom loads the configuration from a specific root directory.
// A missing config file yields an empty configuration.
func LoadFrom(dir string) (*Config, error) {
	cfg := &Config{dir: dir}

	data, err := os.ReadFile(filepath.Join(dir, configFile))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read %s: %w", filepath.Join(dir, configFile), err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Join(dir, configFile), err)
	}
	return cfg, nil
}

// Save writes the configuration back to its root directory.
func (c *Config) Save() error {
	if err := os.MkdirAll(c.dir, 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(c.Path(), data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", c.Path(), err)
	}
	return nil
}

// Dir returns the configuration root directory.
func (c *Config) Dir() string {
	return c.dir
}

// Path returns the config file path.
func (c *Config) Path() string {
	return filepath.Join(c.dir, configFile)
}

// ResolveModel returns the configured translation model or the default.
func (c *Config) ResolveModel() string {
	if c.Model != "" {
		return c.Model
	}
	return translate.DefaultModel
}

// ResolveRuntimeURL returns the configured runtime endpoint or the default.
func (c *Config) ResolveRuntimeURL() string {
	if c.RuntimeURL != "" {
		return c.RuntimeURL
	}
	return translate.DefaultRuntimeURL
}

// ResolveProfilePath returns the speaker profile path, defaulting to
// profile.bin under the configuration root.
func (c *Config) ResolveProfilePath() string {
	if c.ProfilePath != "" {
		return c.ProfilePath
	}
	return filepath.Join(c.dir, "profile.bin")
}

// ResolveCacheDir returns the translation cache directory, defaulting
// to cache/ under the configuration root.
func (c *Config) ResolveCacheDir() string {
	if c.CacheDir != "" {
		return c.CacheDir
	}
	return filepath.Join(c.dir, "cache")
}

// ResolveOutputDir returns the artifact output directory, defaulting to
// the current directory.
func (c *Config) ResolveOutputDir() string {
	if c.OutputDir != "" {
		return c.OutputDir
	}
	return "."
}

// ResolveEngine returns the synthesis engine name, defaulting to "local".
func (c *Config) ResolveEngine() string {
	if c.Engine != "" {
		return c.Engine
	}
	return "local"
}
