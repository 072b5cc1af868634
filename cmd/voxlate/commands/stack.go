package commands

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/voxlate/voxlate/cmd/voxlate/internal/config"
	"github.com/voxlate/voxlate/pkg/cli"
	"github.com/voxlate/voxlate/pkg/kv"
	"github.com/voxlate/voxlate/pkg/pipeline"
	"github.com/voxlate/voxlate/pkg/profile"
	"github.com/voxlate/voxlate/pkg/storage"
	"github.com/voxlate/voxlate/pkg/synth"
	"github.com/voxlate/voxlate/pkg/translate"
)

// ---------------------------------------------------------------------------
// Component builders
// ---------------------------------------------------------------------------

// openProfiles opens the speaker profile store at the configured path.
func openProfiles() (*profile.Store, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, err
	}
	return profile.NewStore(cfg.ResolveProfilePath()), nil
}

// newTranslator builds the translation service: HTTP runtime, device
// manager and badger-backed result cache. The returned cleanup unloads
// the model and closes the cache database.
func newTranslator(ctx context.Context) (*translate.Service, func(), error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, nil, err
	}

	rt := translate.NewHTTPRuntime(translate.WithRuntimeURL(cfg.ResolveRuntimeURL()))
	manager := translate.NewManager(ctx, rt, cfg.ResolveModel(), &translate.ManagerOptions{
		CacheDir: cfg.ModelCacheDir,
	})

	store, err := kv.NewBadger(kv.BadgerOptions{Dir: cfg.ResolveCacheDir()})
	if err != nil {
		// Degrade to uncached translation rather than fail the command.
		printWarning("translation cache unavailable: %v", err)
		return translate.NewService(manager), func() { manager.Close() }, nil
	}

	svc := translate.NewService(manager, translate.WithCache(translate.NewResultCache(store)))
	cleanup := func() {
		manager.Close()
		store.Close()
	}
	return svc, cleanup, nil
}

// newSynthesizer builds the synthesizer from the configured engine and
// artifact store.
func newSynthesizer() (*synth.Synthesizer, error) {
	cfg, err := GetConfig()
	if err != nil {
		return nil, err
	}

	var engine synth.Engine
	switch name := cfg.ResolveEngine(); name {
	case "local":
		engine = synth.NewLocalEngine()
	case "remote":
		if cfg.TTSServerURL == "" {
			return nil, fmt.Errorf("tts_server_url not configured; run: voxlate config set tts_server_url <ws-url>")
		}
		engine = synth.NewRemoteEngine(cfg.TTSServerURL)
	default:
		return nil, fmt.Errorf("unknown synthesis engine %q (want local or remote)", name)
	}

	store, err := newArtifactStore(cfg)
	if err != nil {
		return nil, err
	}
	return synth.New(engine, store), nil
}

// newArtifactStore picks S3 when a bucket is configured, the local
// output directory otherwise.
func newArtifactStore(cfg *config.Config) (storage.FileStore, error) {
	if cfg.S3Bucket == "" {
		return storage.NewLocal(cfg.ResolveOutputDir())
	}
	if cfg.S3Region == "" || cfg.S3AccessKey == "" || cfg.S3SecretKey == "" {
		return nil, fmt.Errorf("S3 output needs s3_region, s3_access_key and s3_secret_key; run: voxlate config set s3_region <region>")
	}

	opts := s3.Options{
		Region: cfg.S3Region,
		Credentials: aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{
				AccessKeyID:     cfg.S3AccessKey,
				SecretAccessKey: cfg.S3SecretKey,
			}, nil
		}),
	}
	if cfg.S3Endpoint != "" {
		// Custom endpoints (minio and friends) want path-style addressing.
		opts.BaseEndpoint = aws.String(cfg.S3Endpoint)
		opts.UsePathStyle = true
	}
	return storage.NewS3(s3.New(opts), cfg.S3Bucket, cfg.S3Prefix), nil
}

// stack is the wired pipeline plus the translation service backing it,
// kept so commands can report device state after a run.
type stack struct {
	orchestrator *pipeline.Orchestrator
	translator   *translate.Service
	close        func()
}

func newStack(ctx context.Context) (*stack, error) {
	profiles, err := openProfiles()
	if err != nil {
		return nil, err
	}
	translator, cleanup, err := newTranslator(ctx)
	if err != nil {
		return nil, err
	}
	synthesizer, err := newSynthesizer()
	if err != nil {
		cleanup()
		return nil, err
	}
	return &stack{
		orchestrator: pipeline.New(profiles, translator, synthesizer),
		translator:   translator,
		close:        cleanup,
	}, nil
}

// ---------------------------------------------------------------------------
// Display helpers
// ---------------------------------------------------------------------------

// deviceLine renders the execution device the way the status panel and
// post-run warnings show it.
func deviceLine(accel *translate.Accelerator, fellBack bool) string {
	switch {
	case fellBack:
		return "GPU incompatible - using CPU"
	case accel != nil && accel.Available:
		line := "GPU"
		if accel.Name != "" {
			line = "GPU: " + accel.Name
		}
		if accel.MemoryGB > 0 {
			line += fmt.Sprintf(" (%.1f GB)", accel.MemoryGB)
		}
		return line
	default:
		return "No GPU detected"
	}
}

// warnFallback surfaces a mid-run CPU fallback after the result is out.
func warnFallback(st translate.Status) {
	if st.FellBack {
		printWarning("%s", deviceLine(st.Accelerator, true))
	}
}

// artifactLocation renders an artifact path for display: the local file
// path or the s3:// URL, depending on the configured store.
func artifactLocation(cfg *config.Config, path string) string {
	if cfg.S3Bucket != "" {
		key := path
		if cfg.S3Prefix != "" {
			key = cfg.S3Prefix + "/" + path
		}
		return "s3://" + cfg.S3Bucket + "/" + key
	}
	return filepath.Join(cfg.ResolveOutputDir(), path)
}

// dirSize sums the file sizes under dir. A missing directory counts as
// empty.
func dirSize(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if os.IsNotExist(err) {
		return 0, nil
	}
	return total, err
}

func printVerbose(format string, args ...any) { cli.PrintVerbose(IsVerbose(), format, args...) }
func printSuccess(format string, args ...any) { cli.PrintSuccess(format, args...) }
func printInfo(format string, args ...any)    { cli.PrintInfo(format, args...) }
func printWarning(format string, args ...any) { cli.PrintWarning(format, args...) }
