package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and edit settings",
	Long: `Show and edit the voxlate configuration.

Keys:
  model            translation model identifier
  runtime_url      inference runtime HTTP endpoint
  model_cache_dir  model weight cache directory
  profile_path     speaker profile file
  output_dir       local artifact output directory
  engine           synthesis engine: local or remote
  tts_server_url   remote synthesis websocket endpoint
  cache_dir        translation result cache directory
  s3_bucket        S3 artifact bucket (enables S3 output)
  s3_prefix        key prefix inside the bucket
  s3_region        bucket region
  s3_access_key    S3 credentials
  s3_secret_key    S3 credentials
  s3_endpoint      custom S3 endpoint (minio etc.)

Setting a key to "" clears it back to the default.

Examples:
  voxlate config show
  voxlate config set runtime_url http://gpu-box:8991
  voxlate config set engine remote
  voxlate config set tts_server_url ws://tts-box:9880/synthesize`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}

		const unset = "(not set)"
		rows := []struct{ key, value string }{
			{"model", markDefault(cfg.ResolveModel(), cfg.Model == "")},
			{"runtime_url", markDefault(cfg.ResolveRuntimeURL(), cfg.RuntimeURL == "")},
			{"model_cache_dir", fallback(cfg.ModelCacheDir, "(runtime default)")},
			{"profile_path", markDefault(cfg.ResolveProfilePath(), cfg.ProfilePath == "")},
			{"output_dir", markDefault(cfg.ResolveOutputDir(), cfg.OutputDir == "")},
			{"engine", markDefault(cfg.ResolveEngine(), cfg.Engine == "")},
			{"tts_server_url", fallback(cfg.TTSServerURL, unset)},
			{"cache_dir", markDefault(cfg.ResolveCacheDir(), cfg.CacheDir == "")},
			{"s3_bucket", fallback(cfg.S3Bucket, unset)},
			{"s3_prefix", fallback(cfg.S3Prefix, unset)},
			{"s3_region", fallback(cfg.S3Region, unset)},
			{"s3_access_key", masked(cfg.S3AccessKey)},
			{"s3_secret_key", masked(cfg.S3SecretKey)},
			{"s3_endpoint", fallback(cfg.S3Endpoint, unset)},
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for _, r := range rows {
			fmt.Fprintf(w, "%s\t%s\n", r.key, r.value)
		}
		return w.Flush()
	},
}

func markDefault(value string, isDefault bool) string {
	if isDefault {
		return value + "  (default)"
	}
	return value
}

func fallback(value, placeholder string) string {
	if value == "" {
		return placeholder
	}
	return value
}

func masked(value string) string {
	if value == "" {
		return "(not set)"
	}
	return "****"
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		key, value := args[0], args[1]

		switch key {
		case "model":
			cfg.Model = value
		case "runtime_url":
			cfg.RuntimeURL = value
		case "model_cache_dir":
			cfg.ModelCacheDir = value
		case "profile_path":
			cfg.ProfilePath = value
		case "output_dir":
			cfg.OutputDir = value
		case "engine":
			if value != "" && value != "local" && value != "remote" {
				return fmt.Errorf("engine must be local or remote")
			}
			cfg.Engine = value
		case "tts_server_url":
			cfg.TTSServerURL = value
		case "cache_dir":
			cfg.CacheDir = value
		case "s3_bucket":
			cfg.S3Bucket = value
		case "s3_prefix":
			cfg.S3Prefix = value
		case "s3_region":
			cfg.S3Region = value
		case "s3_access_key":
			cfg.S3AccessKey = value
		case "s3_secret_key":
			cfg.S3SecretKey = value
		case "s3_endpoint":
			cfg.S3Endpoint = value
		default:
			return fmt.Errorf("unknown key %q; run 'voxlate config' for the key list", key)
		}

		if err := cfg.Save(); err != nil {
			return err
		}
		printSuccess("%s set", key)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		fmt.Println(cfg.Path())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}
