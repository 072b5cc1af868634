package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/voxlate/voxlate/pkg/audio/sample"
	"github.com/voxlate/voxlate/pkg/cli"
	"github.com/voxlate/voxlate/pkg/profile"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the speaker profile",
	Long: `Manage the speaker profile that conditions speech synthesis.

The profile is trained from at least two WAV recordings of your voice,
each between 1 and 30 seconds. Clips are validated, resampled and
trimmed before the speaker embedding is computed.

Examples:
  voxlate profile train clip1.wav clip2.wav clip3.wav
  voxlate profile status
  voxlate profile reset
  voxlate profile restore`,
}

var profileForce bool

var profileTrainCmd = &cobra.Command{
	Use:   "train <sample.wav> [more.wav...]",
	Short: "Train the profile from voice samples",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		profiles, err := openProfiles()
		if err != nil {
			return err
		}
		if profiles.Exists() && !profileForce {
			return fmt.Errorf("a trained profile already exists; use --force to replace it")
		}

		var clips []*sample.Clip
		for _, path := range args {
			rep := sample.ValidateFile(path)
			if !rep.Accepted {
				printWarning("%s: %s", path, rep.Reason)
				continue
			}
			if rep.Warning != "" {
				printWarning("%s: %s", path, rep.Warning)
			}

			clip, err := decodeClip(path)
			if err != nil {
				return err
			}
			clip, err = sample.Preprocess(clip, sample.DefaultProfileRate)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			clips = append(clips, clip)
			printVerbose("%s: accepted (%s at %d Hz)", path, cli.FormatDuration(rep.Duration), rep.Rate)
		}

		p, err := profiles.Build(clips)
		if err != nil {
			if errors.Is(err, profile.ErrInsufficientSamples) {
				return fmt.Errorf("need at least 2 usable samples, got %d", len(clips))
			}
			return err
		}

		printSuccess("Profile trained from %d samples", p.SampleCount)
		printInfo("Saved to %s", profiles.Path())
		return nil
	},
}

func decodeClip(path string) (*sample.Clip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	clip, err := sample.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return clip, nil
}

var profileStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the trained profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		profiles, err := openProfiles()
		if err != nil {
			return err
		}

		if profiles.NeedsRetrain() {
			printWarning("Profile was reset; retrain with 'voxlate profile train' or bring it back with 'voxlate profile restore'")
			return nil
		}
		if !profiles.Exists() {
			fmt.Println("No profile trained.")
			fmt.Println("Train one with: voxlate profile train <sample.wav> <sample2.wav>")
			return nil
		}

		p, err := profiles.Load()
		if err != nil {
			return err
		}
		printInfo("Trained: %s", p.CreatedAt.Local().Format("2006-01-02 15:04"))
		printInfo("Samples: %d", p.SampleCount)
		printInfo("Embedding: %d dimensions", len(p.Embedding))
		printInfo("Synthesis rate: %d Hz", p.SampleRate)
		printVerbose("Path: %s", profiles.Path())
		return nil
	},
}

var profileResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset the profile, keeping a backup until the next training",
	RunE: func(cmd *cobra.Command, args []string) error {
		profiles, err := openProfiles()
		if err != nil {
			return err
		}
		if err := profiles.Invalidate(); err != nil {
			if errors.Is(err, profile.ErrNotFound) {
				return fmt.Errorf("no profile to reset")
			}
			return err
		}
		printSuccess("Profile reset")
		printInfo("Undo with: voxlate profile restore")
		return nil
	},
}

var profileRestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Reinstate the profile backup after a reset",
	RunE: func(cmd *cobra.Command, args []string) error {
		profiles, err := openProfiles()
		if err != nil {
			return err
		}
		if err := profiles.Restore(); err != nil {
			if errors.Is(err, profile.ErrNotFound) {
				return fmt.Errorf("no profile backup to restore")
			}
			return err
		}
		printSuccess("Profile restored")
		return nil
	},
}

func init() {
	profileTrainCmd.Flags().BoolVar(&profileForce, "force", false, "replace an existing profile")

	profileCmd.AddCommand(profileTrainCmd)
	profileCmd.AddCommand(profileStatusCmd)
	profileCmd.AddCommand(profileResetCmd)
	profileCmd.AddCommand(profileRestoreCmd)
	rootCmd.AddCommand(profileCmd)
}
