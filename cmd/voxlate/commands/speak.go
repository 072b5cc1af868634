package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/voxlate/voxlate/pkg/cli"
	"github.com/voxlate/voxlate/pkg/lang"
	"github.com/voxlate/voxlate/pkg/pipeline"
)

var (
	speakFrom      string
	speakTo        string
	speakOutput    string
	speakOverwrite bool
)

var speakCmd = &cobra.Command{
	Use:   "speak <text>",
	Short: "Translate text and synthesize speech in the trained voice",
	Long: `Translate text and speak the result in the trained voice.

Requires a speaker profile; train one with 'voxlate profile train'.
The audio artifact is written to the configured output directory (or
S3 bucket) as a 16-bit PCM WAV file.

Examples:
  voxlate speak "Hello, how are you today?" --to Spanish
  voxlate speak "Guten Morgen" --from German --to English -o greeting.wav
  voxlate speak "Bonjour" --to Japanese -o hello.wav --overwrite`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if speakTo == "" {
			return fmt.Errorf("target language is required, use --to")
		}
		text := args[0]

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		st, err := newStack(ctx)
		if err != nil {
			return err
		}
		defer st.close()

		from := speakFrom
		if from == "" {
			from = lang.Detect(text)
			printVerbose("Detected source language: %s", from)
		}

		var opts []pipeline.RunOption
		if speakOutput != "" {
			opts = append(opts, pipeline.WithArtifactName(speakOutput))
		}
		if speakOverwrite {
			opts = append(opts, pipeline.WithOverwrite())
		}

		res, err := st.orchestrator.Run(ctx, text, from, speakTo, opts...)
		if err != nil {
			if errors.Is(err, pipeline.ErrProfileRequired) {
				return fmt.Errorf("no speaker profile; run: voxlate profile train <sample.wav> <sample2.wav>")
			}
			return err
		}
		warnFallback(st.translator.Manager().Status())

		cfg, _ := GetConfig()
		printSuccess("Translation: %s", res.TranslatedText)
		printSuccess("Audio: %s (%s, %s)", artifactLocation(cfg, res.Artifact.Path),
			cli.FormatDuration(res.Artifact.Duration), cli.FormatBytes(res.Artifact.Size))
		printVerbose("Request ID: %s", res.RequestID)
		return nil
	},
}

func init() {
	speakCmd.Flags().StringVar(&speakFrom, "from", "", "source language (default: detect from text)")
	speakCmd.Flags().StringVar(&speakTo, "to", "", "target language")
	speakCmd.Flags().StringVarP(&speakOutput, "output", "o", "", "artifact file name (default: generated)")
	speakCmd.Flags().BoolVar(&speakOverwrite, "overwrite", false, "replace an existing artifact with the same name")

	rootCmd.AddCommand(speakCmd)
}
