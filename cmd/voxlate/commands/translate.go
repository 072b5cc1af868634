package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/voxlate/voxlate/pkg/cli"
	"github.com/voxlate/voxlate/pkg/lang"
)

var (
	translateFrom   string
	translateTo     string
	translateBatch  string
	translateFormat string
)

var translateCmd = &cobra.Command{
	Use:   "translate [text]",
	Short: "Translate text",
	Long: `Translate text between any two supported languages.

The source language is detected from the text when --from is omitted.
Batch mode reads a request file instead of a text argument:

  texts:
    - Good morning
    - See you tomorrow
  from: English
  to: Spanish

Examples:
  voxlate translate "Good morning" --to German
  voxlate translate "¿Cómo estás?" --from Spanish --to English --format json
  voxlate translate --batch texts.yaml
  cat texts.yaml | voxlate translate --batch -`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if translateBatch != "" {
			return runTranslateBatch()
		}
		if len(args) == 0 {
			return fmt.Errorf("text argument is required (or use --batch <file>)")
		}
		return runTranslate(args[0])
	},
}

func init() {
	translateCmd.Flags().StringVar(&translateFrom, "from", "", "source language (default: detect from text)")
	translateCmd.Flags().StringVar(&translateTo, "to", "", "target language")
	translateCmd.Flags().StringVar(&translateBatch, "batch", "", "batch request file, '-' for stdin")
	translateCmd.Flags().StringVar(&translateFormat, "format", "", "structured output format (json|yaml)")

	rootCmd.AddCommand(translateCmd)
}

// translateResult is the structured output of one translation.
type translateResult struct {
	Source     string `json:"source" yaml:"source"`
	From       string `json:"from" yaml:"from"`
	To         string `json:"to" yaml:"to"`
	Translated string `json:"translated" yaml:"translated"`
}

func runTranslate(text string) error {
	if translateTo == "" {
		return fmt.Errorf("target language is required, use --to")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	svc, cleanup, err := newTranslator(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if _, ok := svc.Catalog().Code(translateTo); !ok {
		return fmt.Errorf("unsupported target language %q; run: voxlate languages", translateTo)
	}

	from := translateFrom
	if from == "" {
		from = lang.Detect(text)
		printVerbose("Detected source language: %s", from)
	}

	translated, err := svc.Translate(ctx, text, from, translateTo)
	if err != nil {
		return err
	}
	warnFallback(svc.Manager().Status())

	if translateFormat == "" {
		fmt.Println(translated)
		return nil
	}
	return cli.Output(translateResult{
		Source:     text,
		From:       from,
		To:         translateTo,
		Translated: translated,
	}, cli.OutputOptions{Format: cli.OutputFormat(translateFormat)})
}

// batchRequest is the --batch file schema.
type batchRequest struct {
	Texts []string `json:"texts" yaml:"texts"`
	From  string   `json:"from" yaml:"from"`
	To    string   `json:"to" yaml:"to"`
}

// mergeFlags applies command-line language flags over the file values
// and fills remaining defaults.
func (r *batchRequest) mergeFlags(from, to string) error {
	if from != "" {
		r.From = from
	}
	if to != "" {
		r.To = to
	}
	if r.To == "" {
		return fmt.Errorf("target language is required, use --to or a 'to:' entry in the batch file")
	}
	if r.From == "" {
		r.From = lang.Default().DefaultSource()
	}
	return nil
}

func runTranslateBatch() error {
	var req batchRequest
	if translateBatch == "-" {
		if err := cli.LoadRequestFromStdin(&req); err != nil {
			return err
		}
	} else if err := cli.LoadRequest(translateBatch, &req); err != nil {
		return err
	}
	if err := req.mergeFlags(translateFrom, translateTo); err != nil {
		return err
	}
	if len(req.Texts) == 0 {
		return fmt.Errorf("batch request has no texts")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	svc, cleanup, err := newTranslator(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if _, ok := svc.Catalog().Code(req.To); !ok {
		return fmt.Errorf("unsupported target language %q; run: voxlate languages", req.To)
	}

	printVerbose("Translating %d texts from %s to %s", len(req.Texts), req.From, req.To)

	results := svc.BatchTranslate(ctx, req.Texts, req.From, req.To)
	warnFallback(svc.Manager().Status())

	if translateFormat == "" {
		for _, line := range results {
			fmt.Println(line)
		}
		return nil
	}
	items := make([]translateResult, len(results))
	for i, translated := range results {
		items[i] = translateResult{Source: req.Texts[i], From: req.From, To: req.To, Translated: translated}
	}
	return cli.Output(items, cli.OutputOptions{Format: cli.OutputFormat(translateFormat)})
}
