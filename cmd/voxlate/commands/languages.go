package commands

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/voxlate/voxlate/pkg/cli"
	"github.com/voxlate/voxlate/pkg/lang"
)

var languagesFormat string

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List supported languages",
	Long: `List the languages the translation model supports.

Language names are what 'translate' and 'speak' accept for --from and
--to; codes appear in artifact names.

Examples:
  voxlate languages
  voxlate languages --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog := lang.Default()
		if languagesFormat == string(cli.FormatTable) {
			return writeLanguageTable(os.Stdout, catalog)
		}

		entries := make([]languageEntry, 0, catalog.Len())
		for _, name := range catalog.Names() {
			code, _ := catalog.Code(name)
			entries = append(entries, languageEntry{Name: name, Code: code})
		}
		return cli.Output(entries, cli.OutputOptions{Format: cli.OutputFormat(languagesFormat)})
	},
}

type languageEntry struct {
	Name string `json:"name" yaml:"name"`
	Code string `json:"code" yaml:"code"`
}

// writeLanguageTable renders the catalog as an aligned two-column table.
func writeLanguageTable(w io.Writer, catalog *lang.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCODE")
	for _, name := range catalog.Names() {
		code, _ := catalog.Code(name)
		fmt.Fprintf(tw, "%s\t%s\n", name, code)
	}
	return tw.Flush()
}

func init() {
	languagesCmd.Flags().StringVar(&languagesFormat, "format", "table", "output format (table|json|yaml)")
	rootCmd.AddCommand(languagesCmd)
}
