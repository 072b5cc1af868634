package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/voxlate/voxlate/pkg/cli"
	"github.com/voxlate/voxlate/pkg/kv"
	"github.com/voxlate/voxlate/pkg/translate"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show device, model, profile and cache status",
	Long: `Show a summary panel: execution device, translation model,
inference runtime, synthesis engine, speaker profile and result cache.

The device line reflects what the runtime reports right now; a CPU
fallback taken during a translate or speak run is warned about by that
command itself.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		rt := translate.NewHTTPRuntime(
			translate.WithRuntimeURL(cfg.ResolveRuntimeURL()),
			translate.WithRuntimeTimeout(5*time.Second),
		)
		accel, probeErr := rt.Accelerator(ctx)

		runtimeLine := cfg.ResolveRuntimeURL()
		if probeErr != nil {
			accel = nil
			runtimeLine += " (unreachable)"
		}

		rows := []cli.Row{
			{Label: "Device", Value: deviceLine(accel, false)},
			{Label: "Model", Value: cfg.ResolveModel()},
			{Label: "Runtime", Value: runtimeLine},
			{Label: "Engine", Value: cfg.ResolveEngine()},
			{Label: "Profile", Value: profileLine()},
			{Label: "Cache", Value: cacheLine(ctx, cfg.ResolveCacheDir())},
		}

		styles := cli.NewStyles(cli.DefaultTheme)
		panel := cli.Panel{Styles: styles, Title: "voxlate", Rows: rows}
		fmt.Println(panel.Render(0))
		fmt.Println(styles.Dim.Render("config: " + cfg.Path()))
		return nil
	},
}

// profileLine summarizes the speaker profile for the status panel.
func profileLine() string {
	profiles, err := openProfiles()
	if err != nil {
		return "unavailable"
	}
	if profiles.NeedsRetrain() {
		return "reset, retrain pending"
	}
	if !profiles.Exists() {
		return "not trained"
	}
	p, err := profiles.Load()
	if err != nil {
		return "unreadable"
	}
	return fmt.Sprintf("trained %s from %d samples",
		p.CreatedAt.Local().Format("2006-01-02"), p.SampleCount)
}

// cacheLine summarizes the translation result cache for the status panel.
func cacheLine(ctx context.Context, dir string) string {
	store, err := kv.NewBadger(kv.BadgerOptions{Dir: dir})
	if err != nil {
		return "unavailable"
	}
	defer store.Close()

	n, err := translate.NewResultCache(store).Len(ctx)
	if err != nil {
		return "unavailable"
	}
	if n == 0 {
		return "empty"
	}
	size, _ := dirSize(dir)
	return fmt.Sprintf("%d entries (%s)", n, cli.FormatBytes(size))
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
