package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/voxlate/voxlate/pkg/cli"
	"github.com/voxlate/voxlate/pkg/kv"
	"github.com/voxlate/voxlate/pkg/translate"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the translation result cache",
	Long: `Manage the on-disk cache of translation results.

Repeated translations of the same text, language pair and precision
are served from the cache without touching the model.

Examples:
  voxlate cache stats
  voxlate cache clear`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache entry count and size",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		store, err := kv.NewBadger(kv.BadgerOptions{Dir: cfg.ResolveCacheDir()})
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := translate.NewResultCache(store).Len(ctx)
		if err != nil {
			return err
		}
		size, err := dirSize(cfg.ResolveCacheDir())
		if err != nil {
			return err
		}

		printInfo("Entries: %d", n)
		printInfo("Size: %s", cli.FormatBytes(size))
		printInfo("Path: %s", cfg.ResolveCacheDir())
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached translations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		store, err := kv.NewBadger(kv.BadgerOptions{Dir: cfg.ResolveCacheDir()})
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := translate.NewResultCache(store).Clear(ctx)
		if err != nil {
			return err
		}
		printSuccess("Removed %d cached translations", n)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}
