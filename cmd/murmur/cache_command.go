package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"murmur/internal/cache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the chunk result cache",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show chunk cache usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, warn, err := openCacheStore(cmd, ctx)
			if warn != "" {
				fmt.Fprintln(cmd.OutOrStdout(), warn)
			}
			if err != nil || store == nil {
				return err
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, stats)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Path:    %s\n", stats.Path)
			fmt.Fprintf(out, "Entries: %d\n", stats.Entries)
			fmt.Fprintf(out, "Size:    %s\n", humanBytes(stats.SizeBytes))
			if len(stats.Identities) == 0 {
				fmt.Fprintln(out, "Engines: none")
				return nil
			}
			rows := make([][]string, 0, len(stats.Identities))
			for _, id := range stats.Identities {
				rows = append(rows, []string{
					id.Identity,
					fmt.Sprintf("%d", id.Entries),
					fmt.Sprintf("%d", id.Segments),
					fmt.Sprintf("%d", id.Hits),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Engine", "Chunks", "Segments", "Hits"}, rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print stats as JSON")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached chunk results",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, warn, err := openCacheStore(cmd, ctx)
			if warn != "" {
				fmt.Fprintln(cmd.OutOrStdout(), warn)
			}
			if err != nil || store == nil {
				return err
			}
			defer store.Close()

			var removed int64
			if olderThan > 0 {
				removed, err = store.Prune(cmd.Context(), time.Now().Add(-olderThan))
			} else {
				removed, err = store.Clear(cmd.Context())
			}
			if err != nil {
				return err
			}
			if removed == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No cache entries removed")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d cache entries\n", removed)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Only remove entries unused for this long (e.g. 720h)")
	return cmd
}

func openCacheStore(cmd *cobra.Command, ctx *commandContext) (*cache.Store, string, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, "", err
	}
	if cfg == nil || !cfg.Cache.Enabled {
		return nil, "Chunk cache is disabled (set [cache] enabled = true in config.toml)", nil
	}
	if strings.TrimSpace(cfg.Cache.Path) == "" {
		return nil, "Chunk cache path is not configured", nil
	}
	store, err := cache.Open(cmd.Context(), cfg.Cache.Path)
	if err != nil {
		return nil, "", err
	}
	return store, "", nil
}

func humanBytes(v int64) string {
	const unit = 1024
	if v < unit {
		return fmt.Sprintf("%d B", v)
	}
	div := int64(unit)
	exp := 0
	for n := v / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	value := float64(v) / float64(div)
	return fmt.Sprintf("%.1f %ciB", value, "KMGTPEZY"[exp])
}
