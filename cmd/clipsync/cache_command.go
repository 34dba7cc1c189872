package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"clipsync/internal/analysiscache"
	"clipsync/internal/config"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the analysis result cache",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCachePurgeCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

// openCache opens the configured cache. A nil cache with a non-empty warning
// means caching is disabled.
func openCache(ctx *commandContext) (*analysiscache.Cache, string, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, "", err
	}
	if !cfg.Cache.Enabled {
		return nil, "Analysis cache is disabled (cache.enabled = false)", nil
	}
	if cfg.Cache.Backend == config.BackendMemory {
		return nil, "Analysis cache uses the memory backend; nothing is persisted", nil
	}
	cache, err := analysiscache.Open(cfg, ctx.logger())
	if err != nil {
		return nil, "", fmt.Errorf("open cache: %w", err)
	}
	return cache, "", nil
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, warn, err := openCache(ctx)
			if warn != "" {
				fmt.Fprintln(cmd.OutOrStdout(), warn)
			}
			if err != nil || cache == nil {
				return err
			}
			defer cache.Close()

			stats, err := cache.Stats(cmd.Context())
			if err != nil {
				return err
			}
			cfg, _ := ctx.ensureConfig()
			printCacheStats(cmd.OutOrStdout(), cfg, cache.Options(), stats)
			return nil
		},
	}
}

func printCacheStats(out io.Writer, cfg *config.Config, opts analysiscache.Options, stats analysiscache.Stats) {
	fmt.Fprintf(out, "Backend:  %s (%s)\n", stats.Backend, cfg.CachePath())
	fmt.Fprintf(out, "Keys:     %s:%d:<sha256>\n", opts.Namespace, opts.SchemaVersion)
	fmt.Fprintf(out, "Entries:  %d (%d expired)\n", stats.Entries, stats.Expired)
	fmt.Fprintf(out, "Size:     %s\n", humanize.IBytes(uint64(max(stats.Bytes, 0))))
	if stats.Entries == 0 {
		return
	}
	fmt.Fprintf(out, "Oldest:   %s\n", humanize.Time(stats.Oldest))
	fmt.Fprintf(out, "Newest:   %s\n", humanize.Time(stats.Newest))
}

func newCachePurgeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Remove expired cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, warn, err := openCache(ctx)
			if warn != "" {
				fmt.Fprintln(cmd.OutOrStdout(), warn)
			}
			if err != nil || cache == nil {
				return err
			}
			defer cache.Close()

			removed, err := cache.Purge(cmd.Context())
			if err != nil {
				return err
			}
			if removed == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No expired cache entries")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %s\n", pluralEntries(removed))
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cache entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, warn, err := openCache(ctx)
			if warn != "" {
				fmt.Fprintln(cmd.OutOrStdout(), warn)
			}
			if err != nil || cache == nil {
				return err
			}
			defer cache.Close()

			removed, err := cache.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %s\n", pluralEntries(removed))
			return nil
		},
	}
}

func pluralEntries(n int) string {
	if n == 1 {
		return "1 entry"
	}
	return fmt.Sprintf("%s entries", humanize.Comma(int64(n)))
}
