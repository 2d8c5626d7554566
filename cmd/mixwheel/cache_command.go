package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mixwheel/internal/contentcache"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Downloaded-content cache maintenance",
	}

	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheSweepCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

// diskCache opens the configured cache, rejecting the command when the
// cache is disabled.
func diskCache(ctx *commandContext) (*contentcache.DiskCache, func(), error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Cache.Enabled || strings.TrimSpace(cfg.Cache.Dir) == "" {
		return nil, nil, errors.New("content cache is disabled in configuration")
	}
	logger, err := ctx.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	cache, err := contentcache.NewDiskCache(cfg.Cache.Dir, time.Duration(cfg.Cache.ExpiryHours)*time.Hour, logger)
	if err != nil {
		return nil, nil, err
	}
	return cache, func() { _ = cache.Close() }, nil
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache entry count and size",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, closeCache, err := diskCache(ctx)
			if err != nil {
				return err
			}
			defer closeCache()

			stats := cache.Stats()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Cache directory: %s\n", stats.Dir)
			fmt.Fprintf(out, "Entries: %d\n", stats.Entries)
			fmt.Fprintf(out, "Total size: %.1f MiB\n", float64(stats.TotalBytes)/(1024*1024))
			return nil
		},
	}
}

func newCacheSweepCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired cache entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, closeCache, err := diskCache(ctx)
			if err != nil {
				return err
			}
			defer closeCache()

			removed := cache.SweepExpired()
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired entr%s\n", removed, pluralY(removed))
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cache entry regardless of age",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return errors.New("pass --force to confirm removing all cache entries")
			}
			cache, closeCache, err := diskCache(ctx)
			if err != nil {
				return err
			}
			defer closeCache()

			removed := cache.Clear()
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d entr%s\n", removed, pluralY(removed))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Confirm clearing the cache")
	return cmd
}

func pluralY(count int) string {
	if count == 1 {
		return "y"
	}
	return "ies"
}
