package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the answer cache",
	Long:  `Inspect and maintain the local cache of generated answers.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

var cacheCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove expired cache entries",
	Args:  cobra.NoArgs,
	RunE:  runCacheCleanup,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cache entries",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheCleanupCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(cacheCmd)
}

func runCacheStats(cmd *cobra.Command, _ []string) error {
	if answerCache == nil {
		return errors.New("answer cache not configured")
	}

	stats, err := answerCache.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("cache stats failed: %w", err)
	}

	cmd.Printf("Entries: %d (%d expired)\n", stats.Entries, stats.Expired)
	if stats.SizeBytes > 0 {
		cmd.Printf("Size: %.1f KiB\n", float64(stats.SizeBytes)/1024)
	}
	if len(stats.PerChannel) > 0 {
		channels := make([]string, 0, len(stats.PerChannel))
		for ch := range stats.PerChannel {
			channels = append(channels, ch)
		}
		sort.Strings(channels)

		cmd.Println("Per channel:")
		for _, ch := range channels {
			cmd.Printf("  %s: %d\n", ch, stats.PerChannel[ch])
		}
	}
	return nil
}

func runCacheCleanup(cmd *cobra.Command, _ []string) error {
	if answerCache == nil {
		return errors.New("answer cache not configured")
	}

	dropped, err := answerCache.Cleanup(context.Background())
	if err != nil {
		return fmt.Errorf("cache cleanup failed: %w", err)
	}
	cmd.Printf("Removed %d expired entries\n", dropped)
	return nil
}

func runCacheClear(cmd *cobra.Command, _ []string) error {
	if answerCache == nil {
		return errors.New("answer cache not configured")
	}

	if err := answerCache.Clear(context.Background()); err != nil {
		return fmt.Errorf("cache clear failed: %w", err)
	}
	cmd.Println("Cache cleared.")
	return nil
}
