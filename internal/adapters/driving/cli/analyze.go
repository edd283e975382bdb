package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/y-data-house/ydh-cli/internal/core/domain"
)

var analyzeJSON bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze [channel]",
	Short: "Analyze a channel's corpus",
	Long: `Derives a statistical profile of the channel's transcript corpus:
top keywords, content patterns, tone and metadata signals.

The profile is recomputed every run and never stored. Use "generate" to
turn it into a system prompt.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "output the profile as JSON")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analyzerService == nil {
		return errors.New("analyzer service not configured")
	}

	profile, err := analyzerService.Analyze(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("analyze failed: %w", err)
	}

	if analyzeJSON {
		data, err := json.MarshalIndent(profile, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal profile: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	return outputProfile(cmd, profile)
}

func outputProfile(cmd *cobra.Command, p domain.ChannelProfile) error {
	if p.IsEmpty() {
		cmd.Printf("Channel %q has no indexed corpus.\n", p.Channel)
		return nil
	}

	cmd.Printf("Profile for %s\n", p.Channel)
	cmd.Printf("  Videos: %d, chunks: %d\n", p.TotalVideos, p.TotalChunks)
	cmd.Println()

	if len(p.TopKeywords) > 0 {
		top := p.TopKeywords
		if len(top) > 10 {
			top = top[:10]
		}
		cmd.Printf("  Keywords: %s\n", strings.Join(top, ", "))
	}

	cmd.Printf("  Depth: %s\n", p.Patterns.Depth)
	cmd.Printf("  Tone: %s\n", p.Tone.StyleDescription)
	cmd.Println()

	cmd.Println("  Content patterns:")
	cmd.Printf("    investment terms:    %d\n", p.Patterns.InvestmentTerms)
	cmd.Printf("    real-estate focus:   %d\n", p.Patterns.RealEstateFocus)
	cmd.Printf("    numeric mentions:    %d\n", p.Patterns.NumericMentions)
	cmd.Printf("    location mentions:   %d\n", p.Patterns.LocationMentions)
	cmd.Printf("    experience mentions: %d\n", p.Patterns.ExperienceMentions)
	cmd.Printf("    practical tips:      %d\n", p.Patterns.PracticalTips)

	if p.Metadata.AvgDurationSeconds > 0 || len(p.Metadata.PopularTopics) > 0 || len(p.Metadata.VideoTypes) > 0 {
		cmd.Println()
		cmd.Println("  Metadata:")
		if p.Metadata.AvgDurationSeconds > 0 {
			cmd.Printf("    avg duration: %.0fs\n", p.Metadata.AvgDurationSeconds)
		}
		if len(p.Metadata.PopularTopics) > 0 {
			cmd.Printf("    topics: %s\n", strings.Join(p.Metadata.PopularTopics, ", "))
		}
		for videoType, count := range p.Metadata.VideoTypes {
			cmd.Printf("    %s videos: %d\n", videoType, count)
		}
	}
	return nil
}
