package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var generateAll bool

var generateCmd = &cobra.Command{
	Use:   "generate [channel]",
	Short: "Generate a channel's system prompt",
	Long: `Analyzes the channel's corpus and synthesizes a tailored system prompt,
saved as the new active version. Pass --all to regenerate every indexed
channel in one run.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

var batchGenerateCmd = &cobra.Command{
	Use:   "batch-generate",
	Short: "Regenerate prompts for every indexed channel",
	Long: `Runs prompt generation for every channel in the corpus, reporting
per-channel results. One channel failing does not stop the batch.`,
	Args: cobra.NoArgs,
	RunE: runBatchGenerate,
}

func init() {
	generateCmd.Flags().BoolVar(&generateAll, "all", false, "regenerate prompts for every indexed channel")
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(batchGenerateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	if promptService == nil {
		return errors.New("prompt service not configured")
	}

	if generateAll {
		if len(args) > 0 {
			return errors.New("--all does not take a channel argument")
		}
		return runGenerateAll(cmd)
	}

	if len(args) == 0 {
		return errors.New("channel name required (or pass --all)")
	}

	prompt, err := promptService.Generate(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("generate failed: %w", err)
	}

	cmd.Printf("Saved prompt v%d for %s\n", prompt.Version, prompt.Channel)
	cmd.Printf("  Persona: %s\n", prompt.Persona)
	cmd.Printf("  Tone: %s\n", prompt.Tone)
	return nil
}

func runBatchGenerate(cmd *cobra.Command, _ []string) error {
	if promptService == nil {
		return errors.New("prompt service not configured")
	}
	return runGenerateAll(cmd)
}

func runGenerateAll(cmd *cobra.Command) error {
	results := promptService.RegenerateAll(context.Background())
	if len(results) == 0 {
		cmd.Println("No indexed channels.")
		return nil
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			cmd.Printf("  %s: FAILED (%v)\n", r.Channel, r.Err)
			continue
		}
		cmd.Printf("  %s: v%d\n", r.Channel, r.Version)
	}

	cmd.Println()
	cmd.Printf("Regenerated %d of %d channels\n", len(results)-failed, len(results))
	if failed > 0 {
		return fmt.Errorf("%d channel(s) failed", failed)
	}
	return nil
}
