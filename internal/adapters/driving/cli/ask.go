package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/y-data-house/ydh-cli/internal/core/domain"
)

var askJSON bool

var (
	askHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	askSourceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	askMetaStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
)

var askCmd = &cobra.Command{
	Use:   "ask [channel] [question]",
	Short: "Ask a question over a channel's corpus",
	Long: `Answers a question using only the named channel's indexed transcripts.

The question is expanded into multiple search queries, the best matching
excerpts are retrieved from the channel's collection and the answer is
generated under the channel's active system prompt, citing source videos.`,
	Args: cobra.ExactArgs(2),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the full response as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if askService == nil {
		return errors.New("ask service not configured")
	}

	resp, err := askService.Ask(context.Background(), args[0], args[1])
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal response: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	return outputAnswer(cmd, resp)
}

func outputAnswer(cmd *cobra.Command, resp domain.AnswerResponse) error {
	cmd.Println(askHeaderStyle.Render(fmt.Sprintf("Answer (%s)", resp.Channel)))
	cmd.Println()
	cmd.Println(resp.Answer)

	if len(resp.Sources) > 0 {
		cmd.Println()
		cmd.Println(askHeaderStyle.Render("Sources"))
		for i, s := range resp.Sources {
			line := fmt.Sprintf("  [%d] %s (%s", i+1, s.Title, s.VideoID)
			if s.Timestamp != "" {
				line += " @ " + s.Timestamp
			}
			line += fmt.Sprintf(", %.2f)", s.Relevance)
			cmd.Println(askSourceStyle.Render(line))
		}
	}

	cmd.Println()
	meta := fmt.Sprintf("prompt v%d, %s question, %s", resp.PromptVersion, resp.QuestionType, resp.Latency.Round(10*time.Millisecond))
	if resp.FromCache {
		meta += ", cached"
	}
	cmd.Println(askMetaStyle.Render(meta))
	return nil
}
