package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var channelsJSON bool

var channelsCmd = &cobra.Command{
	Use:   "channels",
	Short: "List indexed channels",
	Long:  `Lists every channel with an indexed transcript corpus and its chunk count.`,
	Args:  cobra.NoArgs,
	RunE:  runChannels,
}

func init() {
	channelsCmd.Flags().BoolVar(&channelsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(channelsCmd)
}

func runChannels(cmd *cobra.Command, _ []string) error {
	if analyzerService == nil {
		return errors.New("analyzer service not configured")
	}

	infos, err := analyzerService.ListChannels(context.Background())
	if err != nil {
		return fmt.Errorf("list channels failed: %w", err)
	}

	if channelsJSON {
		data, err := json.MarshalIndent(infos, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal channels: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(infos) == 0 {
		cmd.Println("No indexed channels.")
		return nil
	}

	cmd.Println("Indexed channels:")
	cmd.Println()
	for _, info := range infos {
		cmd.Printf("  %s (%d chunks)\n", info.Name, info.Chunks)
	}
	return nil
}
