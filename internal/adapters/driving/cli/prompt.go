package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/y-data-house/ydh-cli/internal/core/domain"
)

var (
	promptShowJSON bool
	promptSaveFile string
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Manage channel prompts",
	Long: `Inspect and manage the versioned system prompts used to answer
questions for each channel.`,
}

var promptShowCmd = &cobra.Command{
	Use:   "show [channel]",
	Short: "Show the active prompt",
	Args:  cobra.ExactArgs(1),
	RunE:  runPromptShow,
}

var promptVersionsCmd = &cobra.Command{
	Use:   "versions [channel]",
	Short: "List stored prompt versions",
	Args:  cobra.ExactArgs(1),
	RunE:  runPromptVersions,
}

var promptSetActiveCmd = &cobra.Command{
	Use:   "set-active [channel] [version]",
	Short: "Activate a stored prompt version",
	Args:  cobra.ExactArgs(2),
	RunE:  runPromptSetActive,
}

var promptSaveCmd = &cobra.Command{
	Use:   "save [channel]",
	Short: "Save a manually edited prompt",
	Long: `Reads a prompt JSON document from --file (or stdin) and saves it as the
channel's next version, marked as manually edited.`,
	Args: cobra.ExactArgs(1),
	RunE: runPromptSave,
}

var promptDeleteCmd = &cobra.Command{
	Use:   "delete [channel] [version]",
	Short: "Delete a stored prompt version",
	Long: `Removes a stored prompt version. When the deleted version was active,
the highest remaining version becomes active.`,
	Args: cobra.ExactArgs(2),
	RunE: runPromptDelete,
}

func init() {
	promptShowCmd.Flags().BoolVar(&promptShowJSON, "json", false, "output as JSON")
	promptSaveCmd.Flags().StringVarP(&promptSaveFile, "file", "f", "", "prompt JSON file (default: stdin)")
	promptCmd.AddCommand(promptShowCmd)
	promptCmd.AddCommand(promptVersionsCmd)
	promptCmd.AddCommand(promptSetActiveCmd)
	promptCmd.AddCommand(promptSaveCmd)
	promptCmd.AddCommand(promptDeleteCmd)
	rootCmd.AddCommand(promptCmd)
}

func runPromptShow(cmd *cobra.Command, args []string) error {
	if promptService == nil {
		return errors.New("prompt service not configured")
	}

	prompt, err := promptService.Active(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("load prompt failed: %w", err)
	}

	if promptShowJSON {
		data, err := json.MarshalIndent(prompt, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal prompt: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if prompt.Version == 0 {
		cmd.Printf("Channel %q has no stored prompt, showing the built-in default.\n\n", args[0])
	}
	cmd.Printf("Prompt v%d for %s", prompt.Version, prompt.Channel)
	if prompt.AutoGenerated {
		cmd.Print(" (auto-generated)")
	}
	cmd.Println()
	cmd.Printf("  Persona: %s\n", prompt.Persona)
	cmd.Printf("  Tone: %s\n", prompt.Tone)
	cmd.Println("  Rules:")
	for _, rule := range prompt.Rules {
		cmd.Printf("    - %s\n", rule)
	}
	cmd.Printf("  Output: %s (max %d bullets)\n", prompt.Output.Structure, prompt.Output.MaxBullets)
	return nil
}

func runPromptVersions(cmd *cobra.Command, args []string) error {
	if promptService == nil {
		return errors.New("prompt service not configured")
	}

	versions, err := promptService.Versions(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("list versions failed: %w", err)
	}
	if len(versions) == 0 {
		cmd.Printf("No stored prompts for %q.\n", args[0])
		return nil
	}

	cmd.Printf("Prompt versions for %s:\n", args[0])
	for _, v := range versions {
		origin := "manual"
		if v.AutoGenerated {
			origin = "auto"
		}
		cmd.Printf("  v%d  %s  %s  %s\n", v.Version, v.CreatedAt.Format("2006-01-02 15:04"), origin, v.Persona)
	}
	return nil
}

func runPromptSetActive(cmd *cobra.Command, args []string) error {
	if promptService == nil {
		return errors.New("prompt service not configured")
	}

	version, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid version %q", args[1])
	}

	if err := promptService.SetActive(context.Background(), args[0], version); err != nil {
		return fmt.Errorf("set active failed: %w", err)
	}
	cmd.Printf("Activated prompt v%d for %s\n", version, args[0])
	return nil
}

func runPromptSave(cmd *cobra.Command, args []string) error {
	if promptService == nil {
		return errors.New("prompt service not configured")
	}

	var data []byte
	var err error
	if promptSaveFile != "" {
		data, err = os.ReadFile(promptSaveFile)
	} else {
		data, err = readAll(cmd)
	}
	if err != nil {
		return fmt.Errorf("read prompt: %w", err)
	}

	var prompt domain.PromptVersion
	if err := json.Unmarshal(data, &prompt); err != nil {
		return fmt.Errorf("parse prompt JSON: %w", err)
	}
	prompt.Channel = args[0]

	version, err := promptService.SaveManual(context.Background(), prompt)
	if err != nil {
		return fmt.Errorf("save prompt failed: %w", err)
	}
	cmd.Printf("Saved prompt v%d for %s\n", version, args[0])
	return nil
}

func runPromptDelete(cmd *cobra.Command, args []string) error {
	if promptService == nil {
		return errors.New("prompt service not configured")
	}

	version, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid version %q", args[1])
	}

	if err := promptService.Delete(context.Background(), args[0], version); err != nil {
		return fmt.Errorf("delete prompt failed: %w", err)
	}
	cmd.Printf("Deleted prompt v%d for %s\n", version, args[0])
	return nil
}

func readAll(cmd *cobra.Command) ([]byte, error) {
	return io.ReadAll(cmd.InOrStdin())
}
