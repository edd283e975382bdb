// Package cli implements the command-line interface. Commands talk to the
// core services through the driving ports; wiring happens in cmd/ydh.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/y-data-house/ydh-cli/internal/core/ports/driven"
	"github.com/y-data-house/ydh-cli/internal/core/ports/driving"
	"github.com/y-data-house/ydh-cli/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// Services used by commands. Nil services make the commands that need
// them fail with a clear error instead of panicking.
var (
	analyzerService driving.AnalyzerService
	promptService   driving.PromptService
	askService      driving.AskService
	answerCache     driven.AnswerCache
	configStore     driven.ConfigStore
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "ydh",
	Short: "Ask questions over per-channel video transcript corpora",
	Long: `ydh answers questions from indexed video transcripts, one channel at a time.

Each channel has its own vector collection, its own automatically
synthesized system prompt and its own answer cache. Answers are grounded
in retrieved transcript excerpts and cite their source videos.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Services bundles everything the commands need.
type Services struct {
	Analyzer driving.AnalyzerService
	Prompts  driving.PromptService
	Ask      driving.AskService
	Cache    driven.AnswerCache
	Config   driven.ConfigStore
}

// SetServices installs the service implementations used by the commands.
func SetServices(s Services) {
	analyzerService = s.Analyzer
	promptService = s.Prompts
	askService = s.Ask
	answerCache = s.Cache
	configStore = s.Config
}

// SetVersion sets the version string printed by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
