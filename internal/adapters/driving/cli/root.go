// Package cli implements the revloop command line interface. Commands
// hold no business logic; they parse input, call the driving ports and
// format output.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/revloop-dev/revloop/internal/core/ports/driving"
	"github.com/revloop-dev/revloop/internal/logger"
)

// version is set at build time via ldflags.
var version = "dev"

// FileFetcher retrieves the head content of every file a pull request
// touches, keyed by path.
type FileFetcher interface {
	ChangedFiles(ctx context.Context, repoScope string, prNumber int) (map[string]string, error)
}

// ConfigWatcher notifies when the configuration file changes on disk.
// Watch blocks until the context is cancelled.
type ConfigWatcher interface {
	Watch(ctx context.Context, onChange func()) error
}

// Injected services. Set by main before Execute; commands degrade with a
// clear error when the service they need is missing.
var (
	reviewService   driving.ReviewService
	feedbackService driving.FeedbackService
	fileFetcher     FileFetcher
	configWatcher   ConfigWatcher
)

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "revloop",
	Short: "Filter, publish and learn from code review findings",
	Long: `revloop runs candidate review findings through a filter chain,
publishes the survivors as pull request comments, and learns from the
reactions they receive so repeated noise gets quieter over time.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable verbose logging")
}

// Services bundles everything the commands need.
type Services struct {
	Review   driving.ReviewService
	Feedback driving.FeedbackService

	// Files fetches changed file content for evidence verification.
	// Nil when no GitHub credentials are configured.
	Files FileFetcher

	// Config is notified of configuration file edits; used by the
	// long-running sync loop.
	Config ConfigWatcher
}

// SetServices injects the service implementations. Must be called before
// Execute.
func SetServices(s Services) {
	reviewService = s.Review
	feedbackService = s.Feedback
	fileFetcher = s.Files
	configWatcher = s.Config
}

// SetVersion sets the version string reported by the version command.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
