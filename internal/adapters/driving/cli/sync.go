package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/revloop-dev/revloop/internal/logger"
)

var (
	syncWindow time.Duration
	syncEvery  time.Duration
)

var syncCmd = &cobra.Command{
	Use:   "sync [owner/repo]",
	Short: "Pull reactions from GitHub",
	Long: `Sweeps findings published in the repository within the given window
and records any reactions their comments have received since.

With --every the command keeps running and sweeps on an interval until
interrupted. Edits to the configuration file trigger an immediate sweep.`,
	Args: cobra.ExactArgs(1),
	RunE: runSync,
}

func init() {
	syncCmd.Flags().DurationVar(&syncWindow, "window", 30*24*time.Hour, "how far back to sweep published findings")
	syncCmd.Flags().DurationVar(&syncEvery, "every", 0, "keep running and sweep on this interval")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	if feedbackService == nil {
		return errors.New("feedback service not configured")
	}

	repoScope := args[0]

	if syncEvery <= 0 {
		return sweep(context.Background(), cmd, repoScope)
	}
	return syncLoop(cmd, repoScope)
}

// sweep runs one reaction sweep.
func sweep(ctx context.Context, cmd *cobra.Command, repoScope string) error {
	cmd.Printf("Syncing reactions for %s...\n", repoScope)

	recorded, err := feedbackService.SyncReactions(ctx, repoScope, time.Now().Add(-syncWindow))
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	cmd.Printf("Recorded %d new reactions.\n", recorded)
	return nil
}

// syncLoop sweeps on an interval until interrupted. A configuration file
// change triggers an immediate sweep so edited settings take effect
// without waiting out the interval.
func syncLoop(cmd *cobra.Command, repoScope string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reload := make(chan struct{}, 1)
	if configWatcher != nil {
		go func() {
			err := configWatcher.Watch(ctx, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
			if err != nil {
				logger.Warn("Config watcher stopped: %v", err)
			}
		}()
	}

	ticker := time.NewTicker(syncEvery)
	defer ticker.Stop()

	cmd.Printf("Syncing reactions for %s every %s. Ctrl-C to stop.\n", repoScope, syncEvery)

	for {
		if err := sweep(ctx, cmd, repoScope); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			// A failed sweep is retried on the next tick.
			logger.Warn("Sweep failed: %v", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-reload:
			logger.Info("Configuration changed, sweeping now")
		case <-ticker.C:
		}
	}
}
