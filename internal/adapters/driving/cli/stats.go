package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats [finding-id]",
	Short: "Show aggregated reactions for a finding",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	if feedbackService == nil {
		return errors.New("feedback service not configured")
	}

	summary, err := feedbackService.FindingFeedback(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("get feedback: %w", err)
	}

	if statsJSON {
		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal summary: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Positive: %d\n", summary.Positive)
	cmd.Printf("Negative: %d\n", summary.Negative)
	if len(summary.Explanations) > 0 {
		cmd.Println()
		cmd.Println("Notes:")
		for _, note := range summary.Explanations {
			cmd.Printf("  %s (%s): %s\n", note.Reactor, note.Sentiment, note.Text)
		}
	}
	return nil
}
