package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/revloop-dev/revloop/internal/core/domain"
)

var (
	reactBy   string
	reactKind string
	reactNote string
)

var reactCmd = &cobra.Command{
	Use:   "react [finding-id]",
	Short: "Record a reaction on a finding",
	Long: `Records one person's reaction on a published finding. The kind is
"positive", "negative" or "other"; when omitted and a note is given, the
polarity is inferred from the note text.`,
	Args: cobra.ExactArgs(1),
	RunE: runReact,
}

func init() {
	reactCmd.Flags().StringVar(&reactBy, "by", "", "who is reacting (required)")
	reactCmd.Flags().StringVarP(&reactKind, "kind", "k", "", "reaction kind: positive, negative or other")
	reactCmd.Flags().StringVar(&reactNote, "note", "", "written feedback accompanying the reaction")
	_ = reactCmd.MarkFlagRequired("by")
	rootCmd.AddCommand(reactCmd)
}

func runReact(cmd *cobra.Command, args []string) error {
	if feedbackService == nil {
		return errors.New("feedback service not configured")
	}

	findingID := args[0]
	if reactKind == "" && reactNote == "" {
		return errors.New("either --kind or --note is required")
	}

	inserted, err := feedbackService.RecordReaction(
		context.Background(), findingID, reactBy, domain.ReactionKind(reactKind), reactNote)
	if err != nil {
		return fmt.Errorf("record reaction: %w", err)
	}

	if !inserted {
		cmd.Println("Reaction already recorded.")
		return nil
	}
	cmd.Println("Reaction recorded.")
	return nil
}
