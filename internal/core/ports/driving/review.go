package driving

import (
	"context"
	"time"

	"github.com/revloop-dev/revloop/internal/core/domain"
)

// ReviewRequest carries one batch of candidate findings through a review
// run, together with everything the filter chain needs to evaluate them.
type ReviewRequest struct {
	// Context identifies the repository scope and pull request.
	Context domain.ReviewContext

	// Candidates are the raw findings from the analysis step.
	Candidates []domain.Finding

	// FileContents maps file paths to their current content, used for
	// evidence verification. Files absent from the map skip verification.
	FileContents map[string]string

	// DryRun skips publication and persistence; the chain still runs and
	// stats are still computed.
	DryRun bool
}

// ReviewResult is the outcome of one review run.
type ReviewResult struct {
	// Survivors are the findings that passed every filter stage. When the
	// run was published, each carries its external comment ID.
	Survivors []domain.Finding

	// Stats is the audit record for the run.
	Stats domain.FilterStats
}

// ReviewService runs the filter chain over a candidate batch, publishes
// survivors, and persists them for future similarity queries.
type ReviewService interface {
	Review(ctx context.Context, req ReviewRequest) (*ReviewResult, error)
}

// FeedbackService maintains the reaction history that feeds the feedback
// filter stage.
type FeedbackService interface {
	// RecordReaction records one identity's reaction on a finding.
	// Returns false if the identical reaction was already recorded.
	// An empty kind with a non-empty explanation infers sentiment from
	// the explanation text.
	RecordReaction(ctx context.Context, findingID, reactor string, kind domain.ReactionKind, explanation string) (bool, error)

	// SyncReactions pulls reactions from the external platform for
	// findings published in repoScope at or after since, and records the
	// new ones. Returns the number of reactions newly recorded.
	SyncReactions(ctx context.Context, repoScope string, since time.Time) (int, error)

	// FindingFeedback aggregates reactions for one finding.
	FindingFeedback(ctx context.Context, findingID string) (*domain.FeedbackSummary, error)
}
